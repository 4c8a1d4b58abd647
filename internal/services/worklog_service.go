package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"refund-service/internal/blob"
	"refund-service/internal/index"
	"refund-service/internal/keyspace"
	"refund-service/internal/matching"
	"refund-service/internal/models"
	"refund-service/internal/repositories"
)

type WorkLogService struct {
	worklogs       repositories.WorkLogRepository
	index          *index.WorkLogIndex
	blobs          blob.Store
	excludedBranch string
	logger         *slog.Logger
	now            func() time.Time
}

func NewWorkLogService(
	worklogs repositories.WorkLogRepository,
	worklogIndex *index.WorkLogIndex,
	blobs blob.Store,
	excludedBranch string,
	logger *slog.Logger,
) *WorkLogService {
	return &WorkLogService{
		worklogs:       worklogs,
		index:          worklogIndex,
		blobs:          blobs,
		excludedBranch: excludedBranch,
		logger:         logger,
		now:            time.Now,
	}
}

type WorkLogListResult struct {
	WorkLogs   []models.WorkLog `json:"worklogs"`
	TotalCount int              `json:"totalCount"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

type WorkLogDeleteResult struct {
	FailedPhotos []string `json:"failedPhotos,omitempty"`
}

func (s *WorkLogService) Create(ctx context.Context, user *models.User, in WorkLogInput) (*models.WorkLog, error) {
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return nil, invalid("date must be in YYYY-MM-DD format")
	}

	now := s.now()
	log := &models.WorkLog{
		ID:                    keyspace.NewID("worklog", now),
		Date:                  in.Date,
		AuthorRole:            user.Role,
		AuthorID:              user.Username,
		AuthorName:            user.Name,
		BranchID:              user.BranchName,
		Note:                  in.Note,
		PhotoURLs:             in.PhotoURLs,
		WorklogPasteImageURLs: in.WorklogPasteImageURLs,
		CreatedAt:             models.Timestamp(now),
		Status:                models.StatusPending,
	}
	if log.PhotoURLs == nil {
		log.PhotoURLs = []string{}
	}

	if err := s.worklogs.Save(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to save work log: %w", err)
	}
	if err := s.index.Add(ctx, log); err != nil {
		s.logger.Error("failed to list work log", "worklog_id", log.ID, "error", err)
	}

	s.logger.Info("work log created", "worklog_id", log.ID, "user", user.Username, "date", log.Date)
	return log, nil
}

// List pages through the work logs visible to user. Branch accounts see
// their own branch only.
func (s *WorkLogService) List(ctx context.Context, user *models.User, from, to string, p index.Pagination) (*WorkLogListResult, error) {
	q := index.WorkLogQuery{
		Filter:     matching.WorkLogFilter{From: from, To: to},
		Pagination: p,
	}
	if user.Role == models.RoleBranch && user.BranchName != "" {
		q.ListKey = keyspace.WorkLogsByBranch(user.BranchName)
	}
	return s.list(ctx, q)
}

// ListForManager pages through every work log except the excluded branch's.
func (s *WorkLogService) ListForManager(ctx context.Context, user *models.User, from, to string, p index.Pagination) (*WorkLogListResult, error) {
	if user.Role != models.RoleMiddleManager {
		return nil, forbidden("middle manager privileges are required")
	}
	return s.list(ctx, index.WorkLogQuery{
		Filter:     matching.WorkLogFilter{ExcludeBranch: s.excludedBranch, From: from, To: to},
		Pagination: p,
	})
}

func (s *WorkLogService) list(ctx context.Context, q index.WorkLogQuery) (*WorkLogListResult, error) {
	for _, d := range []string{q.Filter.From, q.Filter.To} {
		if _, err := matching.ParseDate(d); err != nil {
			return nil, invalid("%s", err.Error())
		}
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = index.DefaultPageSize
	}

	page, err := s.index.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list work logs: %w", err)
	}
	logs, err := s.worklogs.GetMany(ctx, page.IDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list work logs: %w", err)
	}

	return &WorkLogListResult{
		WorkLogs:   logs,
		TotalCount: page.TotalCount,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: (page.TotalCount + q.PageSize - 1) / q.PageSize,
	}, nil
}

func (s *WorkLogService) get(ctx context.Context, id string) (*models.WorkLog, error) {
	log, err := s.worklogs.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrWorkLogNotFound) {
		return nil, notFound("work log not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work log: %w", err)
	}
	return log, nil
}

// Update edits the note (author or administrator) and the review fields
// (administrator only).
func (s *WorkLogService) Update(ctx context.Context, user *models.User, id string, patch WorkLogPatch) (*models.WorkLog, error) {
	log, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := models.Timestamp(s.now())
	if patch.Note != nil {
		if !user.IsAdmin() && log.AuthorID != user.Username {
			return nil, forbidden("you can only edit your own work logs")
		}
		log.Note = *patch.Note
	}
	if patch.Status != nil {
		if !user.IsAdmin() {
			return nil, forbidden("only administrators can change work log status")
		}
		status := models.RefundStatus(*patch.Status)
		if !status.Valid() {
			return nil, invalid("invalid status %q", *patch.Status)
		}
		log.Status = status
		log.StatusUpdatedAt = now
	}
	if patch.CommanderComment != nil {
		if !user.IsAdmin() {
			return nil, forbidden("only administrators can comment on work logs")
		}
		log.CommanderComment = *patch.CommanderComment
		log.CommanderCommentAt = now
	}

	if err := s.worklogs.Save(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to save work log: %w", err)
	}
	return log, nil
}

// Delete removes a work log and its images. Only the author or an
// administrator may delete it.
func (s *WorkLogService) Delete(ctx context.Context, user *models.User, id string) (*WorkLogDeleteResult, error) {
	log, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && log.AuthorID != user.Username {
		return nil, forbidden("you cannot delete this work log")
	}

	result := &WorkLogDeleteResult{}
	for _, ref := range log.BlobRefs() {
		if err := s.blobs.Delete(ctx, ref); err != nil {
			s.logger.Warn("failed to delete blob", "worklog_id", id, "ref", ref, "error", err)
			result.FailedPhotos = append(result.FailedPhotos, ref)
		}
	}

	if err := s.worklogs.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete work log: %w", err)
	}
	if err := s.index.Remove(ctx, log); err != nil {
		s.logger.Warn("failed to unlist deleted work log", "worklog_id", id, "error", err)
	}

	s.logger.Info("work log deleted", "worklog_id", id, "user", user.Username)
	return result, nil
}
