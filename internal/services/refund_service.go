package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"refund-service/internal/blob"
	"refund-service/internal/duplicate"
	"refund-service/internal/index"
	"refund-service/internal/keyspace"
	"refund-service/internal/models"
	"refund-service/internal/repositories"
)

const (
	minStatusReasonLength = 3

	suggestionBatchSize  = 100
	suggestionMaxBatches = 10
)

type RefundService struct {
	refunds        repositories.RefundRepository
	statusLogs     repositories.StatusLogRepository
	index          *index.RefundIndex
	duplicates     *duplicate.Index
	blobs          blob.Store
	excludedBranch string
	logger         *slog.Logger
	now            func() time.Time
}

func NewRefundService(
	refunds repositories.RefundRepository,
	statusLogs repositories.StatusLogRepository,
	refundIndex *index.RefundIndex,
	duplicates *duplicate.Index,
	blobs blob.Store,
	excludedBranch string,
	logger *slog.Logger,
) *RefundService {
	return &RefundService{
		refunds:        refunds,
		statusLogs:     statusLogs,
		index:          refundIndex,
		duplicates:     duplicates,
		blobs:          blobs,
		excludedBranch: excludedBranch,
		logger:         logger,
		now:            time.Now,
	}
}

type ListResult struct {
	Refunds    []models.RefundClaim `json:"refunds"`
	TotalCount int                  `json:"totalCount"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"pageSize"`
	TotalPages int                  `json:"totalPages"`
}

type DeleteResult struct {
	DeletedID     string   `json:"deletedId"`
	DeletedPhotos []string `json:"deletedPhotos"`
	FailedPhotos  []string `json:"failedPhotos"`
}

type AcknowledgeResult struct {
	AcknowledgedAt      string `json:"acknowledgedAt"`
	AcknowledgedBy      string `json:"acknowledgedBy"`
	AlreadyAcknowledged bool   `json:"alreadyAcknowledged,omitempty"`
}

// Create stores a single claim. Unless force is set, a claim whose
// fingerprint matches a live claim is rejected with a DuplicateError.
func (s *RefundService) Create(ctx context.Context, user *models.User, in ClaimInput, force bool) (*models.RefundClaim, error) {
	switch in.Type {
	case "":
		in.Type = models.RefundTypeSingle
	case models.RefundTypeSingle, models.RefundTypeBulk, models.RefundTypeBundled:
	default:
		return nil, invalid("unknown refund type %q", in.Type)
	}
	if in.Type == models.RefundTypeSingle {
		switch {
		case blank(in.CompanyName):
			return nil, invalid("companyName is required")
		case blank(in.DealerName):
			return nil, invalid("dealerName is required")
		case blank(in.ManagerName):
			return nil, invalid("managerName is required")
		}
	}
	if in.RefundMethod == models.MethodOffset && blank(in.OffsetReason) {
		return nil, invalid("offsetReason is required for offset refunds")
	}

	claim := s.newClaim(user)
	claim.Type = in.Type
	claim.RefundDate = in.RefundDate
	claim.VehicleNumber = in.VehicleNumber
	claim.VIN = in.VIN
	claim.InsuranceProvider = in.InsuranceProvider
	claim.InsuranceProviderEtc = in.InsuranceProviderEtc
	claim.CompanyName = in.CompanyName
	claim.DealerName = in.DealerName
	claim.ManagerName = in.ManagerName
	claim.RefundMethod = in.RefundMethod
	claim.ClaimAmount = float64(in.ClaimAmount)
	claim.RefundReason = in.RefundReason
	claim.BankName = in.BankName
	claim.AccountNumber = in.AccountNumber
	claim.AccountHolder = in.AccountHolder
	claim.ReceiptDate = in.ReceiptDate
	claim.OffsetReason = in.OffsetReason
	claim.ReceiptPhotos = in.ReceiptPhotos
	claim.ExcelFile = in.ExcelFile
	claim.BundledPhotos = in.BundledPhotos
	claim.Notes = in.Notes

	if !force {
		if existing := s.duplicates.Check(ctx, duplicate.FingerprintOf(claim)); existing != "" {
			return nil, &DuplicateError{Duplicates: []Duplicate{{
				VehicleNumber:    claim.VehicleNumber,
				ExistingRefundID: existing,
			}}}
		}
	}

	if err := s.persist(ctx, claim); err != nil {
		return nil, err
	}

	s.logger.Info("refund created", "refund_id", claim.ID, "user", user.Username, "type", claim.Type)
	return claim, nil
}

// CreateBatch stores one claim per item, all sharing header. If any item
// fails, every claim created by the batch is removed again.
func (s *RefundService) CreateBatch(ctx context.Context, user *models.User, header BatchHeader, items []BatchItem, force bool) ([]string, error) {
	if blank(header.InsuranceProvider) || blank(header.CompanyName) || blank(header.RefundMethod) {
		return nil, invalid("insuranceProvider, companyName and refundMethod are required")
	}
	if header.InsuranceProvider == models.InsuranceProviderOther && blank(header.InsuranceProviderEtc) {
		return nil, invalid("insuranceProviderEtc is required when the provider is entered by hand")
	}
	if header.RefundMethod == models.MethodAccount &&
		(blank(header.BankName) || blank(header.AccountNumber) || blank(header.AccountHolder)) {
		return nil, invalid("bankName, accountNumber and accountHolder are required for account refunds")
	}
	if header.RefundMethod == models.MethodOffset && blank(header.OffsetReason) {
		return nil, invalid("offsetReason is required for offset refunds")
	}
	if len(items) == 0 {
		return nil, invalid("at least one refund item is required")
	}

	if !force {
		var dups []Duplicate
		for i, item := range items {
			f := duplicate.Fingerprint{
				VehicleNumber: item.VehicleNumber,
				CompanyName:   header.CompanyName,
				RefundMethod:  header.RefundMethod,
				ClaimAmount:   float64(item.ClaimAmount),
			}
			if existing := s.duplicates.Check(ctx, f); existing != "" {
				dups = append(dups, Duplicate{Index: i, VehicleNumber: item.VehicleNumber, ExistingRefundID: existing})
			}
		}
		if len(dups) > 0 {
			return nil, &DuplicateError{Duplicates: dups}
		}
	}

	var created []*models.RefundClaim
	var failed []FailedItem
	for i, item := range items {
		if err := validateBatchItem(header.RefundMethod, item); err != nil {
			failed = append(failed, FailedItem{Index: i, Reason: err.Error()})
			continue
		}

		claim := s.newClaim(user)
		claim.Type = models.RefundTypeSingle
		claim.InsuranceProvider = header.InsuranceProvider
		claim.InsuranceProviderEtc = header.InsuranceProviderEtc
		claim.CompanyName = header.CompanyName
		claim.DealerName = header.DealerName
		claim.ManagerName = header.ManagerName
		claim.RefundMethod = header.RefundMethod
		claim.BankName = header.BankName
		claim.AccountNumber = header.AccountNumber
		claim.AccountHolder = header.AccountHolder
		claim.OffsetReason = header.OffsetReason
		claim.RefundDate = item.RefundDate
		claim.VehicleNumber = item.VehicleNumber
		claim.VIN = item.VIN
		claim.ClaimAmount = float64(item.ClaimAmount)
		claim.RefundReason = item.RefundReason
		claim.ReceiptDate = item.ReceiptDate
		claim.ReceiptPhotos = item.ReceiptPhotos

		if err := s.persist(ctx, claim); err != nil {
			s.logger.Error("batch refund item failed", "index", i, "error", err)
			failed = append(failed, FailedItem{Index: i, Reason: "failed to save refund"})
			continue
		}
		created = append(created, claim)
	}

	if len(failed) > 0 {
		for _, claim := range created {
			s.rollback(ctx, claim)
		}
		s.logger.Warn("batch refund cancelled", "user", user.Username, "failed", len(failed), "rolled_back", len(created))
		return nil, &BatchError{Failed: failed}
	}

	ids := make([]string, len(created))
	for i, claim := range created {
		ids[i] = claim.ID
	}
	s.logger.Info("batch refund created", "user", user.Username, "count", len(ids))
	return ids, nil
}

func validateBatchItem(method string, item BatchItem) error {
	if blank(item.RefundDate) || blank(item.VehicleNumber) || item.ClaimAmount == 0 || blank(item.RefundReason) {
		return errors.New("refundDate, vehicleNumber, claimAmount and refundReason are required")
	}
	if (method == models.MethodCard || method == models.MethodOffset) && blank(item.ReceiptDate) {
		return errors.New("receiptDate is required for card and offset refunds")
	}
	if len(item.ReceiptPhotos) == 0 {
		return errors.New("at least one receipt photo is required")
	}
	return nil
}

func (s *RefundService) newClaim(user *models.User) *models.RefundClaim {
	now := s.now()
	return &models.RefundClaim{
		ID:                keyspace.NewID("refund", now),
		Status:            models.StatusPending,
		SubmittedAt:       models.Timestamp(now),
		SubmittedBy:       user.Username,
		SubmittedByName:   user.Name,
		SubmittedByBranch: user.BranchName,
	}
}

// persist writes the entity, lists it, and registers its fingerprint. Only
// the entity write can fail the call; list and fingerprint failures are
// logged.
func (s *RefundService) persist(ctx context.Context, claim *models.RefundClaim) error {
	if err := s.refunds.Save(ctx, claim); err != nil {
		return fmt.Errorf("failed to save refund: %w", err)
	}
	if err := s.index.Add(ctx, claim); err != nil {
		s.logger.Error("failed to list refund", "refund_id", claim.ID, "error", err)
	}
	s.duplicates.Register(ctx, claim.ID, duplicate.FingerprintOf(claim))
	return nil
}

func (s *RefundService) rollback(ctx context.Context, claim *models.RefundClaim) {
	if err := s.refunds.Delete(ctx, claim.ID); err != nil {
		s.logger.Error("failed to roll back refund", "refund_id", claim.ID, "error", err)
	}
	if err := s.index.Remove(ctx, claim); err != nil {
		s.logger.Error("failed to unlist rolled back refund", "refund_id", claim.ID, "error", err)
	}
	s.duplicates.RemoveIfOwned(ctx, claim.ID, duplicate.FingerprintOf(claim))
}

// Get returns one claim.
func (s *RefundService) Get(ctx context.Context, id string) (*models.RefundClaim, error) {
	claim, err := s.refunds.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrRefundNotFound) {
		return nil, notFound("refund not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refund: %w", err)
	}
	return claim, nil
}

// Update is the administrator edit. Any field may change at any status.
func (s *RefundService) Update(ctx context.Context, admin *models.User, id string, patch ClaimPatch) (*models.RefundClaim, error) {
	if !admin.IsAdmin() {
		return nil, forbidden("administrator privileges are required")
	}
	claim, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := duplicate.FingerprintOf(claim)

	if patch.ClaimAmount != nil && (math.IsNaN(float64(*patch.ClaimAmount)) || *patch.ClaimAmount < 0) {
		return nil, invalid("claimAmount must be a non-negative number")
	}
	applyPatch(claim, patch, true)
	if patch.RefundMethod != nil {
		if err := validateMethodFields(claim); err != nil {
			return nil, err
		}
	}

	return s.saveEdit(ctx, admin, claim, before)
}

// UpdateOwn is the branch edit of its own claim. It is allowed only while
// the claim is pending or rejected, and only for the submission fields.
// Fields that belong to a different refund method are cleared.
func (s *RefundService) UpdateOwn(ctx context.Context, user *models.User, id string, patch ClaimPatch) (*models.RefundClaim, error) {
	if user.Role != models.RoleBranch {
		return nil, forbidden("only branch accounts can edit their refunds")
	}
	claim, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if claim.SubmittedByBranch != user.BranchName {
		return nil, forbidden("you can only edit refunds submitted by your branch")
	}
	if claim.Status != models.StatusPending && claim.Status != models.StatusRejected {
		return nil, invalid("only pending or rejected refunds can be edited")
	}
	before := duplicate.FingerprintOf(claim)

	if patch.ClaimAmount != nil && (math.IsNaN(float64(*patch.ClaimAmount)) || *patch.ClaimAmount < 0) {
		return nil, invalid("claimAmount must be a non-negative number")
	}
	applyPatch(claim, patch, false)
	if err := validateMethodFields(claim); err != nil {
		return nil, err
	}

	switch claim.RefundMethod {
	case models.MethodAccount:
		claim.ReceiptDate = ""
	case models.MethodCard, models.MethodOffset:
		claim.BankName, claim.AccountNumber, claim.AccountHolder = "", "", ""
	}

	return s.saveEdit(ctx, user, claim, before)
}

func (s *RefundService) saveEdit(ctx context.Context, user *models.User, claim *models.RefundClaim, before duplicate.Fingerprint) (*models.RefundClaim, error) {
	claim.UpdatedAt = models.Timestamp(s.now())
	claim.UpdatedBy = user.Username
	claim.IsDuplicate, claim.DuplicateRefundID = false, ""

	if err := s.refunds.Save(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to save refund: %w", err)
	}

	if after := duplicate.FingerprintOf(claim); after.Key() != before.Key() {
		s.duplicates.RemoveIfOwned(ctx, claim.ID, before)
		s.duplicates.Register(ctx, claim.ID, after)
	}

	s.logger.Info("refund updated", "refund_id", claim.ID, "user", user.Username)
	return claim, nil
}

// applyPatch copies set fields onto claim. Administrator-only fields are
// applied when admin is true.
func applyPatch(claim *models.RefundClaim, p ClaimPatch, admin bool) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&claim.RefundDate, p.RefundDate)
	set(&claim.VehicleNumber, p.VehicleNumber)
	set(&claim.VIN, p.VIN)
	set(&claim.InsuranceProvider, p.InsuranceProvider)
	set(&claim.InsuranceProviderEtc, p.InsuranceProviderEtc)
	set(&claim.CompanyName, p.CompanyName)
	set(&claim.DealerName, p.DealerName)
	set(&claim.RefundMethod, p.RefundMethod)
	set(&claim.RefundReason, p.RefundReason)
	set(&claim.BankName, p.BankName)
	set(&claim.AccountNumber, p.AccountNumber)
	set(&claim.AccountHolder, p.AccountHolder)
	set(&claim.ReceiptDate, p.ReceiptDate)
	if p.ClaimAmount != nil {
		claim.ClaimAmount = float64(*p.ClaimAmount)
	}

	if !admin {
		return
	}
	set(&claim.ManagerName, p.ManagerName)
	set(&claim.OffsetReason, p.OffsetReason)
	set(&claim.Notes, p.Notes)
	if p.ReceiptPhotos != nil {
		claim.ReceiptPhotos = *p.ReceiptPhotos
	}
}

func validateMethodFields(c *models.RefundClaim) error {
	switch c.RefundMethod {
	case models.MethodAccount:
		if blank(c.AccountNumber) || blank(c.AccountHolder) || blank(c.BankName) {
			return invalid("bankName, accountNumber and accountHolder are required for account refunds")
		}
	case models.MethodCard, models.MethodOffset:
		if blank(c.ReceiptDate) {
			return invalid("receiptDate is required for card and offset refunds")
		}
	}
	return nil
}

// Process approves or rejects a pending claim.
func (s *RefundService) Process(ctx context.Context, admin *models.User, id, action, notes string) (*models.RefundClaim, error) {
	if !admin.IsAdmin() {
		return nil, forbidden("administrator privileges are required")
	}

	var to models.RefundStatus
	switch action {
	case "approve":
		to = models.StatusApproved
	case "reject":
		to = models.StatusRejected
	default:
		return nil, invalid("action must be approve or reject")
	}

	claim, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if claim.Status != models.StatusPending {
		return nil, invalid("only pending refunds can be processed; use a status change instead")
	}

	now := models.Timestamp(s.now())
	claim.Status = to
	claim.ProcessedAt = now
	claim.ProcessedBy = admin.Username
	if to == models.StatusApproved {
		claim.ApprovedAt = now
	}
	if notes != "" {
		claim.Notes = notes
	}

	if err := s.refunds.Save(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to save refund: %w", err)
	}
	s.logger.Info("refund processed", "refund_id", id, "status", to, "user", admin.Username)
	return claim, nil
}

// ChangeStatus is the administrator override: any status to any other, with
// a recorded reason.
func (s *RefundService) ChangeStatus(ctx context.Context, admin *models.User, id, toStatus, reason string) (*models.RefundClaim, error) {
	if !admin.IsAdmin() {
		return nil, forbidden("administrator privileges are required")
	}
	to := models.RefundStatus(toStatus)
	if !to.Valid() {
		return nil, invalid("invalid status %q", toStatus)
	}
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < minStatusReasonLength {
		return nil, invalid("reason must be at least %d characters", minStatusReasonLength)
	}

	claim, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := claim.Status
	if from == to {
		return nil, invalid("refund is already %s", to)
	}

	t := s.now()
	now := models.Timestamp(t)
	claim.Status = to
	claim.ProcessedAt = now
	claim.ProcessedBy = admin.Username
	claim.UpdatedAt = now
	claim.UpdatedBy = admin.Username
	if to == models.StatusApproved {
		claim.ApprovedAt = now
	}
	if from == models.StatusRejected {
		claim.AcknowledgedAt, claim.AcknowledgedBy = "", ""
	}

	if err := s.refunds.Save(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to save refund: %w", err)
	}

	entry := &models.StatusChangeLog{
		ID:            keyspace.NewID("statuslog", t),
		RefundID:      id,
		ChangedBy:     admin.Username,
		ChangedByName: admin.Name,
		ChangedAt:     now,
		FromStatus:    from,
		ToStatus:      to,
		Reason:        reason,
	}
	if err := s.statusLogs.Create(ctx, entry); err != nil {
		s.logger.Error("failed to write status change log", "refund_id", id, "error", err)
	}

	s.logger.Info("refund status changed", "refund_id", id, "from", from, "to", to, "user", admin.Username)
	return claim, nil
}

// StatusHistory returns the status overrides of a claim, newest first.
func (s *RefundService) StatusHistory(ctx context.Context, id string) ([]models.StatusChangeLog, error) {
	logs, err := s.statusLogs.ListByRefund(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	return logs, nil
}

// Acknowledge records that the owning branch has seen a rejection. Repeated
// calls return the first acknowledgment.
func (s *RefundService) Acknowledge(ctx context.Context, user *models.User, id string) (*AcknowledgeResult, error) {
	if user.Role != models.RoleBranch {
		return nil, forbidden("only branch accounts can acknowledge refunds")
	}
	claim, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if claim.SubmittedBy != user.Username && claim.SubmittedByBranch != user.BranchName {
		return nil, forbidden("you do not have access to this refund")
	}
	if claim.Status != models.StatusRejected {
		return nil, invalid("only rejected refunds can be acknowledged")
	}
	if claim.AcknowledgedAt != "" {
		return &AcknowledgeResult{
			AcknowledgedAt:      claim.AcknowledgedAt,
			AcknowledgedBy:      claim.AcknowledgedBy,
			AlreadyAcknowledged: true,
		}, nil
	}

	claim.AcknowledgedAt = models.Timestamp(s.now())
	claim.AcknowledgedBy = user.Username
	if err := s.refunds.Save(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to save refund: %w", err)
	}
	s.logger.Info("refund acknowledged", "refund_id", id, "user", user.Username)
	return &AcknowledgeResult{AcknowledgedAt: claim.AcknowledgedAt, AcknowledgedBy: claim.AcknowledgedBy}, nil
}

// Delete removes a claim, its stored files, its list entries and its
// fingerprint. Administrators may delete any claim, branch accounts only
// their own branch's.
func (s *RefundService) Delete(ctx context.Context, user *models.User, id string) (*DeleteResult, error) {
	if !user.IsAdmin() && user.Role != models.RoleBranch {
		return nil, forbidden("you cannot delete refunds")
	}
	claim, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && claim.SubmittedByBranch != user.BranchName {
		return nil, forbidden("you can only delete refunds submitted by your branch")
	}

	result := &DeleteResult{DeletedID: id, DeletedPhotos: []string{}, FailedPhotos: []string{}}
	for _, ref := range claim.BlobRefs() {
		if err := s.blobs.Delete(ctx, ref); err != nil {
			s.logger.Warn("failed to delete blob", "refund_id", id, "ref", ref, "error", err)
			result.FailedPhotos = append(result.FailedPhotos, ref)
			continue
		}
		result.DeletedPhotos = append(result.DeletedPhotos, ref)
	}

	if err := s.refunds.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete refund: %w", err)
	}
	if err := s.index.Remove(ctx, claim); err != nil {
		s.logger.Warn("failed to unlist deleted refund", "refund_id", id, "error", err)
	}
	s.duplicates.RemoveIfOwned(ctx, id, duplicate.FingerprintOf(claim))

	s.logger.Info("refund deleted", "refund_id", id, "user", user.Username,
		"photos_deleted", len(result.DeletedPhotos), "photos_failed", len(result.FailedPhotos))
	return result, nil
}

// List returns one page of claims from the global list, annotated with
// duplicate information.
func (s *RefundService) List(ctx context.Context, q index.RefundQuery) (*ListResult, error) {
	return s.list(ctx, q)
}

// ListForManager is List with the excluded branch hidden.
func (s *RefundService) ListForManager(ctx context.Context, q index.RefundQuery) (*ListResult, error) {
	q.ExcludeBranch = s.excludedBranch
	return s.list(ctx, q)
}

func (s *RefundService) list(ctx context.Context, q index.RefundQuery) (*ListResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = index.DefaultPageSize
	}

	page, err := s.index.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	claims, err := s.refunds.GetMany(ctx, page.IDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	claims = s.duplicates.Annotate(ctx, claims)

	return &ListResult{
		Refunds:    claims,
		TotalCount: page.TotalCount,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: (page.TotalCount + q.PageSize - 1) / q.PageSize,
	}, nil
}

// ListForBranch returns every claim of the user's branch, newest first.
func (s *RefundService) ListForBranch(ctx context.Context, user *models.User) ([]models.RefundClaim, error) {
	if user.Role != models.RoleBranch {
		return nil, forbidden("only branch accounts can list branch refunds")
	}
	if user.BranchName == "" {
		return nil, invalid("branch account has no branch")
	}

	ids, err := s.refunds.ListIDs(ctx, keyspace.RefundsByBranch(user.BranchName), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to list branch refunds: %w", err)
	}
	claims, err := s.refunds.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list branch refunds: %w", err)
	}

	sort.SliceStable(claims, func(i, j int) bool {
		ti, _ := claims[i].SubmittedTime()
		tj, _ := claims[j].SubmittedTime()
		return ti.After(tj)
	})
	return claims, nil
}

// Suggestions returns distinct company and dealer names from the most recent
// claims, for form autocompletion. A batch that fails to load is skipped.
func (s *RefundService) Suggestions(ctx context.Context) (companies, dealers []string) {
	companySet := make(map[string]struct{})
	dealerSet := make(map[string]struct{})

	for batch := 0; batch < suggestionMaxBatches; batch++ {
		start := int64(batch * suggestionBatchSize)
		ids, err := s.refunds.ListIDs(ctx, keyspace.RefundIndex, start, start+suggestionBatchSize-1)
		if err != nil {
			s.logger.Warn("suggestion batch failed", "batch", batch, "error", err)
			break
		}
		if len(ids) == 0 {
			break
		}

		claims, err := s.refunds.GetMany(ctx, ids)
		if err != nil {
			s.logger.Warn("suggestion batch failed", "batch", batch, "error", err)
		}
		for _, c := range claims {
			if name := strings.TrimSpace(c.CompanyName); name != "" {
				companySet[name] = struct{}{}
			}
			if name := strings.TrimSpace(c.DealerName); name != "" {
				dealerSet[name] = struct{}{}
			}
		}

		if len(ids) < suggestionBatchSize {
			break
		}
	}

	return sortedKeys(companySet), sortedKeys(dealerSet)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
