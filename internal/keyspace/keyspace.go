// Package keyspace names every key the service reads or writes.
package keyspace

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	RefundIndex  = "refunds:index"
	WorkLogIndex = "worklogs:index"

	// DuplicatePrefix namespaces duplicate-detection fingerprints.
	DuplicatePrefix = "refund:dup:"
)

func Refund(id string) string { return "refund:" + id }

func RefundsByBranch(branch string) string { return "refunds:branch:" + branch }

func WorkLog(id string) string { return "worklog:" + id }

func WorkLogsByBranch(branch string) string { return "worklogs:branch:" + branch }

func Session(id string) string { return "session:" + id }

func User(username string) string { return "user:" + username }

// StatusLog is keyed by the refund and the log id, so two changes in the
// same millisecond stay distinct.
func StatusLog(refundID, logID string) string {
	return "status-log:" + refundID + ":" + logID
}

func StatusLogList(refundID string) string { return "status-logs:" + refundID }

// RefundKeys maps ids to entity keys, preserving order.
func RefundKeys(ids []string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = Refund(id)
	}
	return keys
}

// WorkLogKeys maps ids to entity keys, preserving order.
func WorkLogKeys(ids []string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = WorkLog(id)
	}
	return keys
}

// NewID returns an entity id of the form <prefix>_<unix millis>_<8 hex>.
func NewID(prefix string, now time.Time) string {
	return prefix + "_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + uuid.NewString()[:8]
}
