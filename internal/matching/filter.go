// Package matching holds the in-process predicates applied to entities
// fetched during a windowed index scan.
package matching

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"refund-service/internal/models"
)

const (
	// FilterAll disables a status, method or reason filter.
	FilterAll = "all"

	dateLayout = "2006-01-02"

	// endOfDay extends a To date to 23:59:59.999.
	endOfDay = 24*time.Hour - time.Millisecond
)

// DateField selects which claim timestamp a date range applies to.
type DateField int

const (
	BySubmittedAt DateField = iota
	ByRefundDate
)

// Acknowledgment is the tri-state acknowledgment filter.
type Acknowledgment string

const (
	AckAny     Acknowledgment = ""
	AckOnly    Acknowledgment = "acknowledged"
	AckPending Acknowledgment = "unacknowledged"
)

// ParseAcknowledgment accepts "", "all", "acknowledged" and "unacknowledged".
func ParseAcknowledgment(s string) (Acknowledgment, error) {
	switch s {
	case "", FilterAll:
		return AckAny, nil
	case string(AckOnly), string(AckPending):
		return Acknowledgment(s), nil
	}
	return AckAny, fmt.Errorf("invalid acknowledged filter %q", s)
}

// ParseDate parses a YYYY-MM-DD calendar day in UTC. The empty string yields
// the zero time, which leaves that side of a range unbounded.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// RefundFilter is the AND-combined claim filter. Zero fields match anything.
type RefundFilter struct {
	Status        string
	From          time.Time // first day included, 00:00 UTC
	To            time.Time // last day included, through 23:59:59.999 UTC
	DateField     DateField
	Submitter     string
	CompanyName   string
	VehicleNumber string
	RefundMethod  string
	RefundReason  string
	MinAmount     *float64
	MaxAmount     *float64
	Acknowledged  Acknowledgment
}

// IsZero reports whether the filter matches every claim.
func (f *RefundFilter) IsZero() bool {
	return active(f.Status) == "" &&
		f.From.IsZero() && f.To.IsZero() &&
		f.Submitter == "" &&
		f.CompanyName == "" &&
		f.VehicleNumber == "" &&
		active(f.RefundMethod) == "" &&
		active(f.RefundReason) == "" &&
		f.MinAmount == nil && f.MaxAmount == nil &&
		f.Acknowledged == AckAny
}

// Match reports whether c satisfies every set criterion.
func (f *RefundFilter) Match(c *models.RefundClaim) bool {
	if s := active(f.Status); s != "" && string(c.Status) != s {
		return false
	}

	if !f.From.IsZero() || !f.To.IsZero() {
		t, ok := f.claimTime(c)
		if !ok {
			return false
		}
		if !f.From.IsZero() && t.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && t.After(f.To.Add(endOfDay)) {
			return false
		}
	}

	if f.Submitter != "" && c.SubmittedBy != f.Submitter {
		return false
	}

	if f.CompanyName != "" &&
		!strings.Contains(strings.ToLower(c.Company()), strings.ToLower(f.CompanyName)) {
		return false
	}

	if f.VehicleNumber != "" &&
		!strings.Contains(NormalizeVehicle(c.VehicleNumber), NormalizeVehicle(f.VehicleNumber)) {
		return false
	}

	if m := active(f.RefundMethod); m != "" && c.RefundMethod != m {
		return false
	}
	if r := active(f.RefundReason); r != "" && c.RefundReason != r {
		return false
	}

	if f.MinAmount != nil && c.ClaimAmount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && c.ClaimAmount > *f.MaxAmount {
		return false
	}

	switch f.Acknowledged {
	case AckOnly:
		if c.AcknowledgedAt == "" {
			return false
		}
	case AckPending:
		if c.Status != models.StatusRejected || c.AcknowledgedAt != "" {
			return false
		}
	}

	return true
}

func (f *RefundFilter) claimTime(c *models.RefundClaim) (time.Time, bool) {
	if f.DateField == ByRefundDate {
		return parseLoose(c.RefundDate)
	}
	return c.SubmittedTime()
}

// parseLoose accepts a bare day or a full timestamp.
func parseLoose(s string) (time.Time, bool) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	return t, err == nil
}

// NormalizeVehicle strips whitespace and hyphens and lowercases, so that
// "12가-3456" and "12가 3456" compare equal.
func NormalizeVehicle(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToLower(s))
}

func active(v string) string {
	if v == FilterAll {
		return ""
	}
	return v
}

// WorkLogFilter is the work-log filter: a branch exclusion and an inclusive
// YYYY-MM-DD range compared as strings.
type WorkLogFilter struct {
	ExcludeBranch string
	From          string
	To            string
}

// IsZero reports whether the filter matches every work log.
func (f *WorkLogFilter) IsZero() bool {
	return f.ExcludeBranch == "" && f.From == "" && f.To == ""
}

// Match reports whether w passes. Work logs without a date never match a
// non-zero filter.
func (f *WorkLogFilter) Match(w *models.WorkLog) bool {
	if f.ExcludeBranch != "" && w.BranchID == f.ExcludeBranch {
		return false
	}
	if w.Date == "" {
		return false
	}
	if f.From != "" && w.Date < f.From {
		return false
	}
	if f.To != "" && w.Date > f.To {
		return false
	}
	return true
}
