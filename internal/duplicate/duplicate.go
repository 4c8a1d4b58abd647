// Package duplicate detects refund claims that share a vehicle, company,
// refund method and amount with another live claim.
//
// Each fingerprint maps to a single claim id: the most recently registered
// one. Lookups are best effort. Store failures are logged and reported as
// "no duplicate" so that claim creation is never blocked by this index.
package duplicate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode"

	"refund-service/internal/keyspace"
	"refund-service/internal/kv"
	"refund-service/internal/models"
)

// Fingerprint is the tuple that defines duplicate identity.
type Fingerprint struct {
	VehicleNumber string
	CompanyName   string
	RefundMethod  string
	ClaimAmount   float64
}

// FingerprintOf extracts the tuple from a claim. Only CompanyName counts as
// the company; the legacy InsuranceCompany field never participates.
func FingerprintOf(c *models.RefundClaim) Fingerprint {
	return Fingerprint{
		VehicleNumber: c.VehicleNumber,
		CompanyName:   c.CompanyName,
		RefundMethod:  c.RefundMethod,
		ClaimAmount:   c.ClaimAmount,
	}
}

// Complete reports whether every field is set. Incomplete claims are never
// annotated.
func (f Fingerprint) Complete() bool {
	return f.VehicleNumber != "" && f.CompanyName != "" && f.RefundMethod != "" && f.ClaimAmount != 0
}

// Key derives the persisted fingerprint key. Existing pointers were written
// with the same normalisation, so it must not drift. Case folding matches
// for Hangul, ASCII and Latin-1; other letters whose uppercase form is more
// than one rune (ligatures, some Greek) keep Go's single-rune mapping.
func (f Fingerprint) Key() string {
	normalized := strings.Join([]string{
		upper(stripSpace(f.VehicleNumber)),
		upper(stripSpace(f.CompanyName)),
		strings.ToLower(f.RefundMethod),
		formatAmount(f.ClaimAmount),
	}, "|")

	sum := sha256.Sum256([]byte(normalized))
	return keyspace.DuplicatePrefix + hex.EncodeToString(sum[:])
}

// GenerateKey is Key for callers holding loose fields.
func GenerateKey(vehicleNumber, companyName, refundMethod string, claimAmount float64) string {
	return Fingerprint{vehicleNumber, companyName, refundMethod, claimAmount}.Key()
}

// stripSpace removes every rune ECMAScript's \s matches. That is Unicode
// White_Space plus the BOM, minus NEL (U+0085).
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\u0085' {
			return r
		}
		if unicode.IsSpace(r) || r == '\uFEFF' {
			return -1
		}
		return r
	}, s)
}

var sharpS = strings.NewReplacer("ß", "SS")

func upper(s string) string {
	return sharpS.Replace(strings.ToUpper(s))
}

// formatAmount renders the shortest decimal that round-trips, switching to
// exponent form outside [1e-6, 1e21): 100000, 1.5, 5e-7, 1e+21.
func formatAmount(v float64) string {
	switch {
	case v == 0:
		return "0"
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	if abs := math.Abs(v); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")
	digits := strings.TrimLeft(exp[1:], "0")
	return mantissa + "e" + exp[:1] + digits
}

// Index maintains fingerprint -> claim id pointers.
type Index struct {
	store  kv.Store
	logger *slog.Logger
}

func NewIndex(store kv.Store, logger *slog.Logger) *Index {
	return &Index{store: store, logger: logger}
}

// Check returns the id of a live claim registered under f, or "" when there
// is none, the company name is empty, or the store fails. A pointer to a
// claim that no longer exists is deleted.
func (ix *Index) Check(ctx context.Context, f Fingerprint) string {
	if f.CompanyName == "" {
		return ""
	}

	key := f.Key()
	raw, err := ix.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return ""
	}
	if err != nil {
		ix.logger.Error("duplicate check failed", "key", key, "error", err)
		return ""
	}

	existingID := string(raw)
	_, err = ix.store.Get(ctx, keyspace.Refund(existingID))
	switch {
	case err == nil:
		ix.logger.Info("duplicate refund detected", "existing_refund_id", existingID, "key", key)
		return existingID
	case errors.Is(err, kv.ErrNotFound):
		if err := ix.store.Delete(ctx, key); err != nil {
			ix.logger.Warn("failed to prune stale duplicate key", "key", key, "error", err)
		}
		return ""
	default:
		ix.logger.Error("duplicate check failed", "key", key, "error", err)
		return ""
	}
}

// Register points f at claimID with no expiry, replacing any previous
// pointer. Failures are logged only.
func (ix *Index) Register(ctx context.Context, claimID string, f Fingerprint) {
	if f.CompanyName == "" {
		return
	}
	key := f.Key()
	if err := ix.store.Set(ctx, key, []byte(claimID)); err != nil {
		ix.logger.Error("failed to register duplicate key", "refund_id", claimID, "key", key, "error", err)
		return
	}
	ix.logger.Debug("registered duplicate key", "refund_id", claimID, "key", key)
}

// Remove deletes the pointer for f. Failures are logged only.
func (ix *Index) Remove(ctx context.Context, f Fingerprint) {
	if f.CompanyName == "" {
		return
	}
	key := f.Key()
	if err := ix.store.Delete(ctx, key); err != nil {
		ix.logger.Error("failed to remove duplicate key", "key", key, "error", err)
		return
	}
	ix.logger.Debug("removed duplicate key", "key", key)
}

// RemoveIfOwned deletes the pointer for f only while it still names
// claimID, so a newer claim's pointer survives an edit of an older one.
func (ix *Index) RemoveIfOwned(ctx context.Context, claimID string, f Fingerprint) {
	if f.CompanyName == "" {
		return
	}
	key := f.Key()
	raw, err := ix.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return
	}
	if err != nil {
		ix.logger.Error("failed to read duplicate key", "key", key, "error", err)
		return
	}
	if string(raw) != claimID {
		return
	}
	ix.Remove(ctx, f)
}

// Annotate flags every claim whose fingerprint points at a different claim.
// All pointers are fetched in one batch. On store failure the claims are
// returned unannotated.
func (ix *Index) Annotate(ctx context.Context, claims []models.RefundClaim) []models.RefundClaim {
	if len(claims) == 0 {
		return claims
	}

	keys := make([]string, 0, len(claims))
	positions := make([]int, 0, len(claims))
	for i := range claims {
		f := FingerprintOf(&claims[i])
		if !f.Complete() {
			continue
		}
		keys = append(keys, f.Key())
		positions = append(positions, i)
	}
	if len(keys) == 0 {
		return claims
	}

	pointers, err := ix.store.BatchGet(ctx, keys)
	if err != nil {
		ix.logger.Error("duplicate check for list failed", "error", err)
		return claims
	}

	out := make([]models.RefundClaim, len(claims))
	copy(out, claims)

	flagged := 0
	for j, pos := range positions {
		if pointers[j] == nil {
			continue
		}
		other := string(pointers[j])
		if other == out[pos].ID {
			continue
		}
		out[pos].IsDuplicate = true
		out[pos].DuplicateRefundID = other
		flagged++
	}

	ix.logger.Debug("duplicate check for list", "duplicates", flagged, "total", len(claims))
	return out
}
