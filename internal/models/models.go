package models

import "time"

// RefundStatus is the review state of a refund claim or work log.
type RefundStatus string

const (
	StatusPending  RefundStatus = "pending"
	StatusApproved RefundStatus = "approved"
	StatusRejected RefundStatus = "rejected"
)

// Valid reports whether s is one of the three known states.
func (s RefundStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Claim submission types
const (
	RefundTypeSingle  = "single"
	RefundTypeBulk    = "bulk"
	RefundTypeBundled = "bundled"
)

// Refund methods
const (
	MethodCard    = "card"
	MethodAccount = "account"
	MethodOffset  = "offset"
)

// InsuranceProviderOther marks a free-text provider in InsuranceProviderEtc.
const InsuranceProviderOther = "기타(직접입력)"

// RefundClaim is the canonical refund record stored under refund:<id>.
type RefundClaim struct {
	ID                string       `json:"id"`
	Type              string       `json:"type,omitempty"`
	Status            RefundStatus `json:"status"`
	SubmittedAt       string       `json:"submittedAt"`
	SubmittedBy       string       `json:"submittedBy"`
	SubmittedByName   string       `json:"submittedByName,omitempty"`
	SubmittedByBranch string       `json:"submittedByBranch,omitempty"`

	// Computed on read, never persisted meaningfully.
	IsDuplicate       bool   `json:"isDuplicate,omitempty"`
	DuplicateRefundID string `json:"duplicateRefundId,omitempty"`

	RefundDate           string  `json:"refundDate,omitempty"`
	VehicleNumber        string  `json:"vehicleNumber,omitempty"`
	VIN                  string  `json:"vin,omitempty"`
	InsuranceProvider    string  `json:"insuranceProvider,omitempty"`
	InsuranceProviderEtc string  `json:"insuranceProviderEtc,omitempty"`
	InsuranceCompany     string  `json:"insuranceCompany,omitempty"` // legacy name of CompanyName
	CompanyName          string  `json:"companyName,omitempty"`
	DealerName           string  `json:"dealerName,omitempty"`
	ManagerName          string  `json:"managerName,omitempty"`
	RefundMethod         string  `json:"refundMethod,omitempty"`
	ClaimAmount          float64 `json:"claimAmount,omitempty"`
	RefundReason         string  `json:"refundReason,omitempty"`

	BankName      string `json:"bankName,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	AccountHolder string `json:"accountHolder,omitempty"`

	ReceiptDate  string `json:"receiptDate,omitempty"`
	OffsetReason string `json:"offsetReason,omitempty"`

	ReceiptPhotos []string `json:"receiptPhotos,omitempty"`
	ExcelFile     string   `json:"excelFile,omitempty"`
	BundledPhotos []string `json:"bundledPhotos,omitempty"`

	ProcessedAt string `json:"processedAt,omitempty"`
	ProcessedBy string `json:"processedBy,omitempty"`
	ApprovedAt  string `json:"approvedAt,omitempty"`
	Notes       string `json:"notes,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
	UpdatedBy   string `json:"updatedBy,omitempty"`

	AcknowledgedAt string `json:"acknowledgedAt,omitempty"`
	AcknowledgedBy string `json:"acknowledgedBy,omitempty"`
}

// Company returns CompanyName, falling back to the legacy InsuranceCompany.
func (r *RefundClaim) Company() string {
	if r.CompanyName != "" {
		return r.CompanyName
	}
	return r.InsuranceCompany
}

// BlobRefs lists every stored file the claim references.
func (r *RefundClaim) BlobRefs() []string {
	refs := make([]string, 0, len(r.ReceiptPhotos)+len(r.BundledPhotos)+1)
	refs = append(refs, r.ReceiptPhotos...)
	refs = append(refs, r.BundledPhotos...)
	if r.ExcelFile != "" {
		refs = append(refs, r.ExcelFile)
	}
	return refs
}

// SubmittedTime parses SubmittedAt. ok is false for malformed timestamps.
func (r *RefundClaim) SubmittedTime() (t time.Time, ok bool) {
	t, err := time.Parse(time.RFC3339Nano, r.SubmittedAt)
	return t, err == nil
}

// WorkLog is a branch's daily work record stored under worklog:<id>.
type WorkLog struct {
	ID                    string       `json:"id"`
	Date                  string       `json:"date"` // YYYY-MM-DD
	AuthorRole            string       `json:"authorRole"`
	AuthorID              string       `json:"authorId"`
	AuthorName            string       `json:"authorName"`
	BranchID              string       `json:"branchId,omitempty"`
	Note                  string       `json:"note,omitempty"`
	PhotoURLs             []string     `json:"photoUrls"`
	WorklogPasteImageURLs []string     `json:"worklogPasteImageUrls,omitempty"`
	CreatedAt             string       `json:"createdAt"`
	Status                RefundStatus `json:"status,omitempty"`
	StatusUpdatedAt       string       `json:"statusUpdatedAt,omitempty"`
	CommanderComment      string       `json:"commanderComment,omitempty"`
	CommanderCommentAt    string       `json:"commanderCommentAt,omitempty"`
}

// BlobRefs lists every stored file the work log references.
func (w *WorkLog) BlobRefs() []string {
	refs := make([]string, 0, len(w.PhotoURLs)+len(w.WorklogPasteImageURLs))
	refs = append(refs, w.PhotoURLs...)
	return append(refs, w.WorklogPasteImageURLs...)
}

// StatusChangeLog is the audit record written by an administrator override.
type StatusChangeLog struct {
	ID            string       `json:"id"`
	RefundID      string       `json:"refundId"`
	ChangedBy     string       `json:"changedBy"`
	ChangedByName string       `json:"changedByName"`
	ChangedAt     string       `json:"changedAt"`
	FromStatus    RefundStatus `json:"fromStatus"`
	ToStatus      RefundStatus `json:"toStatus"`
	Reason        string       `json:"reason"`
}

// Role constants
const (
	RoleCommander     = "COMMANDER"
	RoleStaff         = "STAFF"
	RoleBranch        = "BRANCH"
	RoleMiddleManager = "MIDDLE_MANAGER"
)

// User is the authenticated identity carried by a session.
type User struct {
	Username           string `json:"username"`
	Role               string `json:"role"`
	Name               string `json:"name"`
	BranchName         string `json:"branchName,omitempty"`
	MustChangePassword bool   `json:"mustChangePassword,omitempty"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleCommander }

// StoredCredential is the persisted login record under user:<username>.
type StoredCredential struct {
	Password           string `json:"password"`
	Role               string `json:"role"`
	Name               string `json:"name"`
	BranchName         string `json:"branchName,omitempty"`
	MustChangePassword bool   `json:"mustChangePassword,omitempty"`
}

// Timestamp formats t the way every stored timestamp is written.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
