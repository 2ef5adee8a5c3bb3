package model

import (
	"fmt"
	"strings"
	"time"
)

// Severity levels for discrepancies found during checks.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Discrepancy records a single mismatch surfaced by a check.
type Discrepancy struct {
	Category      string `json:"category"`
	Field         string `json:"field"`
	ExpectedValue string `json:"expected_value"`
	ActualValue   string `json:"actual_value"`
	Severity      string `json:"severity"`
	Description   string `json:"description"`
	Source        string `json:"source,omitempty"`
}

// LineItem is a billed invoice entry in typed form.
type LineItem struct {
	ItemName       string  `json:"item_name"`
	NormalizedName string  `json:"normalized_name,omitempty"`
	ItemCode       string  `json:"item_code,omitempty"`
	Category       string  `json:"category,omitempty"`
	DateOfService  string  `json:"date_of_service,omitempty"`
	Units          float64 `json:"units,omitempty"`
	UnitPrice      float64 `json:"unit_price,omitempty"`
	TotalPrice     float64 `json:"total_price"`
	RequiresProof  bool    `json:"requires_proof,omitempty"`
	ProofIncluded  *bool   `json:"proof_included,omitempty"`
	ProofAccurate  *bool   `json:"proof_accurate,omitempty"`
	IsImplant      bool    `json:"is_implant,omitempty"`
	ICD11Code      string  `json:"icd11_code,omitempty"`
	CGHSCode       string  `json:"cghs_code,omitempty"`
}

// IdentityKey is the dedup key for line items merged across documents:
// two entries with the same code, name, service date and price are the
// same billed item.
func (li LineItem) IdentityKey() string {
	return strings.ToLower(fmt.Sprintf("%s|%s|%s|%.2f",
		li.ItemCode, li.ItemName, li.DateOfService, li.TotalPrice))
}

// LineItemFromValue reads a line-item-shaped mapping into typed form,
// tolerating the field-name aliases seen across analysis outputs.
func LineItemFromValue(v Value) (LineItem, bool) {
	m, ok := v.AsMap()
	if !ok {
		return LineItem{}, false
	}
	firstString := func(keys ...string) string {
		for _, k := range keys {
			if s, ok := m[k]; ok {
				if str, ok := s.AsString(); ok && str != "" {
					return str
				}
			}
		}
		return ""
	}
	firstNumber := func(keys ...string) float64 {
		for _, k := range keys {
			f, ok := v.NumberAt(k)
			if ok {
				return f
			}
		}
		return 0
	}
	boolPtr := func(keys ...string) *bool {
		for _, k := range keys {
			if child, ok := m[k]; ok {
				if b, ok := child.AsBool(); ok {
					return &b
				}
			}
		}
		return nil
	}

	li := LineItem{
		ItemName:       firstString("item_name", "name", "description"),
		NormalizedName: firstString("normalized_name"),
		ItemCode:       firstString("item_code", "code"),
		Category:       firstString("category", "type"),
		DateOfService:  firstString("date_of_service", "date"),
		Units:          firstNumber("units", "quantity"),
		UnitPrice:      firstNumber("unit_price"),
		TotalPrice:     firstNumber("total_price", "price", "total_cost", "amount"),
		ProofIncluded:  boolPtr("proof_included", "proof_available", "report_enclosed"),
		ProofAccurate:  boolPtr("proof_accurate"),
		ICD11Code:      firstString("icd11_code"),
		CGHSCode:       firstString("cghs_code"),
	}
	if b, ok := m["is_implant"]; ok {
		li.IsImplant, _ = b.AsBool()
	}
	if li.ItemName == "" && li.ItemCode == "" {
		return LineItem{}, false
	}
	return li, true
}

// TariffEntry is one row of the agreed price reference.
type TariffEntry struct {
	ItemCode    string  `json:"item_code"`
	ItemName    string  `json:"item_name"`
	TariffPrice float64 `json:"tariff_price"`
	HospitalID  string  `json:"hospital_id,omitempty"`
	PayerID     string  `json:"payer_id,omitempty"`
}

// MergedClaim is the canonical claim record built from all categorized
// document extractions.
type MergedClaim struct {
	Insurer   Value      `json:"insurer"`
	Approval  Value      `json:"approval"`
	Hospital  Value      `json:"hospital"`
	LineItems []LineItem `json:"line_items"`
}

// ApprovalMissing reports whether no approval document contributed to
// the merge.
func (mc *MergedClaim) ApprovalMissing() bool {
	return mc.Approval.BoolAt("approval_missing")
}

// ClaimStatus is the lifecycle state of a claim run.
type ClaimStatus string

const (
	StatusProcessing ClaimStatus = "processing"
	StatusCompleted  ClaimStatus = "completed"
	StatusFailed     ClaimStatus = "failed"
)

// Claim is the stored record for one processing run.
type Claim struct {
	ID          string                  `json:"id"`
	ClaimNumber string                  `json:"claim_number"`
	SessionID   string                  `json:"session_id"`
	Status      ClaimStatus             `json:"status"`
	CreatedAt   time.Time               `json:"created_at"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
	Error       string                  `json:"error,omitempty"`
	Notes       []string                `json:"notes,omitempty"`
	Results     map[string]*CheckResult `json:"results,omitempty"`
	Score       *ScoreBreakdown         `json:"score,omitempty"`
	Report      *FinalReport            `json:"report,omitempty"`
}

// Transition moves the claim to a terminal state. Only processing claims
// transition; terminal states absorb further attempts.
func (c *Claim) Transition(to ClaimStatus) bool {
	if c.Status != StatusProcessing {
		return false
	}
	c.Status = to
	now := time.Now().UTC()
	c.CompletedAt = &now
	return true
}
