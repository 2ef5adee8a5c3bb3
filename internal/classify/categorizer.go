// Package classify routes document extractions into the approval,
// insurer or hospital partition ahead of merging.
package classify

import (
	"strings"

	"github.com/claimlens/claimlens/internal/model"
)

var approvalKeywords = []string{
	"approval", "authorization", "pre-auth", "preauth",
	"referral", "sanction", "clearance",
}

var insurerKeywords = []string{
	"insurer", "insurance", "policy", "coverage",
}

// Categorizer assigns a role to each extraction. Classification is
// total: every document lands in exactly one bucket, hospital being the
// default.
type Categorizer struct{}

// New returns a Categorizer.
func New() *Categorizer { return &Categorizer{} }

// Categorize partitions the extractions by role.
func (c *Categorizer) Categorize(docs []model.DocumentExtraction) map[model.Role][]model.DocumentExtraction {
	buckets := make(map[model.Role][]model.DocumentExtraction)
	for _, doc := range docs {
		role := c.Classify(doc)
		buckets[role] = append(buckets[role], doc)
	}
	return buckets
}

// Classify decides the role of one extraction. Signals are checked in
// order of reliability: the structured cashless assessment first, then
// the declared document type, then keyword scanning over all text.
func (c *Categorizer) Classify(doc model.DocumentExtraction) model.Role {
	root := doc.Root

	if root.BoolAt("cashless_assessment.has_final_or_discharge_approval") {
		return model.RoleApproval
	}
	if stage := root.StringAt("cashless_assessment.approval_stage"); stage != "" && !strings.EqualFold(stage, "none") {
		return model.RoleApproval
	}

	docType := strings.ToLower(root.StringAt("document_descriptor.probable_document_type"))
	if docType != "" {
		for _, kw := range []string{"approval", "authorization", "referral"} {
			if strings.Contains(docType, kw) {
				return model.RoleApproval
			}
		}
	}

	text := root.CollectText()
	for _, kw := range approvalKeywords {
		if strings.Contains(text, kw) {
			return model.RoleApproval
		}
	}
	for _, kw := range insurerKeywords {
		if strings.Contains(text, kw) {
			return model.RoleInsurer
		}
	}

	return model.RoleHospital
}
