package model

// Role is the pipeline bucket a document is routed to after
// categorization.
type Role string

const (
	RoleApproval Role = "approval"
	RoleInsurer  Role = "insurer"
	RoleHospital Role = "hospital"
)

// DocumentExtraction is the structured analysis output for one claim
// document. Root is the opaque extraction tree; its shape follows the
// analysis schema but is never guaranteed.
type DocumentExtraction struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name"`
	Root       Value  `json:"extraction"`
}
