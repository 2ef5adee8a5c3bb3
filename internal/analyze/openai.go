package analyze

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/claimlens/claimlens/internal/model"
)

const extractionInstruction = `You are a medical claims document analyst. Extract the content of the document into a single JSON object with these top-level keys where applicable: document_descriptor (probable_document_type, issuing_entity), cashless_assessment (has_final_or_discharge_approval, approval_stage, approved_procedures, approved_amount), payer_details (payer_name, payer_id, policy_number, tpa_name), hospital_details (hospital_name, hospital_id), patient_details (name, patient_id, date_of_birth, gender), claim_information (admission_details with admission_date and discharge_date), clinical_summary (diagnosis, procedures_performed, surgery_performed, discharge_condition), financial_summary (total_claimed_amount, invoice_date, line_items with item_name, item_code, category, date_of_service, units, unit_price, total_price, requires_proof, is_implant, icd11_code, cghs_code), supporting_documents (discharge_summary, final_bill, lab_reports, radiology_reports, pharmacy_bills, surgery_notes, death_summary as booleans), approval_dates (from, to). Dates are YYYY-MM-DD. Reply with JSON only, no prose and no markdown fences.`

// OpenAIAnalyzer sends document content to a chat completion and
// parses the strict-JSON reply into an extraction tree.
type OpenAIAnalyzer struct {
	client *openai.Client
	cfg    model.AnalysisConfig
}

// NewOpenAIAnalyzer creates the OpenAI-backed analyzer.
func NewOpenAIAnalyzer(cfg model.AnalysisConfig) (*OpenAIAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("analysis API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIAnalyzer{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// Analyze runs one document through the analysis model. A reply that
// is not valid JSON yields a minimal extraction together with
// ErrMalformed so the caller can keep the document with a note.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, doc Document) (model.DocumentExtraction, error) {
	mdl := a.cfg.Model
	if mdl == "" {
		mdl = openai.GPT4oMini
	}

	timeout := a.cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: mdl,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: extractionInstruction,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Document %q:\n\n%s", doc.Name, string(doc.Content)),
			},
		},
		Temperature: 0,
	}

	resp, err := a.client.CreateChatCompletion(ctxWithTimeout, req)
	if err != nil {
		return model.DocumentExtraction{}, fmt.Errorf("analysis API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return MinimalExtraction(doc.Name), fmt.Errorf("%w: empty reply", ErrMalformed)
	}

	body := stripFences(resp.Choices[0].Message.Content)
	root, err := model.FromJSON([]byte(body))
	if err != nil {
		return MinimalExtraction(doc.Name), fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return model.DocumentExtraction{FileName: doc.Name, Root: root}, nil
}

// stripFences removes markdown code fences some models wrap around
// JSON despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
