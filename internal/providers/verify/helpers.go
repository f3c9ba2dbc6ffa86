package verify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
)

type modelAnalysisPayload struct {
	AuthenticityScore flexNumber `json:"authenticityScore"`
	UrgencyLevel      string     `json:"urgencyLevel"`
	ExtractedData     struct {
		ProviderName   flexString `json:"providerName"`
		AccountNumber  flexString `json:"accountNumber"`
		AmountDue      flexString `json:"amountDue"`
		DueDate        flexString `json:"dueDate"`
		ServiceAddress flexString `json:"serviceAddress"`
		CustomerName   flexString `json:"customerName"`
	} `json:"extractedData"`
	FlaggedIssues  []string `json:"flaggedIssues"`
	Recommendation string   `json:"recommendation"`
}

// flexString accepts strings, numbers and null.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	*f = flexString(raw)
	return nil
}

// flexNumber accepts numbers and numeric strings.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
	if err != nil {
		return fmt.Errorf("authenticityScore: %w", err)
	}
	*f = flexNumber(v)
	return nil
}

var urgencyLevels = map[string]struct{}{
	"low":      {},
	"medium":   {},
	"high":     {},
	"critical": {},
}

func buildVerifyPrompt(req VerifyRequest) string {
	sb := &strings.Builder{}
	sb.WriteString("Analyse the attached utility bill image for a community assistance programme. Respond strictly with JSON matching this schema: ")
	sb.WriteString(`{"authenticityScore":number 0-100,"urgencyLevel":"low"|"medium"|"high"|"critical","extractedData":{"providerName":string,"accountNumber":string,"amountDue":string,"dueDate":string,"serviceAddress":string,"customerName":string},"flaggedIssues":string[],"recommendation":"approve"|"reject"|"review"}`)
	sb.WriteString(". Flag signs of editing, mismatched totals, missing provider details, past due dates and anything that is not a utility bill.")
	if h := req.Expected; h != nil {
		fmt.Fprintf(sb, " The recipient declared: utility_type=%q, provider=%q, account=%q, amount_due_cents=%d. Flag any mismatch.", h.UtilityType, h.ProviderName, h.AccountNumber, h.AmountDueCents)
	}
	return sb.String()
}

func toAnalysis(p modelAnalysisPayload) *domain.BillAnalysis {
	score := int(p.AuthenticityScore + 0.5)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	urgency := strings.ToLower(strings.TrimSpace(p.UrgencyLevel))
	if _, ok := urgencyLevels[urgency]; !ok {
		urgency = "unknown"
	}
	rec := strings.ToLower(strings.TrimSpace(p.Recommendation))
	switch rec {
	case domain.RecommendationApprove, domain.RecommendationReject:
	default:
		rec = domain.RecommendationReview
	}
	return &domain.BillAnalysis{
		AuthenticityScore: score,
		UrgencyLevel:      urgency,
		ExtractedData: domain.ExtractedBillData{
			ProviderName:   string(p.ExtractedData.ProviderName),
			AccountNumber:  string(p.ExtractedData.AccountNumber),
			AmountDue:      string(p.ExtractedData.AmountDue),
			DueDate:        string(p.ExtractedData.DueDate),
			ServiceAddress: string(p.ExtractedData.ServiceAddress),
			CustomerName:   string(p.ExtractedData.CustomerName),
		},
		FlaggedIssues:  normalizeIssues(p.FlaggedIssues),
		Recommendation: rec,
	}
}

func normalizeIssues(issues []string) []string {
	seen := make(map[string]struct{})
	result := []string{}
	for _, issue := range issues {
		issue = strings.TrimSpace(issue)
		if issue == "" {
			continue
		}
		key := strings.ToLower(issue)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, issue)
	}
	return result
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

func parseModelPayload[T any](raw string) (T, error) {
	var zero T
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	var decoded T
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
