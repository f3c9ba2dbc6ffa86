package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
)

const (
	staticProviderName = "static"
	openAIProviderName = "openai"
)

// BillHints are the values the recipient typed in, used to cross-check the image.
type BillHints struct {
	UtilityType    string `json:"utilityType,omitempty"`
	ProviderName   string `json:"providerName,omitempty"`
	AccountNumber  string `json:"accountNumber,omitempty"`
	AmountDueCents int64  `json:"amountDueCents,omitempty"`
}

// VerifyRequest asks for one bill image to be analysed.
type VerifyRequest struct {
	ImageURL string     `json:"imageUrl"`
	BillID   string     `json:"billId"`
	Expected *BillHints `json:"expected,omitempty"`
}

// VerifyResponse carries the analysis. Success is false when the analysis was
// synthesised after a provider failure.
type VerifyResponse struct {
	Success  bool                 `json:"success"`
	Analysis *domain.BillAnalysis `json:"analysis"`
	Reason   string               `json:"reason,omitempty"`
}

// Verifier analyses bill images.
type Verifier interface {
	Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error)
	Name() string
}

// New builds the verifier named by provider. An empty provider picks openai when a
// key source is configured and static otherwise.
func New(provider string, opts OpenAIOptions) (Verifier, error) {
	name := strings.ToLower(strings.TrimSpace(provider))
	if name == "" {
		if strings.TrimSpace(opts.APIKey) != "" || opts.KeyFunc != nil {
			name = openAIProviderName
		} else {
			name = staticProviderName
		}
	}
	switch name {
	case staticProviderName:
		return NewStaticVerifier(), nil
	case openAIProviderName:
		return NewOpenAIVerifier(opts)
	default:
		return nil, fmt.Errorf("unknown verify provider %q", provider)
	}
}

// StaticVerifier never calls out; every bill is routed to manual review.
type StaticVerifier struct {
	now func() time.Time
}

func NewStaticVerifier() *StaticVerifier {
	return &StaticVerifier{now: time.Now}
}

func (s *StaticVerifier) Name() string { return staticProviderName }

func (s *StaticVerifier) Verify(_ context.Context, req VerifyRequest) (*VerifyResponse, error) {
	analysis := &domain.BillAnalysis{
		AuthenticityScore: 0,
		UrgencyLevel:      "unknown",
		FlaggedIssues:     []string{"Automated verification is not configured; manual review required"},
		Recommendation:    domain.RecommendationReview,
		Provider:          staticProviderName,
		AnalyzedAt:        s.now().UTC(),
	}
	if req.Expected != nil {
		analysis.ExtractedData.ProviderName = req.Expected.ProviderName
		analysis.ExtractedData.AccountNumber = req.Expected.AccountNumber
	}
	return &VerifyResponse{Success: true, Analysis: analysis}, nil
}

var _ Verifier = (*StaticVerifier)(nil)
