// Package extraction turns a stored email into validated EmailFacts via the
// external text-understanding provider.
package extraction

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/inbox-tracker/internal/db"
	"github.com/jonathan/inbox-tracker/internal/llm"
	"github.com/jonathan/inbox-tracker/internal/prompts"
	"github.com/jonathan/inbox-tracker/internal/schemas"
	"github.com/jonathan/inbox-tracker/internal/types"
)

// FactsStore persists accepted facts into the email's extracted-data side
// channel. Implemented by *db.DB.
type FactsStore interface {
	MergeExtracted(ctx context.Context, emailID uuid.UUID, key string, value any) error
}

// FailureStage distinguishes the two extraction failure classes in diagnostics.
type FailureStage string

// Extraction failure stages.
const (
	StageProvider FailureStage = "provider"
	StageContract FailureStage = "contract"
)

// Failure describes why an extraction did not produce facts. RawResponse is
// recorded for diagnostics; it is never persisted as partial facts.
type Failure struct {
	Stage       FailureStage `json:"stage"`
	Message     string       `json:"message"`
	RawResponse string       `json:"raw_response,omitempty"`
}

// Result is the outcome of one extraction attempt
type Result struct {
	Success bool              `json:"success"`
	Facts   *types.EmailFacts `json:"facts,omitempty"`
	Failure *Failure          `json:"failure,omitempty"`
}

// Extractor runs LLM-backed facts extraction for emails
type Extractor struct {
	client llm.Client
	store  FactsStore
	tier   llm.ModelTier
}

// NewExtractor creates an Extractor. A nil store disables persistence, used by
// callers that only need the parsed facts.
func NewExtractor(client llm.Client, store FactsStore) *Extractor {
	return &Extractor{
		client: client,
		store:  store,
		tier:   llm.TierStandard,
	}
}

// WithTier overrides the model tier used for extraction
func (e *Extractor) WithTier(tier llm.ModelTier) *Extractor {
	e.tier = tier
	return e
}

// forwardedSubject reports whether the subject line carries a forwarding
// prefix. Forwarded threads bury the signal under quoted headers and earlier
// replies, so they get the advanced tier.
func forwardedSubject(subject string) bool {
	s := strings.ToLower(strings.TrimSpace(subject))
	return strings.HasPrefix(s, "fwd:") || strings.HasPrefix(s, "fw:")
}

// buildPrompt constructs the canonical extraction prompt for an email
func buildPrompt(subject, from, body string) string {
	template := prompts.MustGet("extraction.json", "extract-email-facts")
	return prompts.Format(template, map[string]string{
		"Subject": subject,
		"From":    from,
		"Body":    body,
	})
}

// Extract invokes the provider on the email's canonical body, validates the
// response against the EmailFacts contract, and on success persists the facts
// additively under the email_facts_v1 key. Extraction failures are returned
// as a Failure result, never as partial facts; the returned error is reserved
// for persistence problems.
func (e *Extractor) Extract(ctx context.Context, emailID uuid.UUID, subject, from, body string) (*Result, error) {
	prompt := buildPrompt(subject, from, body)

	tier := e.tier
	if tier == llm.TierStandard && forwardedSubject(subject) {
		tier = llm.TierAdvanced
	}

	raw, err := e.client.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		return &Result{
			Success: false,
			Failure: &Failure{
				Stage:   StageProvider,
				Message: (&ProviderError{Message: "extraction call failed", Cause: err}).Error(),
			},
		}, nil
	}

	cleaned := llm.CleanJSONBlock(raw)

	if err := schemas.ValidateBytes(schemas.ContractEmailFacts, []byte(cleaned)); err != nil {
		return &Result{
			Success: false,
			Failure: &Failure{
				Stage:       StageContract,
				Message:     (&ContractError{Message: "response failed EmailFacts contract", Cause: err}).Error(),
				RawResponse: cleaned,
			},
		}, nil
	}

	var facts types.EmailFacts
	if err := json.Unmarshal([]byte(cleaned), &facts); err != nil {
		// Schema-valid JSON that fails to decode means the contract and the
		// struct drifted apart; surface it as a contract failure.
		return &Result{
			Success: false,
			Failure: &Failure{
				Stage:       StageContract,
				Message:     (&ContractError{Message: "response failed to decode", Cause: err}).Error(),
				RawResponse: cleaned,
			},
		}, nil
	}

	if e.store != nil {
		if err := e.store.MergeExtracted(ctx, emailID, db.KeyEmailFacts, &facts); err != nil {
			return nil, err
		}
	}

	return &Result{Success: true, Facts: &facts}, nil
}
