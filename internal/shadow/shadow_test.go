package shadow

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/inbox-tracker/internal/db"
	"github.com/jonathan/inbox-tracker/internal/decision"
	"github.com/jonathan/inbox-tracker/internal/extraction"
	"github.com/jonathan/inbox-tracker/internal/llm"
	"github.com/jonathan/inbox-tracker/internal/planner"
	"github.com/jonathan/inbox-tracker/internal/types"
)

// fakeClient returns canned responses in place of the Gemini provider
type fakeClient struct {
	response string
	err      error
}

func (f *fakeClient) GenerateJSON(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
	return f.response, f.err
}

func (f *fakeClient) GetModel(_ llm.ModelTier) string { return "fake-model" }
func (f *fakeClient) Close() error                    { return nil }

// memStore records additive merges in memory, preserving unrelated keys
type memStore struct {
	merged map[string]any
}

func newMemStore() *memStore {
	return &memStore{merged: make(map[string]any)}
}

func (m *memStore) MergeExtracted(_ context.Context, _ uuid.UUID, key string, value any) error {
	m.merged[key] = value
	return nil
}

// fakeReader serves application lookups for the builder
type fakeReader struct {
	app    *db.Application
	rounds []db.InterviewRound
}

func (f *fakeReader) GetApplication(_ context.Context, _ uuid.UUID) (*db.Application, error) {
	return f.app, nil
}

func (f *fakeReader) ListRecentRounds(_ context.Context, _ uuid.UUID, _ int) ([]db.InterviewRound, error) {
	return f.rounds, nil
}

const rejectionFactsJSON = `{
	"classification": {
		"kind": "rejection",
		"confidence": 0.92,
		"evidence": ["we have decided not to move forward"]
	},
	"is_forwarded": false
}`

func testEmail(appID *uuid.UUID) *db.Email {
	return &db.Email{
		ID:            uuid.New(),
		Subject:       "Your application to Acme",
		FromAddr:      "recruiting@acme.example",
		BodyText:      "Hi Jordan, we have decided not to move forward.",
		ApplicationID: appID,
	}
}

func testRunner(enabled bool, client llm.Client, store SideChannel, reader decision.ApplicationReader) *Runner {
	extractor := extraction.NewExtractor(client, store)
	builder := decision.NewBuilder(reader)
	return NewRunner(enabled, extractor, builder, planner.Default(nil), store, "gemini", "fake-model")
}

func TestRunDisabledIsNoop(t *testing.T) {
	store := newMemStore()
	runner := testRunner(false, &fakeClient{response: rejectionFactsJSON}, store, &fakeReader{})

	err := runner.Run(context.Background(), testEmail(nil))
	require.NoError(t, err)
	assert.Empty(t, store.merged)
}

func TestRunStoresAllArtifactsUnderStableKeys(t *testing.T) {
	appID := uuid.New()
	reader := &fakeReader{app: &db.Application{
		ID:            appID,
		Company:       "Acme",
		Status:        types.StatusActive,
		PipelineStage: types.StageScreening,
	}}
	store := newMemStore()
	runner := testRunner(true, &fakeClient{response: rejectionFactsJSON}, store, reader)

	err := runner.Run(context.Background(), testEmail(&appID))
	require.NoError(t, err)

	require.Contains(t, store.merged, db.KeyEmailFacts)
	require.Contains(t, store.merged, db.KeyDecisionInput)
	require.Contains(t, store.merged, db.KeyDecisionPlan)
	require.Contains(t, store.merged, db.KeyDecisioningMeta)

	plan, ok := store.merged[db.KeyDecisionPlan].(*types.DecisionPlan)
	require.True(t, ok)
	assert.Equal(t, types.DecisionApply, plan.Decision)

	meta, ok := store.merged[db.KeyDecisioningMeta].(RunMeta)
	require.True(t, ok)
	assert.True(t, meta.ExtractionSuccess)
	assert.Equal(t, "gemini", meta.Provider)
	assert.Equal(t, "fake-model", meta.Model)
	assert.Equal(t, types.DecisionApply, meta.PlanDecision)
	assert.NotEmpty(t, meta.CompletedAt)
}

func TestRunExtractionFailureRecordedAsMetadata(t *testing.T) {
	store := newMemStore()
	runner := testRunner(true, &fakeClient{err: errors.New("rate limited")}, store, &fakeReader{})

	err := runner.Run(context.Background(), testEmail(nil))
	require.NoError(t, err)

	assert.NotContains(t, store.merged, db.KeyEmailFacts)
	assert.NotContains(t, store.merged, db.KeyDecisionPlan)

	meta, ok := store.merged[db.KeyDecisioningMeta].(RunMeta)
	require.True(t, ok)
	assert.False(t, meta.ExtractionSuccess)
	assert.Contains(t, meta.Error, "rate limited")
}

func TestRunUnmatchedEmailPlansNoop(t *testing.T) {
	store := newMemStore()
	runner := testRunner(true, &fakeClient{response: rejectionFactsJSON}, store, &fakeReader{})

	err := runner.Run(context.Background(), testEmail(nil))
	require.NoError(t, err)

	plan, ok := store.merged[db.KeyDecisionPlan].(*types.DecisionPlan)
	require.True(t, ok)
	assert.Equal(t, types.DecisionNoop, plan.Decision)
}
