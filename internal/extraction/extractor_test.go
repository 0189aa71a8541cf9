package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/inbox-tracker/internal/db"
	"github.com/jonathan/inbox-tracker/internal/llm"
	"github.com/jonathan/inbox-tracker/internal/types"
)

// fakeClient returns canned responses in place of the Gemini provider
type fakeClient struct {
	response string
	err      error
	lastTier llm.ModelTier
}

func (f *fakeClient) GenerateJSON(_ context.Context, _ string, tier llm.ModelTier) (string, error) {
	f.lastTier = tier
	return f.response, f.err
}

func (f *fakeClient) GetModel(_ llm.ModelTier) string { return "fake-model" }
func (f *fakeClient) Close() error                    { return nil }

// memStore records additive merges in memory
type memStore struct {
	merged map[string]any
	err    error
}

func newMemStore() *memStore {
	return &memStore{merged: make(map[string]any)}
}

func (m *memStore) MergeExtracted(_ context.Context, _ uuid.UUID, key string, value any) error {
	if m.err != nil {
		return m.err
	}
	m.merged[key] = value
	return nil
}

const validFactsJSON = `{
	"classification": {
		"kind": "rejection",
		"confidence": 0.92,
		"evidence": ["we have decided not to move forward"]
	},
	"is_forwarded": false,
	"status_change": {"new_status": "rejected"}
}`

func TestExtract_Success_PersistsUnderStableKey(t *testing.T) {
	store := newMemStore()
	extractor := NewExtractor(&fakeClient{response: validFactsJSON}, store)

	result, err := extractor.Extract(context.Background(), uuid.New(),
		"Your application to Acme", "recruiting@acme.example",
		"Hi Jordan, we have decided not to move forward.")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotNil(t, result.Facts)
	assert.Equal(t, types.KindRejection, result.Facts.Classification.Kind)

	stored, ok := store.merged[db.KeyEmailFacts]
	require.True(t, ok, "facts must be persisted under email_facts_v1")
	assert.Equal(t, result.Facts, stored)
}

func TestExtract_ForwardedSubjectEscalatesTier(t *testing.T) {
	client := &fakeClient{response: validFactsJSON}
	extractor := NewExtractor(client, newMemStore())

	_, err := extractor.Extract(context.Background(), uuid.New(),
		"Fwd: Your application to Acme", "jordan@example.com",
		"see below")
	require.NoError(t, err)
	assert.Equal(t, llm.TierAdvanced, client.lastTier)

	_, err = extractor.Extract(context.Background(), uuid.New(),
		"Your application to Acme", "recruiting@acme.example",
		"we have decided not to move forward")
	require.NoError(t, err)
	assert.Equal(t, llm.TierStandard, client.lastTier)
}

func TestExtract_WithTierOverrideIsKept(t *testing.T) {
	client := &fakeClient{response: validFactsJSON}
	extractor := NewExtractor(client, newMemStore()).WithTier(llm.TierAdvanced)

	_, err := extractor.Extract(context.Background(), uuid.New(),
		"Your application to Acme", "recruiting@acme.example",
		"we have decided not to move forward")
	require.NoError(t, err)
	assert.Equal(t, llm.TierAdvanced, client.lastTier)
}

func TestExtract_ProviderFailure_NoFactsPersisted(t *testing.T) {
	store := newMemStore()
	extractor := NewExtractor(&fakeClient{err: errors.New("rate limited")}, store)

	result, err := extractor.Extract(context.Background(), uuid.New(), "s", "f", "body")
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotNil(t, result.Failure)
	assert.Equal(t, StageProvider, result.Failure.Stage)
	assert.Contains(t, result.Failure.Message, "rate limited")
	assert.Empty(t, store.merged)
}

func TestExtract_NonJSONResponse_ContractFailure(t *testing.T) {
	store := newMemStore()
	extractor := NewExtractor(&fakeClient{response: "Sure! Here are the facts you wanted."}, store)

	result, err := extractor.Extract(context.Background(), uuid.New(), "s", "f", "body")
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotNil(t, result.Failure)
	assert.Equal(t, StageContract, result.Failure.Stage)
	assert.NotEmpty(t, result.Failure.RawResponse, "raw response recorded for diagnostics")
	assert.Empty(t, store.merged, "no partial facts persisted")
}

func TestExtract_SchemaInvalidResponse_ContractFailure(t *testing.T) {
	store := newMemStore()
	// Parses as JSON but the kind is outside the enum
	extractor := NewExtractor(&fakeClient{response: `{
		"classification": {"kind": "newsletter", "confidence": 0.5, "evidence": []}
	}`}, store)

	result, err := extractor.Extract(context.Background(), uuid.New(), "s", "f", "body")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, StageContract, result.Failure.Stage)
	assert.Empty(t, store.merged)
}

func TestExtract_MarkdownWrappedJSONAccepted(t *testing.T) {
	store := newMemStore()
	extractor := NewExtractor(&fakeClient{response: "```json\n" + validFactsJSON + "\n```"}, store)

	result, err := extractor.Extract(context.Background(), uuid.New(), "s", "f", "body")
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestExtract_StoreFailureSurfacesAsError(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("connection reset")
	extractor := NewExtractor(&fakeClient{response: validFactsJSON}, store)

	_, err := extractor.Extract(context.Background(), uuid.New(), "s", "f", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestExtract_NilStoreSkipsPersistence(t *testing.T) {
	extractor := NewExtractor(&fakeClient{response: validFactsJSON}, nil)

	result, err := extractor.Extract(context.Background(), uuid.New(), "s", "f", "body")
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestFailure_SerializesForDiagnostics(t *testing.T) {
	failure := Failure{Stage: StageContract, Message: "bad kind", RawResponse: `{"x":1}`}
	data, err := json.Marshal(failure)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"stage":"contract"`)
}
