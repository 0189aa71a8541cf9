package pipeline

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/inbox-tracker/internal/db"
	"github.com/jonathan/inbox-tracker/internal/decision"
	"github.com/jonathan/inbox-tracker/internal/executor"
	"github.com/jonathan/inbox-tracker/internal/extraction"
	"github.com/jonathan/inbox-tracker/internal/llm"
	"github.com/jonathan/inbox-tracker/internal/observability"
	"github.com/jonathan/inbox-tracker/internal/planner"
	"github.com/jonathan/inbox-tracker/internal/shadow"
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

// fakeEmails is an in-memory EmailStore and side channel
type fakeEmails struct {
	emails    map[uuid.UUID]*db.Email
	processed map[uuid.UUID]bool
	merged    map[uuid.UUID]map[string]any
}

func newFakeEmails(emails ...*db.Email) *fakeEmails {
	f := &fakeEmails{
		emails:    make(map[uuid.UUID]*db.Email),
		processed: make(map[uuid.UUID]bool),
		merged:    make(map[uuid.UUID]map[string]any),
	}
	for _, e := range emails {
		f.emails[e.ID] = e
	}
	return f
}

func (f *fakeEmails) GetEmail(_ context.Context, emailID uuid.UUID) (*db.Email, error) {
	return f.emails[emailID], nil
}

func (f *fakeEmails) ListPendingEmails(_ context.Context, limit int) ([]db.Email, error) {
	var pending []db.Email
	for _, e := range f.emails {
		if !f.processed[e.ID] && len(pending) < limit {
			pending = append(pending, *e)
		}
	}
	return pending, nil
}

func (f *fakeEmails) MarkEmailProcessed(_ context.Context, emailID uuid.UUID) error {
	f.processed[emailID] = true
	return nil
}

func (f *fakeEmails) MergeExtracted(_ context.Context, emailID uuid.UUID, key string, value any) error {
	if f.merged[emailID] == nil {
		f.merged[emailID] = make(map[string]any)
	}
	f.merged[emailID][key] = value
	return nil
}

// fakeTracker serves application reads and records mutations; it backs both
// the builder and the executor
type fakeTracker struct {
	app            *db.Application
	rounds         []db.InterviewRound
	statusUpdates  []string
	stageUpdates   []string
	outcomeUpdates map[uuid.UUID]string
}

func newFakeTracker(app *db.Application) *fakeTracker {
	return &fakeTracker{app: app, outcomeUpdates: make(map[uuid.UUID]string)}
}

func (s *fakeTracker) GetApplication(_ context.Context, _ uuid.UUID) (*db.Application, error) {
	return s.app, nil
}

func (s *fakeTracker) ListRecentRounds(_ context.Context, _ uuid.UUID, _ int) ([]db.InterviewRound, error) {
	return s.rounds, nil
}

func (s *fakeTracker) UpdateApplicationStatus(_ context.Context, _ uuid.UUID, status string) error {
	s.statusUpdates = append(s.statusUpdates, status)
	s.app.Status = status
	return nil
}

func (s *fakeTracker) SetPipelineStage(_ context.Context, _ uuid.UUID, stage string) error {
	s.stageUpdates = append(s.stageUpdates, stage)
	s.app.PipelineStage = stage
	return nil
}

func (s *fakeTracker) UpdateRoundOutcome(_ context.Context, roundID uuid.UUID, outcome string) error {
	s.outcomeUpdates[roundID] = outcome
	return nil
}

func (s *fakeTracker) CreateInterviewRound(_ context.Context, _ uuid.UUID, _, _ string, _ *time.Time) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (s *fakeTracker) UpdateRoundSchedule(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

// fakeLedger is an in-memory idempotency ledger
type fakeLedger struct {
	applied map[uuid.UUID]bool
	audits  int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{applied: make(map[uuid.UUID]bool)}
}

func (l *fakeLedger) RecordPlanApplied(_ context.Context, emailID uuid.UUID, _ string) (bool, error) {
	if l.applied[emailID] {
		return false, nil
	}
	l.applied[emailID] = true
	return true, nil
}

func (l *fakeLedger) RecordStepAudit(_ context.Context, _ uuid.UUID, _ int, _, _, _ string) error {
	l.audits++
	return nil
}

const rejectionFactsJSON = `{
	"classification": {
		"kind": "rejection",
		"confidence": 0.92,
		"evidence": ["we have decided not to move forward"]
	},
	"is_forwarded": false
}`

func testDeps(t *testing.T, emails *fakeEmails, tracker *fakeTracker, ledger *fakeLedger, client llm.Client) *Deps {
	t.Helper()
	exec, err := executor.New(tracker, ledger, executor.DefaultGuardConfig())
	require.NoError(t, err)

	extractor := extraction.NewExtractor(client, emails)
	builder := decision.NewBuilder(tracker)
	pl := planner.Default(nil)

	return &Deps{
		Emails:    emails,
		Extractor: extractor,
		Builder:   builder,
		Planner:   pl,
		Executor:  exec,
		Shadow:    shadow.NewRunner(false, extractor, builder, pl, emails, "gemini", "fake-model"),
		Printer:   observability.NewPrinter(io.Discard),
	}
}

func rejectionEmail(appID uuid.UUID) *db.Email {
	return &db.Email{
		ID:            uuid.New(),
		Subject:       "Your application to Acme",
		FromAddr:      "recruiting@acme.example",
		BodyText:      "Hi Jordan, we have decided not to move forward with your application.",
		ApplicationID: &appID,
	}
}

func TestDecideEmail_EndToEnd(t *testing.T) {
	app := &db.Application{ID: uuid.New(), Company: "Acme", Status: types.StatusActive, PipelineStage: types.StageInterviewing}
	tracker := newFakeTracker(app)
	pendingRound := db.InterviewRound{ID: uuid.New(), ApplicationID: app.ID, RoundType: "onsite", Status: types.RoundPending}
	tracker.rounds = []db.InterviewRound{pendingRound}

	email := rejectionEmail(app.ID)
	emails := newFakeEmails(email)
	ledger := newFakeLedger()
	deps := testDeps(t, emails, tracker, ledger, &fakeClient{response: rejectionFactsJSON})

	report, err := deps.DecideEmail(context.Background(), email.ID)
	require.NoError(t, err)
	require.NotNil(t, report.Outcome)
	assert.Equal(t, 2, report.Outcome.Applied)
	assert.Equal(t, types.StatusRejected, app.Status)
	assert.Equal(t, types.OutcomeFailed, tracker.outcomeUpdates[pendingRound.ID])
	assert.True(t, emails.processed[email.ID])
	assert.Contains(t, emails.merged[email.ID], db.KeyEmailFacts)
	assert.True(t, ledger.applied[email.ID])
}

func TestDecideEmail_ExtractionFailureLeavesPending(t *testing.T) {
	app := &db.Application{ID: uuid.New(), Status: types.StatusActive, PipelineStage: types.StageScreening}
	tracker := newFakeTracker(app)
	email := rejectionEmail(app.ID)
	emails := newFakeEmails(email)
	deps := testDeps(t, emails, tracker, newFakeLedger(), &fakeClient{response: "not json at all"})

	report, err := deps.DecideEmail(context.Background(), email.ID)
	require.NoError(t, err)
	require.NotNil(t, report.Extraction)
	assert.False(t, report.Extraction.Success)
	assert.Nil(t, report.Outcome)
	assert.False(t, emails.processed[email.ID], "failed extraction must leave the email pending")
	assert.Empty(t, tracker.statusUpdates)
}

func TestDecideEmail_UnknownEmail(t *testing.T) {
	deps := testDeps(t, newFakeEmails(), newFakeTracker(&db.Application{}), newFakeLedger(), &fakeClient{})

	_, err := deps.DecideEmail(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestProcessPending_DecidesBatch(t *testing.T) {
	app := &db.Application{ID: uuid.New(), Status: types.StatusActive, PipelineStage: types.StageScreening}
	tracker := newFakeTracker(app)
	tracker.rounds = []db.InterviewRound{
		{ID: uuid.New(), ApplicationID: app.ID, RoundType: "phone_screen", Status: types.RoundPending},
	}

	first := rejectionEmail(app.ID)
	second := rejectionEmail(app.ID)
	emails := newFakeEmails(first, second)
	deps := testDeps(t, emails, tracker, newFakeLedger(), &fakeClient{response: rejectionFactsJSON})

	processed, err := deps.ProcessPending(context.Background(), 10, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)
	assert.True(t, emails.processed[first.ID])
	assert.True(t, emails.processed[second.ID])
}

func TestProcessPending_EmptyBatch(t *testing.T) {
	deps := testDeps(t, newFakeEmails(), newFakeTracker(&db.Application{}), newFakeLedger(), &fakeClient{})

	processed, err := deps.ProcessPending(context.Background(), 10, 2)
	require.NoError(t, err)
	assert.Zero(t, processed)
}
