// Package pipeline provides the high-level orchestration for email decisioning.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/inbox-tracker/internal/canonical"
	"github.com/jonathan/inbox-tracker/internal/db"
	"github.com/jonathan/inbox-tracker/internal/decision"
	"github.com/jonathan/inbox-tracker/internal/executor"
	"github.com/jonathan/inbox-tracker/internal/extraction"
	"github.com/jonathan/inbox-tracker/internal/llm"
	"github.com/jonathan/inbox-tracker/internal/observability"
	"github.com/jonathan/inbox-tracker/internal/planner"
	"github.com/jonathan/inbox-tracker/internal/shadow"
)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	DatabaseURL   string
	APIKey        string
	Guard         executor.GuardConfig
	ShadowEnabled bool
	BatchSize     int
	Workers       int
	Verbose       bool
}

// EmailStore is the email surface the pipeline needs. Implemented by *db.DB.
type EmailStore interface {
	GetEmail(ctx context.Context, emailID uuid.UUID) (*db.Email, error)
	ListPendingEmails(ctx context.Context, limit int) ([]db.Email, error)
	MarkEmailProcessed(ctx context.Context, emailID uuid.UUID) error
}

// Deps bundles the assembled components for one processing session
type Deps struct {
	Emails    EmailStore
	Extractor *extraction.Extractor
	Builder   *decision.Builder
	Planner   *planner.Planner
	Executor  *executor.Executor
	Shadow    *shadow.Runner
	Printer   *observability.Printer
	Verbose   bool
}

// Report captures the artifacts of one email's decision run
type Report struct {
	EmailID    uuid.UUID
	Extraction *extraction.Result
	Outcome    *executor.Outcome
}

// Assemble connects the database and LLM provider and wires the full
// component graph. The returned cleanup closes both.
func Assemble(ctx context.Context, opts RunOptions) (*Deps, func(), error) {
	database, err := db.Connect(ctx, opts.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	llmConfig := llm.DefaultConfig()
	client, err := llm.NewClient(ctx, llmConfig, opts.APIKey)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	reportErr := func(err error) {
		fmt.Printf("Warning: %v\n", err)
	}

	exec, err := executor.New(database, database, opts.Guard)
	if err != nil {
		client.Close()
		database.Close()
		return nil, nil, err
	}

	extractor := extraction.NewExtractor(client, database)
	builder := decision.NewBuilder(database)
	pl := planner.Default(reportErr)

	deps := &Deps{
		Emails:    database,
		Extractor: extractor,
		Builder:   builder,
		Planner:   pl,
		Executor:  exec,
		Shadow: shadow.NewRunner(opts.ShadowEnabled, extractor, builder, pl, database,
			string(llmConfig.Provider), client.GetModel(llm.TierStandard)),
		Printer: observability.NewPrinter(os.Stdout),
		Verbose: opts.Verbose,
	}
	cleanup := func() {
		client.Close()
		database.Close()
	}
	return deps, cleanup, nil
}

// DecideEmail runs the full decisioning pipeline for one email: extraction,
// input building, planning, and guarded execution. The email is marked
// processed only after a completed run; extraction failures leave it pending
// for the caller's retry policy.
func (d *Deps) DecideEmail(ctx context.Context, emailID uuid.UUID) (*Report, error) {
	email, err := d.Emails.GetEmail(ctx, emailID)
	if err != nil {
		return nil, fmt.Errorf("failed to load email %s: %w", emailID, err)
	}
	if email == nil {
		return nil, fmt.Errorf("email %s not found", emailID)
	}

	report := &Report{EmailID: emailID}

	body, err := canonical.EmailBody(email.BodyHTML, email.BodyText)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize email %s: %w", emailID, err)
	}

	result, err := d.Extractor.Extract(ctx, emailID, email.Subject, email.FromAddr, body)
	if err != nil {
		return nil, fmt.Errorf("failed to persist extracted facts for email %s: %w", emailID, err)
	}
	report.Extraction = result
	if !result.Success {
		if d.Verbose && result.Failure != nil {
			fmt.Printf("[VERBOSE] extraction failed (%s): %s\n", result.Failure.Stage, result.Failure.Message)
		}
		return report, nil
	}
	if d.Verbose {
		d.Printer.PrintFacts(result.Facts)
	}

	input, err := d.Builder.Build(ctx, email, result.Facts)
	if err != nil {
		return nil, fmt.Errorf("failed to build decision input for email %s: %w", emailID, err)
	}

	plan := d.Planner.Plan(input)
	if d.Verbose {
		d.Printer.PrintPlan(plan)
	}

	outcome, err := d.Executor.Execute(ctx, input, plan)
	if err != nil {
		return report, fmt.Errorf("execution failed for email %s: %w", emailID, err)
	}
	report.Outcome = outcome
	if d.Verbose {
		d.Printer.PrintOutcome(outcome)
	}

	if err := d.Emails.MarkEmailProcessed(ctx, emailID); err != nil {
		return report, fmt.Errorf("failed to mark email %s processed: %w", emailID, err)
	}
	return report, nil
}

// ShadowEmail runs the non-mutating shadow pipeline for one email. The email
// stays pending: shadow runs must not consume work from the decision path.
func (d *Deps) ShadowEmail(ctx context.Context, emailID uuid.UUID) error {
	email, err := d.Emails.GetEmail(ctx, emailID)
	if err != nil {
		return fmt.Errorf("failed to load email %s: %w", emailID, err)
	}
	if email == nil {
		return fmt.Errorf("email %s not found", emailID)
	}
	return d.Shadow.Run(ctx, email)
}

// ProcessPending decides every pending email, fanning out across workers.
// Emails are independent; a failure on one is reported and does not stop the
// batch. When shadow mode is enabled each email additionally gets a shadow
// run before the decision run.
func (d *Deps) ProcessPending(ctx context.Context, batchSize, workers int) (int, error) {
	if batchSize <= 0 {
		batchSize = 50
	}
	if workers <= 0 {
		workers = 4
	}

	emails, err := d.Emails.ListPendingEmails(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending emails: %w", err)
	}
	if len(emails) == 0 {
		return 0, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	processed := 0
	results := make([]error, len(emails))
	for i, email := range emails {
		i, email := i, email
		g.Go(func() error {
			if d.Shadow.Enabled() {
				if err := d.Shadow.Run(gCtx, &email); err != nil {
					fmt.Printf("Warning: shadow run failed for email %s: %v\n", email.ID, err)
				}
			}
			_, err := d.DecideEmail(gCtx, email.ID)
			results[i] = err
			return nil
		})
	}
	// Worker errors are collected per email, never returned from g.Go: one
	// bad email must not cancel the rest of the batch.
	_ = g.Wait()

	for i, err := range results {
		if err != nil {
			fmt.Printf("Warning: decision run failed for email %s: %v\n", emails[i].ID, err)
			continue
		}
		processed++
	}
	return processed, nil
}
