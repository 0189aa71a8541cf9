// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/inbox-tracker/internal/executor"
	"github.com/jonathan/inbox-tracker/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintFacts outputs a human-readable summary of extracted email facts.
func (p *Printer) PrintFacts(facts *types.EmailFacts) {
	if facts == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Kind:       %s\n", facts.Classification.Kind))
	sb.WriteString(fmt.Sprintf("Confidence: %.2f\n", facts.Classification.Confidence))
	if facts.IsForwarded {
		sb.WriteString("Forwarded:  yes\n")
	}

	if facts.Entities != nil {
		if facts.Entities.Company != "" {
			sb.WriteString(fmt.Sprintf("Company:    %s\n", facts.Entities.Company))
		}
		if facts.Entities.Role != "" {
			sb.WriteString(fmt.Sprintf("Role:       %s\n", facts.Entities.Role))
		}
	}

	if len(facts.Classification.Evidence) > 0 {
		sb.WriteString("\nEvidence:\n")
		count := min(len(facts.Classification.Evidence), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %q\n", facts.Classification.Evidence[i]))
		}
		if len(facts.Classification.Evidence) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(facts.Classification.Evidence)-maxItemsToShow))
		}
	}

	if len(facts.KeyInsights) > 0 {
		sb.WriteString("\nInsights:\n")
		count := min(len(facts.KeyInsights), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", facts.KeyInsights[i]))
		}
	}

	p.printBox("EMAIL FACTS", strings.TrimRight(sb.String(), "\n"))
}

// PrintPlan outputs a human-readable summary of a decision plan.
func (p *Printer) PrintPlan(plan *types.DecisionPlan) {
	if plan == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Decision: %s\n", plan.Decision))

	if len(plan.Plan) > 0 {
		sb.WriteString("\nSteps:\n")
		for i, step := range plan.Plan {
			sb.WriteString(fmt.Sprintf("  %d. %s", i+1, step.Kind))
			switch {
			case step.TargetStatus != "":
				sb.WriteString(fmt.Sprintf(" → %s", step.TargetStatus))
			case step.TargetStage != "":
				sb.WriteString(fmt.Sprintf(" → %s", step.TargetStage))
			case step.Outcome != "":
				sb.WriteString(fmt.Sprintf(" (%s)", step.Outcome))
			}
			sb.WriteString("\n")
		}
	}

	if len(plan.Preconditions) > 0 {
		sb.WriteString("\nPreconditions:\n")
		count := min(len(plan.Preconditions), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", plan.Preconditions[i]))
		}
	}

	p.printBox("DECISION PLAN", strings.TrimRight(sb.String(), "\n"))
}

// PrintOutcome outputs a human-readable summary of an execution outcome.
func (p *Printer) PrintOutcome(out *executor.Outcome) {
	if out == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Result:       %s\n", out.Classification()))
	sb.WriteString(fmt.Sprintf("Applied:      %d\n", out.Applied))
	sb.WriteString(fmt.Sprintf("Skipped:      %d\n", out.Skipped))
	sb.WriteString(fmt.Sprintf("Needs review: %d\n", out.NeedsReview))
	if out.Replayed {
		sb.WriteString("Replayed:     yes\n")
	}

	if len(out.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		count := min(len(out.Errors), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", out.Errors[i]))
		}
	}

	p.printBox("EXECUTION OUTCOME", strings.TrimRight(sb.String(), "\n"))
}
