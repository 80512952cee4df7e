package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"

	"formflow/internal/model"
)

// Prompter implements the interactive clarification channel: one
// question at a time, user-paced, on a plain terminal.
type Prompter struct {
	writer      io.Writer
	reader      *NonBlockingReader
	progressBar *progressbar.ProgressBar
	startTime   time.Time
}

// NewPrompter creates a prompter over the given reader and writer.
// Nil arguments default to stdin/stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader:    NewNonBlockingReader(reader),
		writer:    writer,
		startTime: time.Now(),
	}
}

// Ask renders one clarification question and blocks for the answer.
func (p *Prompter) Ask(ctx context.Context, question model.ClarificationQuestion) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	content := question.PromptText
	if len(question.Options) > 0 {
		content += "\n\n" + p.formatOptions(question.Options)
		content += "\n" + SubtleStyle.Render("Choose an option number or type a value directly.")
	}

	title := fmt.Sprintf("%s Field: %s", QuestionIcon, question.FieldKey)
	if question.Attempt > 1 {
		title += SubtleStyle.Render(fmt.Sprintf(" (attempt %d)", question.Attempt))
	}

	if _, err := fmt.Fprintln(p.writer, RenderBox(title, content)); err != nil {
		return "", fmt.Errorf("failed to write question: %w", err)
	}

	if _, err := fmt.Fprintf(p.writer, "%s", FormatPrompt("Answer")); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	answer, err := p.reader.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, ErrInputCancelled) {
			return "", ctx.Err()
		}
		return "", err
	}

	return answer, nil
}

func (p *Prompter) formatOptions(options []model.Candidate) string {
	out := FormatInfo("Conflicting values found:") + "\n"
	for i, c := range options {
		out += fmt.Sprintf("  [%d] %s %s\n",
			i+1,
			c.Value,
			SubtleStyle.Render(fmt.Sprintf("(from %s, %.0f%% confidence)", c.SourceDocumentID, c.Confidence*100)))
	}
	return out
}

// StartProgress begins a progress bar over n steps.
func (p *Prompter) StartProgress(n int, description string) {
	p.progressBar = progressbar.NewOptions(n,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(p.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

// AdvanceProgress ticks the progress bar by one step.
func (p *Prompter) AdvanceProgress() {
	if p.progressBar == nil {
		return
	}
	if err := p.progressBar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// FinishProgress completes and clears the progress bar.
func (p *Prompter) FinishProgress() {
	if p.progressBar == nil {
		return
	}
	if err := p.progressBar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
	p.progressBar = nil
}

// ShowSuccess prints the artifact path and the audit manifest.
func (p *Prompter) ShowSuccess(session *model.FillSession) {
	manifest := session.Manifest()
	keys := make([]string, 0, len(manifest))
	for k := range manifest {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	content := fmt.Sprintf("Filled document: %s\n\nManifest:\n", session.OutputPath)
	for _, k := range keys {
		entry := manifest[k]
		content += fmt.Sprintf("  %s = %q %s\n",
			k, entry.Value, SubtleStyle.Render("["+string(entry.Provenance)+"]"))
	}
	content += fmt.Sprintf("\nCompleted in %s", time.Since(p.startTime).Round(time.Second))

	if _, err := fmt.Fprintln(p.writer, RenderBox(SuccessIcon+" Session "+session.SessionID+" complete", content)); err != nil {
		slog.Warn("Failed to write success box", "error", err)
	}
}

// ShowFailure prints the field-attributed explanation of what remains wrong.
func (p *Prompter) ShowFailure(session *model.FillSession) {
	content := "The session could not be completed:\n\n"
	for _, issue := range session.Issues {
		line := fmt.Sprintf("  %s: %s", issue.FieldList(), issue.Description)
		if issue.Blocking() {
			content += ErrorStyle.Render(line) + "\n"
		} else {
			content += WarningStyle.Render(line) + "\n"
		}
	}

	if _, err := fmt.Fprintln(p.writer, RenderBox(ErrorIcon+" Session "+session.SessionID+" failed", content)); err != nil {
		slog.Warn("Failed to write failure box", "error", err)
	}
}

// ShowWarnings prints non-blocking issues before resolution begins.
func (p *Prompter) ShowWarnings(issues []model.ValidationIssue) {
	for _, issue := range issues {
		if !issue.Blocking() {
			if _, err := fmt.Fprintln(p.writer, FormatWarning(issue.Description)); err != nil {
				slog.Warn("Failed to write warning", "error", err)
			}
		}
	}
}
