package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formflow/internal/model"
)

func TestAskReturnsTrimmedAnswer(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("  Maria Keller  \n"), &out)

	answer, err := p.Ask(context.Background(), model.ClarificationQuestion{
		FieldKey:   "borrower_name",
		PromptText: "No value for Borrower Name was found in the documents.",
		Attempt:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria Keller", answer)
	assert.Contains(t, out.String(), "borrower_name")
	assert.Contains(t, out.String(), "No value for Borrower Name")
}

func TestAskRendersOptions(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("2\n"), &out)

	answer, err := p.Ask(context.Background(), model.ClarificationQuestion{
		FieldKey:   "total_amount",
		PromptText: "The documents disagree about Total Amount.",
		Options: []model.Candidate{
			{Value: "10,000", SourceDocumentID: "doc-01-invoice.txt", Confidence: 0.95},
			{Value: "10.000", SourceDocumentID: "doc-02-quote.txt", Confidence: 0.91},
		},
		Attempt: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "2", answer)

	rendered := out.String()
	assert.Contains(t, rendered, "[1] 10,000")
	assert.Contains(t, rendered, "[2] 10.000")
	assert.Contains(t, rendered, "doc-01-invoice.txt")
	assert.Contains(t, rendered, "95% confidence")
}

func TestAskCanceledContext(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader(""), &out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Ask(ctx, model.ClarificationQuestion{FieldKey: "notes"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadLine(t *testing.T) {
	r := NewNonBlockingReader(strings.NewReader("first line\nsecond line\n"))

	line, err := r.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first line", line)

	line, err = r.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second line", line)
}

func TestReadLineBlockedInputCancels(t *testing.T) {
	// A reader that never produces input must not hang past cancellation.
	r := NewNonBlockingReader(blockingReader{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.ReadLine(ctx)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

type blockingReader struct{}

func (blockingReader) Read(_ []byte) (int, error) {
	select {}
}
