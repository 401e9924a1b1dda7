package cli

import (
	"fmt"
	"io"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/infrastructure/tui"
)

// TranscriptPrinter writes new transcript entries as plain ASCII text. It
// remembers how many entries it has printed, so calling Flush after every
// state change prints each entry once.
type TranscriptPrinter struct {
	out   io.Writer
	label string
	// Echo prints the prompt and input line before each entry's output.
	Echo    bool
	printed int
}

// NewTranscriptPrinter creates a printer for out.
func NewTranscriptPrinter(out io.Writer, label string) *TranscriptPrinter {
	return &TranscriptPrinter{out: out, label: label}
}

// SetLabel changes the prompt label, e.g. after a settings reload.
func (p *TranscriptPrinter) SetLabel(label string) {
	p.label = label
}

// Flush prints entries added since the last call. A shorter transcript means
// it was cleared.
func (p *TranscriptPrinter) Flush(state domain.SessionState) {
	if len(state.Transcript) < p.printed {
		p.printed = 0
	}
	for _, entry := range state.Transcript[p.printed:] {
		if p.Echo && entry.InputLine != "" {
			fmt.Fprintf(p.out, "%s %s\n", tui.Prompt(p.label, entry.PromptDir(state.CurrentDirectory)), entry.InputLine)
		}
		for _, line := range entry.Output.Lines() {
			fmt.Fprintln(p.out, line)
		}
	}
	p.printed = len(state.Transcript)
}

// MarkPrinted treats the current transcript as already shown.
func (p *TranscriptPrinter) MarkPrinted(state domain.SessionState) {
	p.printed = len(state.Transcript)
}

// Prompt writes the input prompt for the current directory.
func (p *TranscriptPrinter) Prompt(state domain.SessionState) {
	fmt.Fprintf(p.out, "%s ", tui.Prompt(p.label, state.CurrentDirectory))
}
