package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/infrastructure/tui"
)

// REPL is the line-oriented shell used when stdin is not a terminal or
// --plain is set. Its Run loop is the single mutator of the session.
type REPL struct {
	Session tui.Session
	In      io.Reader
	Out     io.Writer
	Label   string
	// LoadConfig re-reads settings when a signal arrives on Reload.
	LoadConfig func(context.Context) (domain.Config, error)
	Reload     <-chan os.Signal
	// Echo repeats each input line in the output, for scripted input.
	Echo bool
}

// Run reads lines until EOF or ctx is done, multiplexing remote events.
func (r *REPL) Run(ctx context.Context) error {
	printer := NewTranscriptPrinter(r.Out, r.Label)
	printer.Echo = r.Echo

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	fmt.Fprintln(r.Out, tui.Welcome)
	printer.Flush(r.Session.State())
	if !r.Echo {
		printer.Prompt(r.Session.State())
	}

	var closed <-chan domain.ChannelEvent
	for {
		events := r.Session.Events()
		if events == closed {
			events = nil
		}

		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			r.Session.SetBuffer(line)
			r.Session.Submit(ctx, line)

		case event, ok := <-events:
			if !ok {
				closed = events
				continue
			}
			r.Session.Deliver(event)
			if !r.Echo {
				fmt.Fprintln(r.Out)
			}

		case <-r.Reload:
			r.reload(ctx, printer)
		}

		printer.Flush(r.Session.State())
		if !r.Echo {
			printer.Prompt(r.Session.State())
		}
	}
}

func (r *REPL) reload(ctx context.Context, printer *TranscriptPrinter) {
	if r.LoadConfig == nil {
		return
	}
	cfg, err := r.LoadConfig(ctx)
	if err != nil {
		fmt.Fprintf(r.Out, "\nreload failed: %v\n", err)
		return
	}
	if err := r.Session.Reload(ctx, cfg); err != nil {
		fmt.Fprintf(r.Out, "\nreload: %v\n", err)
	}
	printer.SetLabel(cfg.PromptLabel())
	fmt.Fprintf(r.Out, "\nsettings reloaded (mode %s)\n", r.Session.Mode())
}
