package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/doeshing/cmdcenter/internal/app"
	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/infrastructure/tui"
)

const defaultRemoteWait = 2 * time.Second

func newShellCommand(container *app.Container) *cobra.Command {
	var (
		plain bool
		mode  string
	)

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Open the interactive terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyMode(container, mode); err != nil {
				return err
			}
			return runShell(cmd.Context(), container, plain)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Use a line-oriented prompt instead of the full-screen terminal")
	cmd.Flags().StringVar(&mode, "mode", "", "Override execution mode (local|remote)")
	return cmd
}

func newRunCommand(container *app.Container) *cobra.Command {
	var (
		mode string
		wait time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run [script]",
		Short: "Execute command lines from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyMode(container, mode); err != nil {
				return err
			}
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open script: %w", err)
				}
				defer f.Close()
				in = f
			}
			return runScript(cmd.Context(), in, cmd.OutOrStdout(), container, wait)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Override execution mode (local|remote)")
	cmd.Flags().DurationVar(&wait, "wait", defaultRemoteWait, "How long to wait for remote output after each line")
	return cmd
}

func applyMode(container *app.Container, mode string) error {
	if mode == "" {
		return nil
	}
	return container.Config.SetMode(mode)
}

func runShell(ctx context.Context, container *app.Container, plain bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interactive := isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
	useTUI := interactive && !plain
	if useTUI {
		if _, err := container.LogToFile(); err != nil {
			container.Logger.Warn("logging to stderr", map[string]interface{}{"error": err.Error()})
		}
	}

	manager, err := container.NewSession(ctx)
	if err != nil {
		return err
	}
	defer manager.Close()

	go container.ServeMetrics(ctx)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	if !useTUI {
		repl := &REPL{
			Session:    manager,
			In:         os.Stdin,
			Out:        os.Stdout,
			Label:      container.Config.PromptLabel(),
			LoadConfig: container.Reload,
			Reload:     hup,
		}
		return repl.Run(ctx)
	}

	var program *tea.Program
	model := tui.New(ctx, manager, tui.Options{
		Label:      container.Config.PromptLabel(),
		Styles:     tui.DefaultStyles(),
		LoadConfig: container.Reload,
		Watch: func(events <-chan domain.ChannelEvent) {
			go func() {
				for event := range events {
					program.Send(tui.EventMsg(event))
				}
			}()
		},
	})
	program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		for {
			select {
			case <-hup:
				program.Send(tui.ReloadMsg{})
			case <-ctx.Done():
				return
			}
		}
	}()

	_, err = program.Run()
	return err
}

func runScript(ctx context.Context, in io.Reader, out io.Writer, container *app.Container, wait time.Duration) error {
	manager, err := container.NewSession(ctx)
	if err != nil {
		return err
	}
	defer manager.Close()

	printer := NewTranscriptPrinter(out, container.Config.PromptLabel())
	printer.Echo = true
	printer.MarkPrinted(manager.State())

	var spinner *Spinner
	if isatty.IsTerminal(os.Stderr.Fd()) {
		spinner = NewSpinner(os.Stderr, "waiting for terminal server")
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		manager.Submit(ctx, scanner.Text())
		if manager.Mode() == domain.ModeRemote {
			awaitRemote(ctx, manager, wait, spinner)
		}
		printer.Flush(manager.State())
	}
	return scanner.Err()
}

// awaitRemote delivers channel events until none arrive for wait.
func awaitRemote(ctx context.Context, s tui.Session, wait time.Duration, spinner *Spinner) {
	if spinner != nil {
		spinner.Start()
		defer spinner.Stop()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		events := s.Events()
		if events == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.Deliver(event)
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(wait)
		}
	}
}
