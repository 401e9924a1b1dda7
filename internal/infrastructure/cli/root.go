package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/doeshing/cmdcenter/internal/app"
	"github.com/doeshing/cmdcenter/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command. The returned cleanup releases the
// container's stores and must run after the command finishes.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, func() error, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, nil, err
	}

	shellCmd := newShellCommand(container)

	root := &cobra.Command{
		Use:   "cmdcenter",
		Short: "Web Command Center - a simulated terminal with remote execution",
		Long: "cmdcenter runs a simulated shell over a virtual filesystem, can forward commands " +
			"to a WebSocket terminal server, and browses files kept in a hosted storage backend.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return shellCmd.RunE(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(shellCmd)
	root.AddCommand(newRunCommand(container))
	root.AddCommand(commands.NewHistoryCommand(container))
	root.AddCommand(commands.NewFilesCommand(container))
	root.AddCommand(commands.NewConfigCommand(container))
	root.AddCommand(commands.NewDoctorCommand(container))
	root.AddCommand(commands.NewVersionCommand())
	return root, container.Close, nil
}
