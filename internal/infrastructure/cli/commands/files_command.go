package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/cmdcenter/internal/app"
	"github.com/doeshing/cmdcenter/internal/application/explorer"
	"github.com/doeshing/cmdcenter/internal/domain"
)

// NewFilesCommand creates the files command for browsing the storage backend.
func NewFilesCommand(container *app.Container) *cobra.Command {
	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "Browse files kept in the storage backend",
	}

	filesCmd.AddCommand(
		newFilesListCommand(container),
		newFilesCreateCommand(container),
		newFilesRemoveCommand(container),
	)
	return filesCmd
}

func newFilesListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List entries under a directory (default ~)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := container.Explorer(cmd.Context())
			if err != nil {
				return err
			}
			path := domain.HomeAlias
			if len(args) == 1 {
				path = args[0]
			}
			listing, err := svc.List(cmd.Context(), path)
			if err != nil {
				return err
			}
			printListing(cmd.OutOrStdout(), cmd.ErrOrStderr(), listing)
			return nil
		},
	}
}

func newFilesCreateCommand(container *app.Container) *cobra.Command {
	var (
		parent  string
		content string
		dir     bool
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := container.Explorer(cmd.Context())
			if err != nil {
				return err
			}
			typ := domain.EntryFile
			if dir {
				typ = domain.EntryDir
			}
			entry, err := svc.Create(cmd.Context(), parent, args[0], typ, content)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", entry.Type, domain.DisplayPath(entry.Path), entry.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", domain.HomeAlias, "Parent directory")
	cmd.Flags().StringVar(&content, "content", "", "File content")
	cmd.Flags().BoolVar(&dir, "dir", false, "Create a directory")
	return cmd
}

func newFilesRemoveCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <parent> <id>",
		Short: "Delete an entry by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := container.Explorer(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[1])
			return nil
		},
	}
}

// printListing renders one row per entry. Directories carry a trailing slash.
func printListing(out, status io.Writer, listing explorer.Listing) {
	if listing.Cached {
		fmt.Fprintln(status, MsgServedFromCache)
	}
	if len(listing.Entries) == 0 {
		fmt.Fprintln(out, MsgEmptyDirectory)
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, entry := range listing.Entries {
		name := entry.Name
		size := "-"
		if entry.IsDir() {
			name += "/"
		} else {
			size = humanize.Bytes(uint64(len(entry.Content)))
		}
		created := "-"
		if !entry.CreatedAt.IsZero() {
			created = humanize.Time(entry.CreatedAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, size, created, entry.ID)
	}
	w.Flush()
}
