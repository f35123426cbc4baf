package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/caro-sh/caro/internal/app"
)

func newHistoryCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently generated commands and their verdicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Audit == nil {
				return errors.New("audit store is not available")
			}
			entries, err := container.Audit.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			NewRenderer(os.Stdout).History(entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}
