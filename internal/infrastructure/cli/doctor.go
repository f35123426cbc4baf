package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/caro-sh/caro/internal/app"
)

// newDoctorCommand reports backend health and safety registry status.
func newDoctorCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check backend availability and configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer := NewRenderer(os.Stdout)
			ctx := cmd.Context()

			fmt.Println("Backends:")
			for _, b := range container.Orchestrator.Backends() {
				identity := b.Identity()
				start := time.Now()
				up := b.IsAvailable(ctx)
				latency := time.Since(start).Round(time.Millisecond)

				status := renderer.paint(ansiGreen, "ok")
				if !up {
					status = renderer.paint(ansiRed, "unavailable")
				}
				line := fmt.Sprintf("  %-14s %-12s %s", identity.Name, status, latency)
				if identity.Endpoint != "" {
					line += "  " + identity.Endpoint
				}
				fmt.Println(line)
			}

			fmt.Printf("\nSafety patterns loaded: %d\n", container.Registry.Len())
			if path := os.Getenv("CARO_CONFIG"); path != "" {
				fmt.Printf("Config override: %s\n", path)
			}
			return nil
		},
	}
}
