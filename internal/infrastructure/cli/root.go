// Package cli assembles the cobra command tree and the terminal presentation
// for caro.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/caro-sh/caro/internal/app"
	"github.com/caro-sh/caro/internal/domain"
	"github.com/caro-sh/caro/internal/services"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command. The returned container owns the
// audit store and backend pool; the caller must Close it after execution.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, *app.Container, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, nil, err
	}

	var (
		backendName string
		shellName   string
		assumeYes   bool
		noRefine    bool
		timeout     time.Duration
	)

	root := &cobra.Command{
		Use:   "caro [request]",
		Short: "caro turns natural language into safe shell commands",
		Long: "caro converts a natural-language request into a shell command,\n" +
			"classifies its risk before showing it, and falls back across\n" +
			"generation backends until one answers.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}

			override, err := parseSelector(backendName)
			if err != nil {
				return err
			}
			var shell domain.ShellType
			if shellName != "" {
				shell = domain.ParseShellType(shellName)
			}

			runCtx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(runCtx, timeout)
				defer cancel()
			}

			req := services.ProcessRequest{
				Prompt:          strings.Join(args, " "),
				Shell:           shell,
				BackendOverride: override,
				SkipRefine:      noRefine,
			}
			return runGenerate(runCtx, container, req, assumeYes)
		},
	}

	root.Flags().StringVarP(&backendName, "backend", "b", "", "Force a backend for this request (embedded, ollama, vllm)")
	root.Flags().StringVarP(&shellName, "shell", "s", "", "Target shell dialect (bash, zsh, fish, sh, powershell, cmd)")
	root.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip confirmation prompts (critical commands stay blocked)")
	root.Flags().BoolVar(&noRefine, "no-refine", false, "Disable the refinement pass")
	root.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Overall request timeout")

	root.AddCommand(newDoctorCommand(container))
	root.AddCommand(newHistoryCommand(container))
	root.AddCommand(newVersionCommand())
	return root, container, nil
}

func parseSelector(name string) (domain.BackendSelector, error) {
	switch name {
	case "":
		return "", nil
	case "embedded", "ollama", "vllm":
		return domain.BackendSelector(name), nil
	default:
		return "", fmt.Errorf("unknown backend %q (expected embedded, ollama, or vllm)", name)
	}
}

func runGenerate(ctx context.Context, container *app.Container, req services.ProcessRequest, assumeYes bool) error {
	renderer := NewRenderer(os.Stderr)

	var spinner *Spinner
	if isatty.IsTerminal(os.Stderr.Fd()) {
		spinner = NewSpinner(os.Stderr)
		spinner.Start()
	}
	result, err := container.Service.Process(ctx, req)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		renderer.Warnings(result.Warnings)
		return err
	}

	renderer.Result(result)

	if !result.Verdict.Allowed {
		return fmt.Errorf("command blocked: %s", result.Verdict.Explanation)
	}

	if result.Verdict.RequiresConfirmation && !assumeYes && isatty.IsTerminal(os.Stdin.Fd()) {
		ok, err := NewPrompter(nil, os.Stderr).Confirm(result.Verdict, result.Command)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return nil
		}
	}

	// The bare command goes to stdout so shell wrappers can capture it.
	fmt.Println(result.Command)
	return nil
}
