package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/caro-sh/caro/internal/domain"
	"github.com/caro-sh/caro/internal/ports"
	"github.com/caro-sh/caro/internal/services"
)

// Renderer prints human-facing output. Commands themselves never pass
// through here; they go to stdout unadorned.
type Renderer struct {
	out   io.Writer
	color bool
}

func NewRenderer(out io.Writer) *Renderer {
	color := false
	if f, ok := out.(interface{ Fd() uintptr }); ok {
		color = isatty.IsTerminal(f.Fd())
	}
	return &Renderer{out: out, color: color}
}

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiGreen  = "\033[32m"
	ansiBold   = "\033[1m"
)

func (r *Renderer) paint(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + ansiReset
}

func (r *Renderer) riskLabel(level domain.RiskLevel) string {
	label := strings.ToUpper(level.String())
	switch level {
	case domain.RiskCritical, domain.RiskHigh:
		return r.paint(ansiRed, label)
	case domain.RiskModerate:
		return r.paint(ansiYellow, label)
	default:
		return r.paint(ansiGreen, label)
	}
}

// Result prints the generated command with its verdict and provenance.
func (r *Renderer) Result(res services.ProcessResult) {
	r.Warnings(res.Warnings)

	fmt.Fprintf(r.out, "%s\n  %s\n", r.paint(ansiBold, "Command:"), res.Command)
	if res.Explanation != "" {
		fmt.Fprintf(r.out, "  %s\n", res.Explanation)
	}
	fmt.Fprintf(r.out, "Risk: %s", r.riskLabel(res.Verdict.Level))
	if !res.Verdict.Allowed {
		fmt.Fprintf(r.out, " %s", r.paint(ansiRed, "(blocked)"))
	}
	fmt.Fprintln(r.out)
	for _, p := range res.Verdict.MatchedPatterns {
		fmt.Fprintf(r.out, " - %s\n", p.Description)
	}
	fmt.Fprintf(r.out, "Backend: %s", res.Backend.Name)
	if res.Iterations > 0 {
		fmt.Fprintf(r.out, " (refined %dx)", res.Iterations)
	}
	fmt.Fprintf(r.out, ", %s\n", res.Duration.Round(time.Millisecond))
}

func (r *Renderer) Warnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(r.out, "%s %s\n", r.paint(ansiYellow, "warning:"), w)
	}
}

// History prints audit entries, newest first.
func (r *Renderer) History(entries []ports.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(r.out, "No history yet.")
		return
	}
	for _, e := range entries {
		marker := " "
		if !e.Allowed {
			marker = r.paint(ansiRed, "x")
		}
		fmt.Fprintf(r.out, "%s %-14s %-8s %-12s %s\n",
			marker,
			humanize.Time(e.Timestamp),
			e.RiskLevel.String(),
			e.Backend,
			e.Command,
		)
	}
}
