package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/caro-sh/caro/internal/domain"
	"github.com/caro-sh/caro/internal/ports"
)

// Refiner reworks low-confidence or non-portable drafts through a bounded
// number of follow-up generation calls against the same backend that
// produced the draft. A draft that is already confident and clean passes
// through untouched.
type Refiner struct {
	settings domain.RefineSettings
	log      *zap.Logger
}

func NewRefiner(settings domain.RefineSettings, log *zap.Logger) *Refiner {
	if settings.MaxIterations <= 0 {
		settings.MaxIterations = domain.DefaultMaxRefineIterations
	}
	if settings.ConfidenceThreshold <= 0 {
		settings.ConfidenceThreshold = domain.DefaultConfidenceThreshold
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Refiner{settings: settings, log: log}
}

// Refine returns the polished draft and the number of iterations spent.
func (r *Refiner) Refine(
	ctx context.Context,
	backend ports.Backend,
	req domain.CommandRequest,
	draft domain.GeneratedCommand,
) (domain.GeneratedCommand, int) {
	for iteration := 0; iteration < r.settings.MaxIterations; iteration++ {
		issues := critique(draft.Command, req.Platform)
		if len(issues) == 0 && draft.Confidence >= r.settings.ConfidenceThreshold {
			return draft, iteration
		}

		followUp := req
		followUp.Prompt = refinementPrompt(req.Prompt, draft, issues)

		next, err := backend.Generate(ctx, followUp)
		if err != nil {
			r.log.Warn("refinement iteration failed, keeping current draft",
				zap.Int("iteration", iteration+1),
				zap.Error(err),
			)
			return draft, iteration + 1
		}

		// Converged: the backend stands by its answer.
		if next.Command == draft.Command {
			if next.Confidence > draft.Confidence {
				draft = next
			}
			return draft, iteration + 1
		}

		// Accept the rework only when it is an improvement.
		if next.Confidence >= draft.Confidence || len(critique(next.Command, req.Platform)) < len(issues) {
			draft = next
			continue
		}
		return draft, iteration + 1
	}
	return draft, r.settings.MaxIterations
}

func refinementPrompt(original string, draft domain.GeneratedCommand, issues []string) string {
	var sb strings.Builder
	sb.WriteString(original)
	fmt.Fprintf(&sb, "\n\nA previous attempt produced: %s", draft.Command)
	if len(issues) > 0 {
		sb.WriteString("\nProblems with that attempt:")
		for _, issue := range issues {
			sb.WriteString("\n- ")
			sb.WriteString(issue)
		}
	}
	sb.WriteString("\nProduce a corrected command for the target platform.")
	return sb.String()
}

// watchedUtilities are command names worth flagging when the host scan did
// not find them. Shell builtins and coreutils stay off this list.
var watchedUtilities = map[string]bool{
	"cargo": true, "curl": true, "docker": true, "git": true, "go": true,
	"jq": true, "kubectl": true, "make": true, "node": true, "npm": true,
	"python3": true, "rsync": true, "wget": true,
}

// critique returns portability problems found in the command for the target
// platform. An empty slice means no known issues.
func critique(command string, platform *domain.PlatformContext) []string {
	if platform == nil {
		return nil
	}
	var issues []string

	if platform.OS == "darwin" || strings.HasSuffix(platform.OS, "bsd") {
		issues = append(issues, bsdIssues(command)...)
	}

	if len(platform.Utilities) > 0 {
		for _, util := range commandNames(command) {
			if watchedUtilities[util] && !platform.HasUtility(util) {
				issues = append(issues, fmt.Sprintf("%s was not detected on this host", util))
			}
		}
	}
	return issues
}

func bsdIssues(command string) []string {
	var issues []string
	if strings.Contains(command, "grep -P") {
		issues = append(issues, "grep -P (PCRE) is not supported by BSD grep")
	}
	if strings.Contains(command, "sed -i ") && !strings.Contains(command, "sed -i ''") {
		issues = append(issues, "BSD sed requires a backup suffix after -i, e.g. sed -i ''")
	}
	if fields := strings.Fields(command); len(fields) > 0 && fields[0] == "free" {
		issues = append(issues, "free does not exist on this platform, use vm_stat")
	}
	for _, gnuOnly := range []string{"ls --", "ps aux --sort", "date -d ", "cp --", "rm --"} {
		if strings.Contains(command, gnuOnly) {
			issues = append(issues, fmt.Sprintf("GNU-style option %q is not portable to BSD userland", strings.TrimSpace(gnuOnly)))
			break
		}
	}
	return issues
}

// commandNames extracts the leading word of each pipeline or chain segment.
func commandNames(command string) []string {
	var names []string
	for _, part := range strings.FieldsFunc(command, func(r rune) bool {
		return r == '|' || r == ';' || r == '&'
	}) {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if name == "sudo" && len(fields) > 1 {
			name = fields[1]
		}
		names = append(names, name)
	}
	return names
}
