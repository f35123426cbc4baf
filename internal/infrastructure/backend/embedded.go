package backend

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/caro-sh/caro/internal/domain"
	"github.com/caro-sh/caro/internal/ports"
)

const (
	embeddedRuleConfidence     = 0.9
	embeddedFallbackConfidence = 0.4
)

// rule maps a natural-language shape to a concrete command. All required
// keywords must appear in the prompt; the regex, when present, wins outright.
type rule struct {
	required []string
	optional []string
	pattern  *regexp.Regexp
	gnu      string
	bsd      string
	summary  string
}

// command returns the platform-appropriate variant of the rule.
func (r rule) command(platform *domain.PlatformContext) string {
	if r.bsd != "" && platform != nil && platform.OS == "darwin" {
		return r.bsd
	}
	return r.gnu
}

// Embedded is the always-available local engine. On darwin/arm64 it reports
// itself as the GPU variant; everywhere else it is the CPU variant. The rule
// table is loaded once, on first use.
type Embedded struct {
	identity domain.BackendIdentity
	log      *zap.Logger

	loadOnce sync.Once
	rules    []rule
}

var _ ports.Backend = (*Embedded)(nil)

// NewEmbedded builds the embedded engine for the current machine.
func NewEmbedded(log *zap.Logger) *Embedded {
	if log == nil {
		log = zap.NewNop()
	}
	kind := domain.KindEmbeddedCPU
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		kind = domain.KindEmbeddedGPU
	}
	return &Embedded{
		identity: domain.BackendIdentity{
			Kind: kind,
			Name: string(kind),
		},
		log: log,
	}
}

func (e *Embedded) Identity() domain.BackendIdentity { return e.identity }

// IsAvailable always reports true. The embedded engine is the floor of the
// fallback chain and must never be the reason generation fails.
func (e *Embedded) IsAvailable(context.Context) bool { return true }

func (e *Embedded) Shutdown() error {
	return nil
}

func (e *Embedded) Generate(ctx context.Context, req domain.CommandRequest) (domain.GeneratedCommand, error) {
	if err := ctx.Err(); err != nil {
		return domain.GeneratedCommand{}, err
	}

	e.loadOnce.Do(func() {
		e.rules = buildRules()
		e.log.Debug("embedded rule table loaded",
			zap.String("backend", e.identity.Name),
			zap.Int("rules", len(e.rules)),
		)
	})

	prompt := strings.ToLower(req.Prompt)
	if r, ok := matchRule(e.rules, prompt); ok {
		return domain.GeneratedCommand{
			Command:     r.command(req.Platform),
			Explanation: r.summary,
			Confidence:  embeddedRuleConfidence,
		}, nil
	}

	return e.fallback(req), nil
}

// fallback produces a best-effort suggestion when no rule matches. The low
// confidence score lets the refinement loop decide whether to rework it.
func (e *Embedded) fallback(req domain.CommandRequest) domain.GeneratedCommand {
	prompt := strings.ToLower(req.Prompt)
	var command string
	switch {
	case strings.Contains(prompt, "docker"):
		command = "docker ps"
	case strings.Contains(prompt, "git"):
		command = "git status"
	case strings.Contains(prompt, "kubernetes") || strings.Contains(prompt, "pod"):
		command = "kubectl get pods"
	case strings.Contains(prompt, "memory") || strings.Contains(prompt, "ram"):
		command = "free -h"
	case strings.Contains(prompt, "network") || strings.Contains(prompt, "port"):
		command = "ss -tlnp"
	default:
		command = "ls -la"
	}
	return domain.GeneratedCommand{
		Command:     command,
		Explanation: fmt.Sprintf("Offline suggestion for %q", req.Prompt),
		Confidence:  embeddedFallbackConfidence,
	}
}

// matchRule returns the first rule whose regex matches, or whose required
// keywords all appear with at least one optional keyword present.
func matchRule(rules []rule, prompt string) (rule, bool) {
	for _, r := range rules {
		if r.pattern != nil && r.pattern.MatchString(prompt) {
			return r, true
		}
		all := true
		for _, kw := range r.required {
			if !strings.Contains(prompt, kw) {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		if r.pattern == nil {
			return r, true
		}
		for _, kw := range r.optional {
			if strings.Contains(prompt, kw) {
				return r, true
			}
		}
	}
	return rule{}, false
}

func buildRules() []rule {
	return []rule{
		{
			required: []string{"file", "modified", "today"},
			optional: []string{"list", "all", "show"},
			pattern:  regexp.MustCompile(`(list|show|find|get).*(files?).*(modified|changed|updated).*(today|last 24 hours?)`),
			gnu:      "find . -type f -mtime 0",
			summary:  "List files modified in the last day",
		},
		{
			required: []string{"large", "file", "100"},
			optional: []string{"find", "over", "mb"},
			pattern:  regexp.MustCompile(`(find|locate|show|list).*(large|big).*(files?).*(over|above|bigger|greater).*100`),
			gnu:      "find . -type f -size +100M",
			summary:  "Find files larger than 100MB",
		},
		{
			required: []string{"disk", "usage"},
			optional: []string{"folder", "director", "show"},
			pattern:  regexp.MustCompile(`(show|display|list|get).*(disk|space).*(usage|size)`),
			gnu:      "du -sh */ | sort -rh | head -10",
			summary:  "Show disk usage by directory",
		},
		{
			required: []string{"python", "file", "week"},
			optional: []string{"find", "modified", "last"},
			pattern:  regexp.MustCompile(`(find|locate|list|show).*(python|\.py).*files?.*(modified|changed|updated).*(last|past) week`),
			gnu:      `find . -name "*.py" -type f -mtime -7`,
			summary:  "Find Python files modified in the last week",
		},
		{
			required: []string{"file", "larger", "10"},
			optional: []string{"find", "mb", "bigger"},
			gnu:      "find . -type f -size +10M",
			summary:  "Find files larger than 10MB",
		},
		{
			required: []string{"list", "file"},
			optional: []string{"all", "hidden", "detail"},
			gnu:      "ls -la",
			summary:  "List files with details",
		},
		{
			required: []string{"process", "cpu"},
			optional: []string{"top", "most", "show"},
			pattern:  regexp.MustCompile(`(top|show|list).*(process).*(cpu)|(cpu).*(process)`),
			gnu:      "ps aux --sort=-%cpu | head -10",
			bsd:      "ps aux -r | head -10",
			summary:  "Show the processes using the most CPU",
		},
		{
			required: []string{"count", "line"},
			optional: []string{"file", "code"},
			gnu:      "find . -type f -name '*' | xargs wc -l",
			summary:  "Count lines across files",
		},
		{
			required: []string{"free", "disk", "space"},
			optional: []string{"show", "how much"},
			gnu:      "df -h",
			summary:  "Show free disk space per filesystem",
		},
		{
			required: []string{"search", "text"},
			optional: []string{"file", "recursive", "grep"},
			gnu:      "grep -rn 'PATTERN' .",
			summary:  "Search file contents recursively",
		},
	}
}
