package safety

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/caro-sh/caro/internal/domain"
	"github.com/caro-sh/caro/internal/ports"
)

// Validator classifies candidate commands against the pattern registry.
type Validator struct {
	registry *Registry
	log      *zap.Logger
}

// NewValidator builds a validator over a compiled registry.
func NewValidator(registry *Registry, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{registry: registry, log: log}
}

// Validate implements ports.SafetyValidator.
//
// Compound commands are evaluated per segment: each pipeline or chain member
// is classified independently and the verdict takes the maximum risk across
// segments, with MatchedPatterns listing every segment's hits. Patterns are
// applied in risk-descending order and the first critical match
// short-circuits with Allowed=false. Malformed input (unterminated quotes)
// never errors; the remainder becomes one opaque segment floored at
// moderate risk.
func (v *Validator) Validate(command string, shell domain.ShellType) domain.SafetyVerdict {
	res := scan(command, shell)

	highest := domain.RiskSafe
	var matched []domain.DangerPattern

scanning:
	for _, p := range v.registry.patterns {
		if p.rule.Shell != "" && p.rule.Shell != shell {
			continue
		}

		hit := false
		for _, seg := range res.segments {
			view := seg.matchable
			if p.rule.MatchesLiterals {
				view = seg.raw
			}
			if p.re.MatchString(view) || (!p.rule.MatchesLiterals && matchesUnquoted(p.re, seg)) {
				matched = append(matched, p.rule)
				hit = true
				if p.rule.Level > highest {
					highest = p.rule.Level
				}
				if p.rule.Level == domain.RiskCritical {
					break scanning
				}
			}
		}

		// Patterns such as pipe-to-shell and fork bombs describe whole
		// pipelines; give them one pass over the operator-preserving view.
		whole := res.blanked
		if p.rule.MatchesLiterals {
			whole = command
		}
		if !hit && p.re.MatchString(whole) {
			matched = append(matched, p.rule)
			if p.rule.Level > highest {
				highest = p.rule.Level
			}
			if p.rule.Level == domain.RiskCritical {
				break scanning
			}
		}
	}

	if res.ambiguous && highest < domain.RiskModerate {
		highest = domain.RiskModerate
	}

	verdict := domain.SafetyVerdict{
		Allowed:              highest != domain.RiskCritical,
		Level:                highest,
		MatchedPatterns:      matched,
		Explanation:          explain(matched, res.ambiguous),
		RequiresConfirmation: highest >= domain.RiskModerate,
	}

	v.log.Debug("validated command",
		zap.String("shell", string(shell)),
		zap.Stringer("risk", verdict.Level),
		zap.Int("segments", len(res.segments)),
		zap.Int("matches", len(matched)),
	)
	return verdict
}

// matchesUnquoted applies a pattern to the segment's quote-stripped text and
// accepts only matches that begin outside a quoted literal. Quoting an
// argument does not defuse the command that receives it (rm -rf '/' is still
// rm -rf /), but a dangerous string that is purely quoted data to a harmless
// command (echo "rm -rf /") never anchors a match.
func matchesUnquoted(re *regexp.Regexp, seg segment) bool {
	for _, loc := range re.FindAllStringIndex(seg.unquoted, -1) {
		if !seg.literalAt(loc[0]) {
			return true
		}
	}
	return false
}

func explain(matched []domain.DangerPattern, ambiguous bool) string {
	if len(matched) == 0 {
		if ambiguous {
			return "Command could not be fully tokenized (unterminated quote); treat with caution"
		}
		return "No dangerous patterns matched"
	}

	seen := make(map[string]bool, len(matched))
	parts := make([]string, 0, len(matched))
	for _, m := range matched {
		if seen[m.Description] {
			continue
		}
		seen[m.Description] = true
		parts = append(parts, m.Description)
	}
	out := strings.Join(parts, "; ")
	if ambiguous {
		out += "; tokenization was ambiguous"
	}
	return out
}

var _ ports.SafetyValidator = (*Validator)(nil)
