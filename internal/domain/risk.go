// Package domain defines core business entities and value objects for caro.
//
// The domain layer is independent of infrastructure concerns and represents
// pure business logic and data structures: risk classification, command
// generation requests and results, backend descriptors, and configuration.
package domain

// RiskLevel is the ordered classification assigned to a command segment.
// Higher values are more severe.
type RiskLevel int

const (
	RiskSafe RiskLevel = iota
	RiskModerate
	RiskHigh
	RiskCritical
)

// String implements fmt.Stringer.
func (r RiskLevel) String() string {
	switch r {
	case RiskSafe:
		return "safe"
	case RiskModerate:
		return "moderate"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseRiskLevel maps a textual level (as found in pattern files) to a
// RiskLevel. Unknown values map to RiskSafe.
func ParseRiskLevel(value string) RiskLevel {
	switch value {
	case "moderate", "medium":
		return RiskModerate
	case "high":
		return RiskHigh
	case "critical":
		return RiskCritical
	default:
		return RiskSafe
	}
}

// DangerPattern is an immutable registry entry pairing a match rule with a
// risk level, a human-readable explanation, and a category tag.
type DangerPattern struct {
	Pattern     string
	Level       RiskLevel
	Description string
	Category    string
	// Shell restricts the pattern to one shell family. Empty means all shells.
	Shell ShellType
	// MatchesLiterals applies the pattern to quoted string content as well.
	// Needed for interpreter payloads (python -c, perl -e) where the quoted
	// argument is itself executable context.
	MatchesLiterals bool
}

// Pattern categories used by the built-in registry.
const (
	CategoryFilesystem   = "filesystem-destruction"
	CategoryDisk         = "disk-operation"
	CategoryForkBomb     = "fork-bomb"
	CategoryPrivilege    = "privilege-escalation"
	CategoryRemoteExec   = "remote-execution"
	CategoryNetwork      = "network"
	CategorySystemConfig = "system-configuration"
	CategoryProcess      = "process-manipulation"
	CategoryPermissions  = "permissions"
	CategoryPackages     = "package-management"
	CategoryScheduling   = "scheduling"
	CategoryCustom       = "custom"
)

// SafetyVerdict is the output of validating one command string.
type SafetyVerdict struct {
	Allowed              bool
	Level                RiskLevel
	MatchedPatterns      []DangerPattern
	Explanation          string
	RequiresConfirmation bool
}
