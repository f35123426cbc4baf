package domain

// ShellType identifies the shell dialect a command targets.
type ShellType string

const (
	ShellBash       ShellType = "bash"
	ShellZsh        ShellType = "zsh"
	ShellFish       ShellType = "fish"
	ShellPosix      ShellType = "sh"
	ShellPowerShell ShellType = "powershell"
	ShellCmd        ShellType = "cmd"
)

// ParseShellType normalizes a shell name ("bash", "/bin/zsh", ...) into a
// ShellType, defaulting to bash for anything unrecognized.
func ParseShellType(name string) ShellType {
	switch name {
	case "zsh", "/bin/zsh", "/usr/bin/zsh":
		return ShellZsh
	case "fish", "/usr/bin/fish":
		return ShellFish
	case "sh", "posix", "/bin/sh", "dash":
		return ShellPosix
	case "powershell", "pwsh":
		return ShellPowerShell
	case "cmd", "cmd.exe":
		return ShellCmd
	default:
		return ShellBash
	}
}

// PlatformContext describes the host a generated command will run on.
// Supplied by the platform-detection collaborator; read-only thereafter.
type PlatformContext struct {
	OS           string
	Architecture string
	Shell        ShellType
	// Utilities lists command names known to exist on this host (ls, gsed, ...).
	Utilities []string
}

// HasUtility reports whether the named utility was detected on the host.
func (p PlatformContext) HasUtility(name string) bool {
	for _, u := range p.Utilities {
		if u == name {
			return true
		}
	}
	return false
}

// CommandRequest is the immutable input handed to a generation backend.
type CommandRequest struct {
	Prompt   string
	Shell    ShellType
	Platform *PlatformContext
}

// GeneratedCommand is a backend's draft output: a command string, a short
// explanation, and the backend's own confidence in [0.0, 1.0].
type GeneratedCommand struct {
	Command     string
	Explanation string
	Confidence  float64
}
