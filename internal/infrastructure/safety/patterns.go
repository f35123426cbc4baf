package safety

import "github.com/caro-sh/caro/internal/domain"

// builtinPatterns returns the built-in danger signature set. The registry
// compiles these once at startup; the slice is never mutated afterwards.
func builtinPatterns() []domain.DangerPattern {
	return []domain.DangerPattern{
		// Filesystem destruction
		{
			Pattern:     `rm\s+(-[rfRF]+\s+)*(--no-preserve-root\s+)?(/|~|\$HOME|/\*|~/\*)(\s|$)`,
			Level:       domain.RiskCritical,
			Description: "Recursive deletion of root or home directory",
			Category:    domain.CategoryFilesystem,
		},
		{
			Pattern:     `rm\s+-[rR]f?\s+\*`,
			Level:       domain.RiskCritical,
			Description: "Recursive deletion of everything in the current directory",
			Category:    domain.CategoryFilesystem,
		},
		{
			Pattern:     `rm\s+-r[f]*\s+[A-Za-z]:[/\\]`,
			Level:       domain.RiskCritical,
			Description: "Recursive deletion of a Windows drive root",
			Category:    domain.CategoryFilesystem,
		},
		{
			Pattern:     `Remove-Item\s+.*-Recurse\s+.*-Force\s+[A-Za-z]:\\`,
			Level:       domain.RiskCritical,
			Description: "Recursive deletion of a Windows drive root",
			Category:    domain.CategoryFilesystem,
			Shell:       domain.ShellPowerShell,
		},
		{
			Pattern:     `del\s+/[fFsS]+\s+`,
			Level:       domain.RiskCritical,
			Description: "Windows delete with force/subdirectory flags",
			Category:    domain.CategoryFilesystem,
		},
		// Disk operations
		{
			Pattern:     `dd\s+.*if=/dev/(zero|random|urandom).*of=/dev/(sd|hd|nvme)`,
			Level:       domain.RiskCritical,
			Description: "Overwrite a disk device with raw data",
			Category:    domain.CategoryDisk,
		},
		{
			Pattern:     `dd\s+.*of=/dev/(sd|hd|nvme)`,
			Level:       domain.RiskCritical,
			Description: "Raw write to a disk device",
			Category:    domain.CategoryDisk,
		},
		{
			Pattern:     `mkfs(\.\w+)?\s+/dev/`,
			Level:       domain.RiskCritical,
			Description: "Format a disk, destroying all data",
			Category:    domain.CategoryDisk,
		},
		{
			Pattern:     `>\s*/dev/(sd[a-z]|hd[a-z]|nvme\d+)`,
			Level:       domain.RiskCritical,
			Description: "Redirect output directly onto a block device",
			Category:    domain.CategoryDisk,
		},
		{
			Pattern:     `shred\s+(-\w+\s+)*/dev/(sd|hd|nvme)`,
			Level:       domain.RiskCritical,
			Description: "Securely erase a disk device",
			Category:    domain.CategoryDisk,
		},
		{
			Pattern:     `format\s+[A-Za-z]:`,
			Level:       domain.RiskCritical,
			Description: "Format a drive",
			Category:    domain.CategoryDisk,
		},
		// Fork bombs
		{
			Pattern:     `:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`,
			Level:       domain.RiskCritical,
			Description: "Fork bomb: exponential process creation",
			Category:    domain.CategoryForkBomb,
		},
		// Remote execution
		{
			Pattern:     `(curl|wget)\s+[^|;]*\|\s*sudo\s+(bash|sh|zsh)`,
			Level:       domain.RiskCritical,
			Description: "Download and execute a remote script as root",
			Category:    domain.CategoryRemoteExec,
		},
		{
			Pattern:     `(curl|wget)\s+[^|;]*\|\s*(bash|sh|zsh|fish)(\s|$)`,
			Level:       domain.RiskHigh,
			Description: "Download and execute a remote script without inspection",
			Category:    domain.CategoryRemoteExec,
		},
		// Network backdoors
		{
			Pattern:     `nc\s+(-\w+\s+)*-[a-z]*e\s*(/bin/)?(ba)?sh`,
			Level:       domain.RiskCritical,
			Description: "Netcat shell binding: creates a network backdoor",
			Category:    domain.CategoryNetwork,
		},
		{
			Pattern:     `iptables\s+-F`,
			Level:       domain.RiskModerate,
			Description: "Flush all firewall rules",
			Category:    domain.CategoryNetwork,
		},
		{
			Pattern:     `ufw\s+disable`,
			Level:       domain.RiskModerate,
			Description: "Disable the firewall",
			Category:    domain.CategoryNetwork,
		},
		// Privilege escalation
		{
			Pattern:     `sudo\s+su(\s+-\S*)?\s*$`,
			Level:       domain.RiskHigh,
			Description: "Switch to the root user without a specific command",
			Category:    domain.CategoryPrivilege,
		},
		{
			Pattern:     `sudo\s+.*chmod\s+u\+s`,
			Level:       domain.RiskHigh,
			Description: "Add a setuid bit with elevated privileges",
			Category:    domain.CategoryPrivilege,
		},
		{
			Pattern:     `sudo\s+rm\s`,
			Level:       domain.RiskHigh,
			Description: "Delete files with elevated privileges",
			Category:    domain.CategoryPrivilege,
		},
		// System directories and configuration
		{
			Pattern:     `(rm|mv|chmod|chown)\s+[^;|&]*(/bin|/sbin|/usr/bin|/usr/sbin|/etc)(/|\s|$)`,
			Level:       domain.RiskHigh,
			Description: "Modification of a critical system directory",
			Category:    domain.CategorySystemConfig,
		},
		{
			Pattern:     `>\s*/etc/`,
			Level:       domain.RiskHigh,
			Description: "Redirect output into a system configuration file",
			Category:    domain.CategorySystemConfig,
		},
		{
			Pattern:     `sudo\s+(systemctl|service)\s+(stop|disable|mask)`,
			Level:       domain.RiskHigh,
			Description: "Stop or disable a system service",
			Category:    domain.CategorySystemConfig,
		},
		{
			Pattern:     `Set-ExecutionPolicy\s+Unrestricted`,
			Level:       domain.RiskHigh,
			Description: "Disable PowerShell execution policy protection",
			Category:    domain.CategorySystemConfig,
			Shell:       domain.ShellPowerShell,
		},
		// Permissions
		{
			Pattern:     `chmod\s+(-R\s+)?777\s+/(\s|$)`,
			Level:       domain.RiskHigh,
			Description: "World-writable permissions from the filesystem root",
			Category:    domain.CategoryPermissions,
		},
		{
			Pattern:     `chmod\s+777\s+`,
			Level:       domain.RiskModerate,
			Description: "Overly permissive chmod",
			Category:    domain.CategoryPermissions,
		},
		{
			Pattern:     `chown\s+(-R\s+)?\S+\s+/(\s|$)`,
			Level:       domain.RiskHigh,
			Description: "Recursive ownership change from the filesystem root",
			Category:    domain.CategoryPermissions,
		},
		// Process manipulation
		{
			Pattern:     `kill\s+-9\s+(-1|1)(\s|$)`,
			Level:       domain.RiskHigh,
			Description: "Force-kill all processes or init",
			Category:    domain.CategoryProcess,
		},
		{
			Pattern:     `killall\s+-9\s+\w+`,
			Level:       domain.RiskModerate,
			Description: "Force-kill all processes by name",
			Category:    domain.CategoryProcess,
		},
		// Package management
		{
			Pattern:     `(apt|apt-get|yum|dnf)\s+(remove|purge)\s+.*--force`,
			Level:       domain.RiskModerate,
			Description: "Force removal of packages bypassing dependency checks",
			Category:    domain.CategoryPackages,
		},
		{
			Pattern:     `pip3?\s+install\s+.*--break-system-packages`,
			Level:       domain.RiskModerate,
			Description: "Install Python packages bypassing system protections",
			Category:    domain.CategoryPackages,
		},
		// Scheduling
		{
			Pattern:     `crontab\s+-r`,
			Level:       domain.RiskHigh,
			Description: "Remove all cron jobs",
			Category:    domain.CategoryScheduling,
		},
		// Script-language escapes
		{
			Pattern:         `(python3?|perl|ruby)\s+-[ec]\s+.*system\s*\(`,
			Level:           domain.RiskHigh,
			Description:     "Script interpreter executing shell commands",
			Category:        domain.CategoryRemoteExec,
			MatchesLiterals: true,
		},
		{
			Pattern:         `python3?\s+-c\s+.*os\.system.*rm\s+-rf`,
			Level:           domain.RiskCritical,
			Description:     "Python one-liner performing recursive deletion",
			Category:        domain.CategoryFilesystem,
			MatchesLiterals: true,
		},
		// History / trace tampering
		{
			Pattern:     `history\s+-c`,
			Level:       domain.RiskModerate,
			Description: "Clear shell history",
			Category:    domain.CategorySystemConfig,
		},
		// Docker
		{
			Pattern:     `docker\s+run\s+.*--privileged`,
			Level:       domain.RiskHigh,
			Description: "Docker container with full host access",
			Category:    domain.CategoryPrivilege,
		},
	}
}
