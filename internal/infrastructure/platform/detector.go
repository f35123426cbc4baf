// Package platform detects the execution environment a generated command
// will run in: OS, architecture, login shell, and which common utilities are
// on PATH.
package platform

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/caro-sh/caro/internal/domain"
	"github.com/caro-sh/caro/internal/ports"
)

// Detector implements ports.PlatformDetector with PATH lookups.
type Detector struct {
	utilities []string
}

var _ ports.PlatformDetector = (*Detector)(nil)

func NewDetector() *Detector {
	return &Detector{
		utilities: []string{
			"awk", "cargo", "curl", "docker", "find", "git", "go", "grep",
			"jq", "kubectl", "make", "node", "npm", "python3", "rsync",
			"sed", "tar", "wget", "xargs",
		},
	}
}

// Detect gathers the platform snapshot. It never fails; missing information
// degrades to defaults.
func (d *Detector) Detect(ctx context.Context) domain.PlatformContext {
	return domain.PlatformContext{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		Shell:        detectShell(),
		Utilities:    d.availableUtilities(ctx),
	}
}

func (d *Detector) availableUtilities(ctx context.Context) []string {
	var found []string
	for _, util := range d.utilities {
		if ctx.Err() != nil {
			break
		}
		if _, err := exec.LookPath(util); err == nil {
			found = append(found, util)
		}
	}
	sort.Strings(found)
	return found
}

func detectShell() domain.ShellType {
	if runtime.GOOS == "windows" {
		return domain.ShellPowerShell
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return domain.ParseShellType(filepath.Base(shell))
	}
	return domain.ShellBash
}
