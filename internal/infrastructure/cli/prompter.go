package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caro-sh/caro/internal/domain"
)

// Prompter asks for confirmation before a risky command is handed over.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Confirm gates on the verdict level. High risk demands a typed "yes";
// moderate risk accepts y/N. Critical commands never reach here.
func (p *Prompter) Confirm(verdict domain.SafetyVerdict, command string) (bool, error) {
	fmt.Fprintf(p.out, "\n%s risk detected for:\n  %s\n", strings.ToUpper(verdict.Level.String()), command)
	if verdict.Explanation != "" {
		fmt.Fprintf(p.out, "  %s\n", verdict.Explanation)
	}

	if verdict.Level >= domain.RiskHigh {
		return p.askExplicit()
	}
	return p.ask()
}

func (p *Prompter) ask() (bool, error) {
	fmt.Fprint(p.out, "Continue? [y/N]: ")
	line, err := p.in.ReadString('\n')
	if err != nil {
		return false, err
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes", nil
}

func (p *Prompter) askExplicit() (bool, error) {
	fmt.Fprint(p.out, "Type 'yes' to continue (anything else cancels): ")
	line, err := p.in.ReadString('\n')
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(line) == "yes", nil
}
