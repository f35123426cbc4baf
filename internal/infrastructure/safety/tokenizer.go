package safety

import (
	"strings"

	"github.com/caro-sh/caro/internal/domain"
)

// segment is one independently classifiable piece of a compound command.
//
// raw is the original text. matchable is raw with quoted string literals
// blanked out and comments stripped, so a dangerous substring inside a
// literal cannot trigger a pattern written for an invocable command token.
// unquoted is raw with the quote characters removed but their contents kept
// (the shell's own view after quote removal: rm -rf '/' becomes rm -rf /);
// quoted is a parallel per-byte mask marking which bytes of unquoted came
// from inside a literal, so the validator can tell a quoted argument to a
// dangerous command from quoted data handed to a harmless one.
// opaque marks a segment whose tokenization was ambiguous (unterminated
// quote); opaque segments keep their full text matchable and the validator
// floors their risk at moderate.
type segment struct {
	raw       string
	matchable string
	unquoted  string
	quoted    []bool
	opaque    bool
}

// literalAt reports whether byte i of unquoted originated inside a quoted
// literal.
func (s segment) literalAt(i int) bool {
	return i >= 0 && i < len(s.quoted) && s.quoted[i]
}

// scanResult is the output of scanning one command line.
type scanResult struct {
	segments []segment
	// blanked is the whole command with literals blanked but operators kept,
	// for patterns that intentionally span segment boundaries (pipe-to-shell,
	// fork bombs).
	blanked   string
	ambiguous bool
}

// scan splits a command line into segments on shell operators (|, ;, &,
// newline) while respecting single/double-quote and escape boundaries.
// Command substitution re-enters executable context: $(...) and `...` bodies
// are scanned recursively and their segments appended, since text that looks
// like a literal can still execute. Backticks keep that meaning inside
// double quotes too.
func scan(command string, shell domain.ShellType) scanResult {
	var res scanResult
	var raw, matchable, blanked, unq strings.Builder
	var mask []bool
	posix := shell != domain.ShellCmd

	writeExec := func(b byte) {
		unq.WriteByte(b)
		mask = append(mask, false)
	}
	writeLit := func(b byte) {
		unq.WriteByte(b)
		mask = append(mask, true)
	}

	flush := func(opaque bool) {
		r := strings.TrimSpace(raw.String())
		m := strings.TrimSpace(matchable.String())
		u, q := trimUnquoted(unq.String(), mask)
		if opaque {
			m = r
			u = r
			q = nil
		}
		if r != "" {
			res.segments = append(res.segments, segment{raw: r, matchable: m, unquoted: u, quoted: q, opaque: opaque})
		}
		raw.Reset()
		matchable.Reset()
		unq.Reset()
		mask = nil
	}

	inSingle, inDouble := false, false
	i := 0
	for i < len(command) {
		c := command[i]

		switch {
		case inSingle:
			raw.WriteByte(c)
			blanked.WriteByte(' ')
			if c == '\'' {
				inSingle = false
				matchable.WriteByte(' ')
			} else {
				writeLit(c)
			}
			i++

		case inDouble:
			if c == '\\' && i+1 < len(command) {
				raw.WriteByte(c)
				raw.WriteByte(command[i+1])
				blanked.WriteString("  ")
				writeLit(command[i+1])
				i += 2
				continue
			}
			if posix && c == '$' && i+1 < len(command) && command[i+1] == '(' {
				i = consumeSubstitution(command, i, shell, &raw, &blanked, &res)
				writeExec(' ')
				continue
			}
			if posix && c == '`' {
				end := strings.IndexByte(command[i+1:], '`')
				if end < 0 {
					res.ambiguous = true
					raw.WriteString(command[i:])
					blanked.WriteString(strings.Repeat(" ", len(command)-i))
					i = len(command)
					continue
				}
				body := command[i+1 : i+1+end]
				raw.WriteString(command[i : i+end+2])
				blanked.WriteString(strings.Repeat(" ", end+2))
				sub := scan(body, shell)
				res.segments = append(res.segments, sub.segments...)
				res.ambiguous = res.ambiguous || sub.ambiguous
				writeExec(' ')
				i += end + 2
				continue
			}
			raw.WriteByte(c)
			blanked.WriteByte(' ')
			if c == '"' {
				inDouble = false
				matchable.WriteByte(' ')
			} else {
				writeLit(c)
			}
			i++

		default:
			switch {
			case c == '\\' && i+1 < len(command):
				raw.WriteByte(c)
				raw.WriteByte(command[i+1])
				matchable.WriteByte(c)
				matchable.WriteByte(command[i+1])
				blanked.WriteByte(c)
				blanked.WriteByte(command[i+1])
				writeExec(c)
				writeExec(command[i+1])
				i += 2

			case c == '\'':
				inSingle = true
				raw.WriteByte(c)
				blanked.WriteByte(' ')
				i++

			case c == '"':
				inDouble = true
				raw.WriteByte(c)
				blanked.WriteByte(' ')
				i++

			case posix && c == '$' && i+1 < len(command) && command[i+1] == '(':
				i = consumeSubstitution(command, i, shell, &raw, &blanked, &res)
				writeExec(' ')

			case posix && c == '`':
				end := strings.IndexByte(command[i+1:], '`')
				if end < 0 {
					res.ambiguous = true
					raw.WriteString(command[i:])
					blanked.WriteString(command[i:])
					i = len(command)
					continue
				}
				body := command[i+1 : i+1+end]
				raw.WriteString(command[i : i+end+2])
				blanked.WriteString(strings.Repeat(" ", end+2))
				sub := scan(body, shell)
				res.segments = append(res.segments, sub.segments...)
				res.ambiguous = res.ambiguous || sub.ambiguous
				matchable.WriteByte(' ')
				writeExec(' ')
				i += end + 2

			case posix && c == '#' && startsToken(command, i):
				// comment runs to end of line
				nl := strings.IndexByte(command[i:], '\n')
				if nl < 0 {
					i = len(command)
				} else {
					i += nl
				}

			case c == '|' || c == ';' || c == '&' || c == '\n':
				flush(false)
				blanked.WriteByte(c)
				i++

			default:
				raw.WriteByte(c)
				matchable.WriteByte(c)
				blanked.WriteByte(c)
				writeExec(c)
				i++
			}
		}
	}

	if inSingle || inDouble {
		res.ambiguous = true
		flush(true)
	} else {
		flush(false)
	}
	res.blanked = blanked.String()
	return res
}

// trimUnquoted trims surrounding whitespace from the unquoted view and its
// quote mask in lockstep so the byte offsets stay aligned.
func trimUnquoted(u string, mask []bool) (string, []bool) {
	for len(u) > 0 && (u[0] == ' ' || u[0] == '\t') {
		u = u[1:]
		mask = mask[1:]
	}
	for len(u) > 0 && (u[len(u)-1] == ' ' || u[len(u)-1] == '\t') {
		u = u[:len(u)-1]
		mask = mask[:len(mask)-1]
	}
	return u, mask
}

// consumeSubstitution reads a $(...) body starting at the '$', appends its
// scanned segments, and returns the index past the closing paren. Parens
// inside quoted literals within the body do not affect nesting depth. An
// unterminated substitution consumes the rest of the input and marks the
// result ambiguous.
func consumeSubstitution(command string, start int, shell domain.ShellType, raw, blanked *strings.Builder, res *scanResult) int {
	depth := 0
	end := -1
	inSingle, inDouble := false, false
	for j := start + 1; j < len(command); j++ {
		c := command[j]
		switch {
		case c == '\\' && !inSingle && j+1 < len(command):
			j++
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				end = j
			}
		}
		if end >= 0 {
			break
		}
	}

	if end < 0 {
		res.ambiguous = true
		body := command[start+2:]
		raw.WriteString(command[start:])
		blanked.WriteString(strings.Repeat(" ", len(command)-start))
		sub := scan(body, shell)
		res.segments = append(res.segments, sub.segments...)
		return len(command)
	}

	body := command[start+2 : end]
	raw.WriteString(command[start : end+1])
	blanked.WriteString(strings.Repeat(" ", end+1-start))
	sub := scan(body, shell)
	res.segments = append(res.segments, sub.segments...)
	res.ambiguous = res.ambiguous || sub.ambiguous
	return end + 1
}

// startsToken reports whether position i begins a new token (start of input
// or preceded by whitespace), so "#" in the middle of a word is not treated
// as a comment marker.
func startsToken(command string, i int) bool {
	if i == 0 {
		return true
	}
	prev := command[i-1]
	return prev == ' ' || prev == '\t' || prev == '\n' || prev == ';' || prev == '|' || prev == '&'
}
