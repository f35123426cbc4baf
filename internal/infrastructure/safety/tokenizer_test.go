package safety

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/caro-sh/caro/internal/domain"
)

func segmentRaws(res scanResult) []string {
	out := make([]string, 0, len(res.segments))
	for _, s := range res.segments {
		out = append(out, s.raw)
	}
	return out
}

func TestScanSplitsOnOperators(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{"pipeline", "ps aux | grep go | wc -l", []string{"ps aux", "grep go", "wc -l"}},
		{"and-chain", "mkdir build && cd build", []string{"mkdir build", "cd build"}},
		{"semicolon", "ls ; pwd", []string{"ls", "pwd"}},
		{"background", "sleep 10 & echo done", []string{"sleep 10", "echo done"}},
		{"single", "ls -la", []string{"ls -la"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := scan(tt.command, domain.ShellBash)
			if diff := cmp.Diff(tt.want, segmentRaws(res)); diff != "" {
				t.Errorf("segments mismatch (-want +got):\n%s", diff)
			}
			if res.ambiguous {
				t.Error("well-formed input marked ambiguous")
			}
		})
	}
}

func TestScanOperatorsInsideQuotesDoNotSplit(t *testing.T) {
	res := scan(`echo "a | b ; c"`, domain.ShellBash)
	if len(res.segments) != 1 {
		t.Fatalf("expected one segment, got %v", segmentRaws(res))
	}
}

func TestScanBlanksQuotedLiterals(t *testing.T) {
	res := scan(`echo "rm -rf /"`, domain.ShellBash)
	if len(res.segments) != 1 {
		t.Fatalf("expected one segment, got %v", segmentRaws(res))
	}
	if got := res.segments[0].matchable; got != "echo" {
		t.Fatalf("matchable = %q, want quoted content blanked", got)
	}
}

func TestScanUnquotedViewKeepsLiteralContents(t *testing.T) {
	res := scan(`rm -rf '/'`, domain.ShellBash)
	if len(res.segments) != 1 {
		t.Fatalf("expected one segment, got %v", segmentRaws(res))
	}
	seg := res.segments[0]
	if seg.unquoted != "rm -rf /" {
		t.Fatalf("unquoted = %q, want quote characters removed", seg.unquoted)
	}
	if seg.literalAt(0) {
		t.Error("command word must not be marked as literal")
	}
	if !seg.literalAt(len(seg.unquoted) - 1) {
		t.Error("quoted argument byte must be marked as literal")
	}

	res = scan(`echo "rm -rf /"`, domain.ShellBash)
	seg = res.segments[0]
	if seg.unquoted != "echo rm -rf /" {
		t.Fatalf("unquoted = %q", seg.unquoted)
	}
	if !seg.literalAt(5) {
		t.Error("quoted data must be marked as literal")
	}
}

func TestScanBacktickInsideDoubleQuotes(t *testing.T) {
	res := scan("echo \"now: `date`\"", domain.ShellBash)
	raws := segmentRaws(res)
	if len(raws) != 2 || raws[0] != "date" {
		t.Fatalf("backtick body inside double quotes not extracted: %v", raws)
	}
	if res.ambiguous {
		t.Error("well-formed input marked ambiguous")
	}
}

func TestScanSubstitutionWithQuotedParen(t *testing.T) {
	res := scan(`echo $(printf ")") done`, domain.ShellBash)
	want := []string{`printf ")"`, `echo $(printf ")") done`}
	if diff := cmp.Diff(want, segmentRaws(res)); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
	if res.ambiguous {
		t.Error("quoted paren must not leave the substitution unterminated")
	}
}

func TestScanExtractsCommandSubstitution(t *testing.T) {
	res := scan(`echo "today: $(date -u)"`, domain.ShellBash)
	raws := segmentRaws(res)
	want := []string{"date -u", `echo "today: $(date -u)"`}
	if diff := cmp.Diff(want, raws); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
}

func TestScanNestedSubstitution(t *testing.T) {
	res := scan(`echo $(basename $(pwd))`, domain.ShellBash)
	var found bool
	for _, s := range res.segments {
		if s.raw == "basename $(pwd)" || s.raw == "pwd" {
			found = true
		}
	}
	if !found {
		t.Fatalf("substitution bodies not extracted: %v", segmentRaws(res))
	}
}

func TestScanBackticks(t *testing.T) {
	res := scan("echo `whoami`", domain.ShellBash)
	raws := segmentRaws(res)
	if len(raws) != 2 || raws[0] != "whoami" {
		t.Fatalf("backtick body not extracted: %v", raws)
	}
}

func TestScanStripsComments(t *testing.T) {
	res := scan("ls -la # trailing note", domain.ShellBash)
	if len(res.segments) != 1 || res.segments[0].raw != "ls -la" {
		t.Fatalf("comment not stripped: %v", segmentRaws(res))
	}
}

func TestScanHashInsideWordIsNotComment(t *testing.T) {
	res := scan("cat report#1.txt", domain.ShellBash)
	if len(res.segments) != 1 || res.segments[0].raw != "cat report#1.txt" {
		t.Fatalf("mid-word hash treated as comment: %v", segmentRaws(res))
	}
}

func TestScanUnterminatedQuoteIsOpaque(t *testing.T) {
	res := scan(`echo "unterminated rm -rf /`, domain.ShellBash)
	if !res.ambiguous {
		t.Fatal("expected ambiguous result")
	}
	if len(res.segments) != 1 || !res.segments[0].opaque {
		t.Fatalf("expected one opaque segment, got %+v", res.segments)
	}
	// Opaque segments stay fully matchable so danger text is still caught.
	if res.segments[0].matchable != res.segments[0].raw {
		t.Fatal("opaque segment must keep raw text matchable")
	}
}

func TestScanEscapedQuote(t *testing.T) {
	res := scan(`echo \"hello\"`, domain.ShellBash)
	if res.ambiguous {
		t.Fatal("escaped quotes must not open a quote context")
	}
	if len(res.segments) != 1 {
		t.Fatalf("expected one segment, got %v", segmentRaws(res))
	}
}

func TestScanCmdShellSkipsPosixSyntax(t *testing.T) {
	res := scan(`del report#1.txt`, domain.ShellCmd)
	if len(res.segments) != 1 || res.segments[0].raw != "del report#1.txt" {
		t.Fatalf("cmd shell should not apply posix comment rules: %v", segmentRaws(res))
	}
}
