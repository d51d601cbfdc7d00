// Package denial renders a human-readable denial message to stderr: a
// bordered box naming the matched rule, the reason, a caret-annotated
// span of the offending command, and the short code to redeem an
// exception. Colors degrade to plain ASCII under NO_COLOR/DCG_NO_COLOR/
// TERM=dumb or when stderr isn't a terminal, mirroring the teacher's own
// isTerminalFn-gated color handling.
package denial

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/agentguard/dcg/internal/packs"
)

// Theme is a value, not process-global state: every call site constructs
// one from the current environment and passes it through explicitly,
// so a test can exercise both color and plain rendering in the same
// process without mutating shared state.
type Theme struct {
	Color bool
}

// DetectTheme inspects fd and the usual color-suppression environment
// variables to decide whether ANSI escapes are safe to emit.
func DetectTheme(fd uintptr) Theme {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("DCG_NO_COLOR") != "" {
		return Theme{Color: false}
	}
	if os.Getenv("TERM") == "dumb" {
		return Theme{Color: false}
	}
	return Theme{Color: term.IsTerminal(int(fd))}
}

const (
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBold   = "\x1b[1m"
	ansiDim    = "\x1b[2m"
	ansiReset  = "\x1b[0m"
)

func (t Theme) color(code, s string) string {
	if !t.Color {
		return s
	}
	return code + s + ansiReset
}

// Denial carries everything render needs; it mirrors
// evaluator.Result/hook.SpecificOutput without importing either, so this
// package stays usable from both the hook path and the `check`/`test`/
// `explain` CLI subcommands.
type Denial struct {
	Command     string
	Span        packs.MatchSpan
	RuleID      string
	PackID      string
	Severity    packs.Severity
	Reason      string
	Explanation string
	Suggestion  string
	ShortCode   string
	Warn        bool // true for a Warn decision rendered as advisory, not a block
}

// Render produces the full boxed message. Width is the box's interior
// character width; 72 matches the teacher's terminal-output conventions
// for fixed-width diagnostic panels.
func Render(d Denial, theme Theme) string {
	const width = 72
	var b strings.Builder
	box := boxChars(theme)

	border := strings.Repeat(box.horiz, width)
	title := "COMMAND BLOCKED"
	if d.Warn {
		title = "COMMAND WARNING"
	}
	headerColor := ansiRed
	if d.Warn {
		headerColor = ansiYellow
	}

	fmt.Fprintf(&b, "%s%s%s\n", box.topLeft, border, box.topRight)
	fmt.Fprintf(&b, "%s %s%s\n", box.vert, theme.color(headerColor+ansiBold, title), padTo(width-len(title)-1))
	fmt.Fprintf(&b, "%s%s%s\n", box.teeLeft, border, box.teeRight)

	writeBoxLine(&b, box, width, fmt.Sprintf("rule: %s  severity: %s", d.RuleID, d.Severity))
	writeBoxLine(&b, box, width, fmt.Sprintf("reason: %s", d.Reason))
	if d.Explanation != "" {
		for _, line := range wrap(d.Explanation, width-2) {
			writeBoxLine(&b, box, width, line)
		}
	}
	writeBoxLine(&b, box, width, "")
	for _, line := range highlightLines(d.Command, d.Span, width-2) {
		writeBoxLine(&b, box, width, line)
	}
	if d.Suggestion != "" {
		writeBoxLine(&b, box, width, "")
		writeBoxLine(&b, box, width, "suggestion: "+d.Suggestion)
	}
	if d.ShortCode != "" && !d.Warn {
		writeBoxLine(&b, box, width, "")
		writeBoxLine(&b, box, width, fmt.Sprintf("to allow once: dcg allow-once %s", d.ShortCode))
	}
	fmt.Fprintf(&b, "%s%s%s\n", box.botLeft, border, box.botRight)

	return b.String()
}

// boxDrawing holds the glyph set used to frame the denial box; plain ASCII
// under a non-color theme, Unicode box-drawing characters otherwise, per
// the design's "degrades to plain ASCII" requirement.
type boxDrawing struct {
	horiz, vert                           string
	topLeft, topRight, botLeft, botRight   string
	teeLeft, teeRight                     string
}

func boxChars(theme Theme) boxDrawing {
	if !theme.Color {
		return boxDrawing{
			horiz: "-", vert: "|",
			topLeft: "+", topRight: "+", botLeft: "+", botRight: "+",
			teeLeft: "+", teeRight: "+",
		}
	}
	return boxDrawing{
		horiz: "─", vert: "│",
		topLeft: "┌", topRight: "┐", botLeft: "└", botRight: "┘",
		teeLeft: "├", teeRight: "┤",
	}
}

func writeBoxLine(b *strings.Builder, box boxDrawing, width int, content string) {
	if len(content) > width-2 {
		content = content[:width-2]
	}
	fmt.Fprintf(b, "%s %s%s %s\n", box.vert, content, padTo(width-2-len(content)), box.vert)
}

func padTo(n int) string {
	if n < 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}

// highlightLines renders the command with a caret line under span,
// wrapped to width; this is Highlight's multi-line form used inside the
// box.
func highlightLines(cmd string, span packs.MatchSpan, width int) []string {
	line := Highlight(cmd, span)
	return strings.Split(line, "\n")
}

// Highlight returns the command followed by a second line of spaces and
// carets under [span.Start, span.End). Byte offsets outside the command's
// bounds are clamped rather than causing a panic — a slightly-off
// highlight beats crashing the denial renderer.
func Highlight(cmd string, span packs.MatchSpan) string {
	start, end := span.Start, span.End
	if start < 0 {
		start = 0
	}
	if end > len(cmd) {
		end = len(cmd)
	}
	if start > end {
		start = end
	}
	carets := strings.Repeat(" ", start) + strings.Repeat("^", max(end-start, 1))
	return cmd + "\n" + carets
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// wrap greedily word-wraps s to width, never splitting mid-word.
func wrap(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}
	words := strings.Fields(s)
	var lines []string
	var cur strings.Builder
	for _, w := range words {
		if cur.Len() > 0 && cur.Len()+1+len(w) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
