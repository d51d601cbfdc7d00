// Package heredoc extracts embedded script bodies (heredocs and inline
// -c/-e snippets) from a shell command line and matches them against an
// AST-level pattern catalog, catching destructive calls regex alone can't
// reliably see through (e.g. a python3 -c heredoc calling shutil.rmtree).
package heredoc

import (
	"regexp"
	"strings"
)

// Language identifies which tree-sitter grammar (and pattern catalog)
// applies to a Block's body.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangRuby       Language = "ruby"
	LangBash       Language = "bash"
	LangPerl       Language = "perl"
	LangUnknown    Language = "unknown"
)

// Block is a HeredocBlock: a contiguous embedded script body located at
// [StartByte, EndByte) in the original, un-normalized command string.
type Block struct {
	StartByte int
	EndByte   int
	Language  Language
	Body      string
}

var heredocStartRE = regexp.MustCompile(`<<-?\s*(['"]?)([A-Za-z_][A-Za-z0-9_]*)(['"]?)`)

var inlineInterpreterRE = regexp.MustCompile(`\b(python3?|node|ruby|perl)\s+(-c|-e)\s+(['"])`)

// Extract scans cmd for heredoc bodies and inline -c/-e script arguments
// and returns every block found, in source order. Extraction is
// heuristic, not a full shell parse — matching the design's tradeoff of
// catching the common agent-emitted shapes without reimplementing a shell
// grammar.
func Extract(cmd string) []Block {
	var blocks []Block
	blocks = append(blocks, extractHeredocs(cmd)...)
	blocks = append(blocks, extractInline(cmd)...)
	return blocks
}

func extractHeredocs(cmd string) []Block {
	var blocks []Block
	locs := heredocStartRE.FindAllStringSubmatchIndex(cmd, -1)
	for _, loc := range locs {
		quoted := loc[2] != loc[3] // quote group captured something
		tag := cmd[loc[4]:loc[5]]
		headerEnd := loc[1]

		// Body starts at the next newline after the header line.
		nl := strings.IndexByte(cmd[headerEnd:], '\n')
		if nl < 0 {
			continue
		}
		bodyStart := headerEnd + nl + 1

		terminator := "\n" + tag
		termIdx := strings.Index(cmd[bodyStart:], terminator)
		var bodyEnd, blockEnd int
		if termIdx < 0 {
			// Unterminated heredoc (command was truncated, or this is the
			// last line of input): treat the remainder as the body.
			bodyEnd = len(cmd)
			blockEnd = len(cmd)
		} else {
			bodyEnd = bodyStart + termIdx
			blockEnd = bodyEnd + len(terminator)
		}

		body := cmd[bodyStart:bodyEnd]
		lang := detectLanguage(cmd[:loc[0]], body, quoted)
		blocks = append(blocks, Block{
			StartByte: loc[0],
			EndByte:   blockEnd,
			Language:  lang,
			Body:      body,
		})
	}
	return blocks
}

func extractInline(cmd string) []Block {
	var blocks []Block
	matches := inlineInterpreterRE.FindAllStringSubmatchIndex(cmd, -1)
	for _, m := range matches {
		interpreter := cmd[m[2]:m[3]]
		quoteByte := cmd[m[6]]
		bodyStart := m[1]
		end := findMatchingQuote(cmd, bodyStart, quoteByte)
		if end < 0 {
			end = len(cmd)
		}
		body := cmd[bodyStart:end]
		lang := languageForInterpreter(interpreter)
		blocks = append(blocks, Block{
			StartByte: m[0],
			EndByte:   end + 1,
			Language:  lang,
			Body:      body,
		})
	}
	return blocks
}

// findMatchingQuote returns the index of the closing quote matching the
// opening quote at start-1, honoring backslash escapes but not nested
// quoting of a different kind (good enough for the single-quoted inline
// scripts agents actually emit).
func findMatchingQuote(cmd string, start int, quote byte) int {
	for i := start; i < len(cmd); i++ {
		if cmd[i] == '\\' && quote == '"' {
			i++
			continue
		}
		if cmd[i] == quote {
			return i
		}
	}
	return -1
}

func languageForInterpreter(interpreter string) Language {
	switch {
	case strings.HasPrefix(interpreter, "python"):
		return LangPython
	case interpreter == "node":
		return LangJavaScript
	case interpreter == "ruby":
		return LangRuby
	case interpreter == "perl":
		return LangPerl
	default:
		return LangUnknown
	}
}

// detectLanguage applies the heuristics the body's shape suggests:
// preceding-word interpreter hints first, then content-based keyword
// sniffing as a fallback for heredocs piped into `sh` or `tee` without a
// named interpreter.
func detectLanguage(prefix, body string, quoted bool) Language {
	trimmedPrefix := strings.TrimRight(prefix, " \t")
	switch {
	case strings.HasSuffix(trimmedPrefix, "python3") || strings.HasSuffix(trimmedPrefix, "python"):
		return LangPython
	case strings.HasSuffix(trimmedPrefix, "node"):
		return LangJavaScript
	case strings.HasSuffix(trimmedPrefix, "ruby"):
		return LangRuby
	case strings.HasSuffix(trimmedPrefix, "perl"):
		return LangPerl
	case strings.HasSuffix(trimmedPrefix, "bash") || strings.HasSuffix(trimmedPrefix, "sh") || strings.HasSuffix(trimmedPrefix, "zsh"):
		return LangBash
	}

	switch {
	case strings.Contains(body, "def ") || strings.Contains(body, "import ") || strings.Contains(body, "shutil."):
		return LangPython
	case strings.Contains(body, "require(") || strings.Contains(body, "=>") || strings.Contains(body, "const "):
		return LangJavaScript
	case strings.Contains(body, "puts ") || strings.Contains(body, "\nend"):
		return LangRuby
	case strings.Contains(body, "$(") || strings.Contains(body, "if [") || strings.Contains(body, "fi\n"):
		return LangBash
	}
	_ = quoted
	return LangUnknown
}
