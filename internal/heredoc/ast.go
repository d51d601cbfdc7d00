package heredoc

import (
	"context"
	"fmt"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// PerBlockTimeout is the hard cap on parsing+querying a single block. A
// block that can't be parsed in time is treated as a parse failure: fail
// open, no match.
const PerBlockTimeout = 20 * time.Millisecond

// Pattern is an AstPattern: a tree-sitter query whose first capture name
// identifies the dangerous call, paired with the severity/reason/
// suggestion to report on a match.
type Pattern struct {
	RuleID      string
	Query       string
	Severity    string
	Reason      string
	Explanation string
	Suggestion  string
}

// Match is the heredoc-layer equivalent of packs.DestructiveMatch, scoped
// to a single embedded script block.
type Match struct {
	RuleID      string
	Severity    string
	Reason      string
	Explanation string
	Suggestion  string
	// Span is in the block's own body byte offsets; callers add
	// block.StartByte to map back to the outer command.
	Start int
	End   int
}

func languageFor(lang Language) *sitter.Language {
	switch lang {
	case LangPython:
		return python.GetLanguage()
	case LangJavaScript:
		return javascript.GetLanguage()
	case LangTypeScript:
		return typescript.GetLanguage()
	case LangRuby:
		return ruby.GetLanguage()
	case LangBash:
		return bash.GetLanguage()
	default:
		return nil
	}
}

// Catalog returns the built-in AST pattern set for lang. Grounded on the
// scenario table's heredoc.python.shutil_rmtree rule plus the same
// recursive-delete/exec/eval shapes the regex pack catalogs flag, expressed
// as tree-sitter queries instead of text regexes so the match survives
// reformatting, multi-line calls, and aliasing (e.g. `from shutil import
// rmtree as X`) that defeat a flat regex.
func Catalog(lang Language) []Pattern {
	switch lang {
	case LangPython:
		return []Pattern{
			{
				RuleID: "heredoc.python.shutil_rmtree",
				Query: `(call
					function: (attribute object: (identifier) @_obj attribute: (identifier) @_attr)
					(#eq? @_obj "shutil")
					(#eq? @_attr "rmtree")) @match`,
				Severity:    "critical",
				Reason:      "embedded Python script calls shutil.rmtree, a recursive directory delete",
				Explanation: "shutil.rmtree permanently deletes a directory tree with no confirmation or trash.",
			},
			{
				RuleID: "heredoc.python.os_system",
				Query: `(call
					function: (attribute object: (identifier) @_obj attribute: (identifier) @_attr)
					(#eq? @_obj "os")
					(#eq? @_attr "system")) @match`,
				Severity:    "high",
				Reason:      "embedded Python script calls os.system, executing an arbitrary shell command",
				Explanation: "os.system hands a string straight to the shell, bypassing any argument-level review.",
			},
			{
				RuleID:      "heredoc.python.eval_exec",
				Query:       `(call function: (identifier) @_fn (#match? @_fn "^(eval|exec)$")) @match`,
				Severity:    "high",
				Reason:      "embedded Python script calls eval/exec on dynamic input",
				Explanation: "eval/exec run arbitrary code constructed at runtime.",
			},
		}
	case LangJavaScript, LangTypeScript:
		return []Pattern{
			{
				RuleID: "heredoc.javascript.child_process_exec",
				Query: `(call_expression
					function: (member_expression property: (property_identifier) @_prop)
					(#match? @_prop "^(exec|execSync)$")) @match`,
				Severity:    "high",
				Reason:      "embedded script calls child_process.exec/execSync, running an arbitrary shell command",
				Explanation: "exec hands a string straight to a shell, bypassing any argument-level review.",
			},
			{
				RuleID: "heredoc.javascript.fs_rm_recursive",
				Query: `(call_expression
					function: (member_expression property: (property_identifier) @_prop)
					(#match? @_prop "^(rmSync|rmdirSync)$")) @match`,
				Severity:    "critical",
				Reason:      "embedded script calls fs.rmSync/rmdirSync, a recursive delete",
				Explanation: "fs.rmSync with recursive:true deletes a directory tree with no confirmation.",
			},
		}
	case LangRuby:
		return []Pattern{
			{
				RuleID:      "heredoc.ruby.fileutils_rm_rf",
				Query:       `(call method: (identifier) @_m (#eq? @_m "rm_rf")) @match`,
				Severity:    "critical",
				Reason:      "embedded Ruby script calls FileUtils.rm_rf, a recursive delete",
				Explanation: "rm_rf deletes a directory tree with no confirmation.",
			},
			{
				RuleID:      "heredoc.ruby.system_call",
				Query:       `(call method: (identifier) @_m (#eq? @_m "system")) @match`,
				Severity:    "high",
				Reason:      "embedded Ruby script calls Kernel#system, running an arbitrary shell command",
				Explanation: "system hands a string straight to a shell, bypassing any argument-level review.",
			},
		}
	case LangBash:
		return []Pattern{
			{
				RuleID:      "heredoc.bash.rm_rf",
				Query:       `(command name: (command_name (word) @_n) (#eq? @_n "rm")) @match`,
				Severity:    "high",
				Reason:      "embedded shell script invokes rm",
				Explanation: "an rm call inside an embedded script is invisible to the outer-command regex layer.",
			},
		}
	default:
		return nil
	}
}

// Check parses block.Body with the grammar for block.Language, runs the
// language's pattern catalog against it, and returns the first match
// (catalog order = priority order, matching the pack layer's first-match-
// wins rule). Any failure — unsupported language, parse error, timeout —
// returns (nil, nil): fail open, never an error that would itself cause a
// deny.
func Check(block Block) (*Match, error) {
	lang := languageFor(block.Language)
	if lang == nil {
		return nil, nil
	}
	patterns := Catalog(block.Language)
	if len(patterns) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), PerBlockTimeout)
	defer cancel()

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, []byte(block.Body))
	if err != nil {
		return nil, fmt.Errorf("parse heredoc block: %w", err)
	}
	if tree == nil {
		return nil, nil // context deadline exceeded mid-parse: fail open
	}
	root := tree.RootNode()

	for _, pat := range patterns {
		q, err := sitter.NewQuery([]byte(pat.Query), lang)
		if err != nil {
			// A malformed built-in query is a programmer error in the
			// catalog, not a runtime fault; skip it rather than fail the
			// whole block's evaluation.
			continue
		}
		cursor := sitter.NewQueryCursor()
		cursor.Exec(q, root)
		m, ok := cursor.NextMatch()
		q.Close()
		if !ok || m == nil || len(m.Captures) == 0 {
			continue
		}
		node := m.Captures[0].Node
		return &Match{
			RuleID:      pat.RuleID,
			Severity:    pat.Severity,
			Reason:      pat.Reason,
			Explanation: pat.Explanation,
			Suggestion:  pat.Suggestion,
			Start:       int(node.StartByte()),
			End:         int(node.EndByte()),
		}, nil
	}
	return nil, nil
}
