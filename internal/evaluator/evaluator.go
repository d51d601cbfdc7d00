// Package evaluator implements the decision pipeline: given a command and
// its execution context, walk allow-once, the allowlist, the pack engine,
// and the heredoc/AST layer, in that order, and produce a single
// EvaluationResult. Every error path resolves to Allow — the pipeline
// never denies on its own failure.
package evaluator

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agentguard/dcg/internal/allowlist"
	"github.com/agentguard/dcg/internal/errcodes"
	"github.com/agentguard/dcg/internal/heredoc"
	"github.com/agentguard/dcg/internal/packs"
	"github.com/agentguard/dcg/internal/pending"
	"github.com/agentguard/dcg/internal/redact"
	"github.com/agentguard/dcg/internal/suggestions"
)

// Decision is the EvaluationDecision.
type Decision string

const (
	Allow Decision = "allow"
	Warn  Decision = "warn"
	Deny  Decision = "deny"
)

// DefaultBudget is the wall-clock ceiling on a single Evaluate call
// (DCG_BUDGET_MS). Exceeding it mid-pipeline short-circuits to Allow.
const DefaultBudget = 50 * time.Millisecond

// Context is the execution context a command is evaluated under.
type Context struct {
	Command string
	Cwd     string
	Branch  string // "" if not in a git repository / detached HEAD
}

// Result is the EvaluationResult returned to every caller (hook, CLI
// `check`/`test`/`explain`).
type Result struct {
	Decision             Decision
	RuleID               string
	PackID               string
	Severity             packs.Severity
	Reason               string
	Explanation          string
	Suggestion           string
	Span                 packs.MatchSpan
	Confidence           float64         // 0.0..1.0; only meaningful alongside a non-empty RuleID
	SkippedDueToBudget   bool
	AllowedByLayer       allowlist.Layer // empty unless an allowlist layer resolved it
	PendingRecord        *pending.Record // set on Deny/Warn so the caller can render a short code
}

// Evaluator wires the pack registry and allowlist/pending stores together.
type Evaluator struct {
	Registry       *packs.PackRegistry
	Allowlist      *allowlist.Resolver
	AllowOnce      *pending.OnceStore
	Pending        *pending.Store
	Budget         time.Duration
	DecisionModes  map[packs.Severity]packs.DecisionMode // operator overrides; nil entries use Severity.DefaultMode()
	RedactMode     redact.Mode                            // applied to commands persisted in pending-exception records
}

// New builds an Evaluator with DefaultBudget. Callers mutate Budget
// directly for DCG_BUDGET_MS overrides.
func New(reg *packs.PackRegistry, al *allowlist.Resolver, once *pending.OnceStore, pend *pending.Store) *Evaluator {
	return &Evaluator{
		Registry:   reg,
		Allowlist:  al,
		AllowOnce:  once,
		Pending:    pend,
		Budget:     DefaultBudget,
		RedactMode: redact.ModePattern,
	}
}

// Evaluate runs the full decision pipeline for ctx. now and issueReason are
// only consulted on the Deny path, where a pending exception is issued.
func (e *Evaluator) Evaluate(now time.Time, ctx Context) Result {
	deadline := now.Add(e.Budget)

	if strings.TrimSpace(ctx.Command) == "" {
		return Result{Decision: Allow}
	}

	if e.AllowOnce != nil {
		entry, err := e.AllowOnce.Match(ctx.Command, ctx.Cwd)
		if err != nil {
			diag := errcodes.Wrap(errcodes.RuntimeIOError, "allow-once store unreadable, continuing pipeline (fail open)", err)
			log.Warn().Err(diag).Int("code", int(diag.Code)).Msg("allow-once store unreadable, continuing pipeline (fail open)")
		} else if entry != nil {
			return Result{Decision: Allow, AllowedByLayer: "allow_once"}
		}
	}

	if !now.Before(deadline) {
		return Result{Decision: Allow, SkippedDueToBudget: true}
	}

	normalized, delta := packs.Normalize(ctx.Command)
	if e.Registry != nil && packs.QuickReject(normalized, e.Registry.AllKeywords()) {
		return Result{Decision: Allow}
	}

	outer := e.checkPacks(normalized, delta)

	if !time.Now().Before(deadline) {
		if outer != nil {
			return e.resolve(now, ctx, outer, nil)
		}
		return Result{Decision: Allow, SkippedDueToBudget: true}
	}

	var hdMatch *heredoc.Match
	var hdBlock heredoc.Block
	if outer == nil || outer.Severity != packs.SeverityCritical {
		hdMatch, hdBlock = e.checkHeredoc(ctx.Command)
	}

	return e.resolve(now, ctx, outer, wrapHeredoc(hdMatch, hdBlock))
}

// Confidence scores reflect how directly a tier observed the destructive
// behavior: an outer regex hit matches the literal command text, while a
// heredoc/AST hit depends on the heuristic language detection in
// internal/heredoc's Extract (§4.3's "heuristic, not a full shell parse"
// tradeoff) on top of the AST match itself, so it carries a lower score.
const (
	confidenceOuterMatch   = 1.0
	confidenceHeredocMatch = 0.85
)

// packsMatch is a severity-bearing candidate, normalized so outer-regex and
// heredoc/AST matches can be compared uniformly by the attribution rule.
type candidate struct {
	ruleID      string
	packID      string
	severity    packs.Severity
	reason      string
	explanation string
	suggestion  string
	span        packs.MatchSpan
	confidence  float64
}

func (e *Evaluator) checkPacks(normalized string, delta int) *candidate {
	if e.Registry == nil {
		return nil
	}
	for _, p := range e.Registry.Ordered() {
		m, err := p.Check(normalized)
		if err != nil {
			diag := errcodes.Wrap(errcodes.PatternEvaluationError, "pack evaluation error, skipping pack (fail open)", err)
			log.Warn().Err(diag).Str("pack_id", p.ID).Int("code", int(diag.Code)).Msg("pack evaluation error, skipping pack (fail open)")
			continue
		}
		if m == nil {
			continue
		}
		return &candidate{
			ruleID:      m.RuleID,
			packID:      m.PackID,
			severity:    m.Severity,
			reason:      m.Reason,
			explanation: m.Explanation,
			suggestion:  suggestions.For(m.Suggestion),
			span:        packs.MapSpan(m.Span, delta),
			confidence:  confidenceOuterMatch,
		}
	}
	return nil
}

func (e *Evaluator) checkHeredoc(cmd string) (*heredoc.Match, heredoc.Block) {
	for _, block := range heredoc.Extract(cmd) {
		m, err := heredoc.Check(block)
		if err != nil {
			diag := errcodes.Wrap(errcodes.PatternEvaluationError, "heredoc evaluation error, skipping block (fail open)", err)
			log.Warn().Err(diag).Str("language", string(block.Language)).Int("code", int(diag.Code)).Msg("heredoc evaluation error, skipping block (fail open)")
			continue
		}
		if m != nil {
			return m, block
		}
	}
	return nil, heredoc.Block{}
}

func wrapHeredoc(m *heredoc.Match, block heredoc.Block) *candidate {
	if m == nil {
		return nil
	}
	return &candidate{
		ruleID:      m.RuleID,
		packID:      "heredoc." + string(block.Language),
		severity:    packs.Severity(m.Severity),
		reason:      m.Reason,
		explanation: m.Explanation,
		suggestion:  suggestions.For(m.Suggestion),
		span:        packs.MatchSpan{Start: block.StartByte + m.Start, End: block.StartByte + m.End},
		confidence:  confidenceHeredocMatch,
	}
}

// resolve applies the attribution rule (outer wins ties, else higher
// severity), the allowlist override, the severity->mode mapping, and —
// on an unshadowed Deny — issues a pending exception.
func (e *Evaluator) resolve(now time.Time, ctx Context, outer, hd *candidate) Result {
	winner := pickWinner(outer, hd)
	if winner == nil {
		return Result{Decision: Allow}
	}

	if e.Allowlist != nil {
		if layer, ok := e.Allowlist.Allows(winner.ruleID, ctx.Cwd, ctx.Branch); ok {
			return Result{Decision: Allow, AllowedByLayer: layer, RuleID: winner.ruleID}
		}
	}

	mode := e.modeFor(winner.severity)
	result := Result{
		RuleID:      winner.ruleID,
		PackID:      winner.packID,
		Severity:    winner.severity,
		Reason:      winner.reason,
		Explanation: winner.explanation,
		Suggestion:  winner.suggestion,
		Span:        winner.span,
		Confidence:  winner.confidence,
	}

	switch mode {
	case packs.ModeOff:
		result.Decision = Allow
		return result
	case packs.ModeWarn:
		result.Decision = Warn
		return result
	default: // packs.ModeDeny
		result.Decision = Deny
	}

	if e.Pending != nil {
		rec, err := e.Pending.Issue(now, ctx.Command, ctx.Cwd, winner.reason, winner.ruleID, e.RedactMode)
		if err != nil {
			diag := errcodes.Wrap(errcodes.RuntimeIOError, "failed to issue pending exception for denied command", err)
			log.Warn().Err(diag).Int("code", int(diag.Code)).Msg("failed to issue pending exception for denied command")
		} else {
			result.PendingRecord = rec
		}
	}
	return result
}

func (e *Evaluator) modeFor(sev packs.Severity) packs.DecisionMode {
	if e.DecisionModes != nil {
		if mode, ok := e.DecisionModes[sev]; ok {
			return mode
		}
	}
	return sev.DefaultMode()
}

func pickWinner(outer, hd *candidate) *candidate {
	if outer == nil {
		return hd
	}
	if hd == nil {
		return outer
	}
	outerDeny := outer.severity.DefaultMode() == packs.ModeDeny
	hdDeny := hd.severity.DefaultMode() == packs.ModeDeny
	if outerDeny && hdDeny {
		return outer // outer-regex match preferred over heredoc when both deny-level
	}
	if outer.severity.Rank() >= hd.severity.Rank() {
		return outer
	}
	return hd
}
