package packs

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog/log"

	"github.com/agentguard/dcg/internal/errcodes"
)

// PackRegistry is the process-wide index mapping pack_id -> Pack and
// tier -> ordered pack_ids. It is built once at startup via NewRegistry
// and is immutable thereafter; every reader after construction only reads.
// This mirrors the teacher's preference for constructing shared state once
// in main() and threading it by reference rather than reaching for a
// mutable global.
type PackRegistry struct {
	packs   map[string]*Pack
	ordered []*Pack // canonical tier, then lexicographic pack_id order
	ruleIDs map[string]bool

	once sync.Once
}

// NewRegistry builds an empty registry. Call Register for each built-in
// pack, then Finalize to compute the deterministic ordering. Built-in
// packs that fail to compile are programmer errors and panic; external
// packs use RegisterExternal, which never panics.
func NewRegistry() *PackRegistry {
	return &PackRegistry{
		packs:   make(map[string]*Pack),
		ruleIDs: make(map[string]bool),
	}
}

// Register adds a built-in pack. Compilation failures here are treated as
// programmer errors and abort the process, since built-in pack regex
// strings are vetted at authoring time.
func (r *PackRegistry) Register(p *Pack) {
	if err := r.register(p); err != nil {
		panic(fmt.Sprintf("dcg: built-in pack %q failed to register: %v", p.ID, err))
	}
}

// RegisterExternal adds an externally loaded pack. Unlike Register, a
// failure here is logged and the pack is skipped, never aborting the
// process; this is the distinction the design calls for between
// programmer error (built-in) and data error (external).
func (r *PackRegistry) RegisterExternal(p *Pack) error {
	if err := r.register(p); err != nil {
		diag := errcodes.Wrap(errcodes.ConfigDuplicateRuleID, "external pack rejected", err)
		log.Warn().Err(diag).Str("pack_id", p.ID).Int("code", int(diag.Code)).Msg("external pack rejected")
		return diag
	}
	return nil
}

func (r *PackRegistry) register(p *Pack) error {
	if p.ID == "" {
		return fmt.Errorf("pack id must not be empty")
	}
	if _, exists := r.packs[p.ID]; exists {
		return fmt.Errorf("pack id %q already registered", p.ID)
	}
	seenNames := make(map[string]bool)
	for _, sp := range p.Safe {
		if seenNames[sp.Name] {
			return fmt.Errorf("duplicate pattern name %q in pack %q", sp.Name, p.ID)
		}
		seenNames[sp.Name] = true
	}
	for _, dp := range p.Destructive {
		if seenNames[dp.Name] {
			return fmt.Errorf("duplicate pattern name %q in pack %q", dp.Name, p.ID)
		}
		seenNames[dp.Name] = true
		if dp.Reason == "" {
			return fmt.Errorf("destructive pattern %q in pack %q has empty reason", dp.Name, p.ID)
		}
		ruleID := RuleID(p.ID, dp.Name)
		if r.ruleIDs[ruleID] {
			return fmt.Errorf("rule_id %q already registered by another pack", ruleID)
		}
		r.ruleIDs[ruleID] = true
	}
	r.packs[p.ID] = p
	return nil
}

// Finalize computes the deterministic iteration order. Must be called once
// after all Register/RegisterExternal calls complete and before any
// evaluation. Safe to call more than once; only the first call has effect.
func (r *PackRegistry) Finalize() {
	r.once.Do(func() {
		ordered := make([]*Pack, 0, len(r.packs))
		for _, p := range r.packs {
			ordered = append(ordered, p)
		}
		sort.Slice(ordered, func(i, j int) bool {
			if ordered[i].Tier != ordered[j].Tier {
				return ordered[i].Tier < ordered[j].Tier
			}
			return ordered[i].ID < ordered[j].ID
		})
		r.ordered = ordered
	})
}

// Ordered returns packs in canonical (tier, then lexicographic pack_id)
// order. This ordering is the sole determinant of attribution when more
// than one pack would otherwise match, and is independent of Go's
// randomized map iteration.
func (r *PackRegistry) Ordered() []*Pack {
	return r.ordered
}

// Get looks up a single pack by id.
func (r *PackRegistry) Get(id string) (*Pack, bool) {
	p, ok := r.packs[id]
	return p, ok
}

// Len returns the number of registered packs.
func (r *PackRegistry) Len() int {
	return len(r.packs)
}

// AllKeywords returns the deduplicated union of every registered pack's
// keyword set, lowercased. Used for the top-level quick-reject.
func (r *PackRegistry) AllKeywords() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range r.ordered {
		for _, kw := range p.Keywords {
			lkw := strings.ToLower(kw)
			if !seen[lkw] {
				seen[lkw] = true
				out = append(out, lkw)
			}
		}
	}
	return out
}

// CompilePattern compiles a regex source string with the lookahead-capable
// engine. regexp2 is used in place of Go's linear-time RE2-derived
// regexp/syntax engine specifically because several built-in rules (and the
// external pack format) rely on lookahead assertions that RE2 cannot
// express; see the normalize package for the one place this matters most
// (command-name boundary assertions).
func CompilePattern(src string) (*regexp2.Regexp, error) {
	// Deliberately not regexp2.RE2: that option restricts the engine to
	// RE2-compatible syntax, which excludes the lookahead/lookbehind
	// assertions several rule catalogs rely on. IgnoreCase mirrors every
	// built-in pattern's (?i) prefix convention from the catalogs this was
	// grounded on.
	re, err := regexp2.Compile(src, regexp2.IgnoreCase)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", src, err)
	}
	return re, nil
}

// Check runs the per-pack algorithm from the design: keyword filter, then
// safe patterns (abstain on match), then destructive patterns in
// declaration order (first match wins). cmd is the normalized command; the
// caller is responsible for mapping the returned span back to the original
// command's byte offsets.
func (p *Pack) Check(cmd string) (*DestructiveMatch, error) {
	lower := strings.ToLower(cmd)
	matched := false
	for _, kw := range p.Keywords {
		if strings.Contains(lower, kw) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, nil
	}

	for _, sp := range p.Safe {
		ok, err := sp.Regex.MatchString(cmd)
		if err != nil {
			diag := errcodes.Wrap(errcodes.PatternEvaluationError, "safe pattern evaluation error, skipping", err)
			log.Warn().Err(diag).Str("pack_id", p.ID).Str("pattern", sp.Name).Int("code", int(diag.Code)).Msg("safe pattern evaluation error, skipping")
			continue
		}
		if ok {
			return nil, nil
		}
	}

	for _, dp := range p.Destructive {
		m, err := dp.Regex.FindStringMatch(cmd)
		if err != nil {
			diag := errcodes.Wrap(errcodes.PatternEvaluationError, "destructive pattern evaluation error, skipping", err)
			log.Warn().Err(diag).Str("pack_id", p.ID).Str("pattern", dp.Name).Int("code", int(diag.Code)).Msg("destructive pattern evaluation error, skipping")
			continue
		}
		if m == nil {
			continue
		}
		// regexp2 reports Index/Length in UTF-16 code units, not bytes;
		// re-locate the matched text by byte offset rather than trusting
		// those fields directly.
		start, end := byteSpanOf(cmd, m.String(), m.Index)
		return &DestructiveMatch{
			PackID:      p.ID,
			RuleID:      RuleID(p.ID, dp.Name),
			PatternName: dp.Name,
			Reason:      dp.Reason,
			Severity:    dp.Severity,
			Explanation: dp.Explanation,
			Span:        MatchSpan{Start: start, End: end},
		}, nil
	}
	return nil, nil
}
