// Package allowlist implements the layered allowlist: System, User,
// Project, and BranchContext entries loaded from JSONL files, resolved in
// that fixed order against a rule_id, plus an in-process Session layer that
// never touches disk. AllowOnce resolution lives in internal/pending; this
// package only covers the four persisted/process layers the evaluator
// consults before falling back to the pending/allow-once stores.
package allowlist

import (
	"encoding/json"
	"time"

	"github.com/IGLOU-EU/go-wildcard/v2"
	"github.com/rs/zerolog/log"

	"github.com/agentguard/dcg/internal/errcodes"
	"github.com/agentguard/dcg/internal/store"
)

// Layer names a position in the fixed resolution order. Earlier layers are
// consulted first; AllowOnce is handled separately by internal/pending and
// is not a Layer here.
type Layer string

const (
	LayerSystem        Layer = "system"
	LayerUser          Layer = "user"
	LayerProject       Layer = "project"
	LayerBranchContext Layer = "branch_context"
	LayerSession       Layer = "session"
)

// Entry is an AllowlistEntry: a rule_id exempted from denial, optionally
// scoped by path prefix or branch glob.
type Entry struct {
	RuleID            string    `json:"rule_id"`
	Layer             Layer     `json:"layer"`
	OptionalPathPrefix string   `json:"path_prefix,omitempty"`
	OptionalBranchGlob string   `json:"branch_pattern,omitempty"`
	Reason            string    `json:"reason"`
	CreatedAt         time.Time `json:"created_at"`
}

func (e *Entry) matchesContext(cwd, branch string) bool {
	if e.OptionalPathPrefix != "" {
		if !hasPathPrefix(cwd, e.OptionalPathPrefix) {
			return false
		}
	}
	if e.OptionalBranchGlob != "" {
		if !wildcard.Match(e.OptionalBranchGlob, branch) {
			return false
		}
	}
	return true
}

func hasPathPrefix(cwd, prefix string) bool {
	if cwd == prefix {
		return true
	}
	if len(cwd) > len(prefix) && cwd[:len(prefix)] == prefix {
		return cwd[len(prefix)] == '/'
	}
	return false
}

// FileStore is a single JSONL-backed allowlist layer (System, User, or
// Project — BranchContext entries live in the Project file, distinguished
// by having a non-empty OptionalBranchGlob).
type FileStore struct {
	path  string
	layer Layer
}

func NewFileStore(path string, layer Layer) *FileStore {
	return &FileStore{path: path, layer: layer}
}

func (s *FileStore) Add(ruleID, pathPrefix, branchGlob, reason string) error {
	entry := &Entry{
		RuleID:            ruleID,
		Layer:             s.layer,
		OptionalPathPrefix: pathPrefix,
		OptionalBranchGlob: branchGlob,
		Reason:            reason,
		CreatedAt:         time.Now().UTC(),
	}
	return store.WithLockedFile(s.path, func() error {
		entries, err := s.loadLocked()
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return s.writeLocked(entries)
	})
}

func (s *FileStore) Remove(ruleID string) error {
	return store.WithLockedFile(s.path, func() error {
		entries, err := s.loadLocked()
		if err != nil {
			return err
		}
		kept := entries[:0]
		for _, e := range entries {
			if e.RuleID != ruleID {
				kept = append(kept, e)
			}
		}
		return s.writeLocked(kept)
	})
}

func (s *FileStore) List() ([]*Entry, error) {
	return s.load()
}

// Allows reports whether any entry in this layer exempts ruleID in the
// given context.
func (s *FileStore) Allows(ruleID, cwd, branch string) (bool, error) {
	entries, err := s.load()
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.RuleID == ruleID && e.matchesContext(cwd, branch) {
			return true, nil
		}
	}
	return false, nil
}

func (s *FileStore) load() ([]*Entry, error) {
	var entries []*Entry
	parseErrors, err := store.ReadLines(s.path, func(line []byte) error {
		var e Entry
		if jerr := json.Unmarshal(line, &e); jerr != nil {
			return jerr
		}
		entries = append(entries, &e)
		return nil
	})
	if parseErrors > 0 {
		diag := errcodes.New(errcodes.ConfigParseFailure, "allowlist store: skipped malformed lines")
		log.Warn().Str("layer", string(s.layer)).Int("parse_errors", parseErrors).Int("code", int(diag.Code)).Msg("allowlist store: skipped malformed lines")
	}
	return entries, err
}

func (s *FileStore) loadLocked() ([]*Entry, error) {
	var entries []*Entry
	_, err := store.ReadLines(s.path, func(line []byte) error {
		var e Entry
		if jerr := json.Unmarshal(line, &e); jerr != nil {
			return jerr
		}
		entries = append(entries, &e)
		return nil
	})
	return entries, err
}

func (s *FileStore) writeLocked(entries []*Entry) error {
	lines := make([][]byte, 0, len(entries))
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			continue
		}
		lines = append(lines, b)
	}
	return store.AppendLines(s.path, lines)
}

// SessionLayer is the in-process-only, never-persisted allowlist a single
// dcg invocation can build up via repeated `check` calls sharing one
// process (e.g. an interactive REPL wrapper); a fresh process always
// starts with an empty SessionLayer.
type SessionLayer struct {
	ruleIDs map[string]bool
}

func NewSessionLayer() *SessionLayer {
	return &SessionLayer{ruleIDs: make(map[string]bool)}
}

func (s *SessionLayer) Add(ruleID string) {
	s.ruleIDs[ruleID] = true
}

func (s *SessionLayer) Allows(ruleID string) bool {
	return s.ruleIDs[ruleID]
}

// Resolver chains the four persisted/process layers in fixed resolution
// order: System, User, Project, BranchContext, Session. It deliberately
// does not include AllowOnce — the evaluator consults internal/pending for
// that, since allow-once resolution also needs exact command-string
// matching, not just a rule_id lookup.
type Resolver struct {
	System        *FileStore
	User          *FileStore
	Project       *FileStore
	BranchContext *FileStore
	Session       *SessionLayer
}

// Allows walks the layers in fixed order and returns the first layer that
// exempts ruleID, or ("", false) if none do.
func (r *Resolver) Allows(ruleID, cwd, branch string) (Layer, bool) {
	type probe struct {
		layer Layer
		store *FileStore
	}
	for _, p := range []probe{
		{LayerSystem, r.System},
		{LayerUser, r.User},
		{LayerProject, r.Project},
		{LayerBranchContext, r.BranchContext},
	} {
		if p.store == nil {
			continue
		}
		ok, err := p.store.Allows(ruleID, cwd, branch)
		if err != nil {
			diag := errcodes.Wrap(errcodes.ConfigAllowlistLoadError, "allowlist layer unreadable, skipping (fail open means skip, not deny)", err)
			log.Warn().Err(diag).Str("layer", string(p.layer)).Int("code", int(diag.Code)).Msg("allowlist layer unreadable, skipping (fail open means skip, not deny)")
			continue
		}
		if ok {
			return p.layer, true
		}
	}
	if r.Session != nil && r.Session.Allows(ruleID) {
		return LayerSession, true
	}
	return "", false
}
