package pending

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agentguard/dcg/internal/errcodes"
	"github.com/agentguard/dcg/internal/store"
)

// ScopeKind controls how broadly a redeemed allow-once entry applies.
type ScopeKind string

const (
	// ScopeCwd matches only the exact working directory the exception was
	// redeemed from.
	ScopeCwd ScopeKind = "cwd"
	// ScopeProject matches any working directory nested under ScopePath.
	ScopeProject ScopeKind = "project"
)

// OnceEntry is an AllowOnceEntry: a redeemed pending exception promoted
// into something the evaluator's allowlist layer can match against future
// identical commands.
type OnceEntry struct {
	SchemaVersion     int        `json:"schema_version"`
	SourceFullHash     string     `json:"source_full_hash"`
	CommandRaw        string     `json:"command_raw"`
	ScopeKind         ScopeKind  `json:"scope_kind"`
	ScopePath         string     `json:"scope_path"`
	SingleUse         bool       `json:"single_use"`
	CreatedAt         time.Time  `json:"created_at"`
	ConsumedAt        *time.Time `json:"consumed_at,omitempty"`
	ForceAllowConfig  bool       `json:"force_allow_config"`
}

// OnceStore is the JSONL-backed allow-once log.
type OnceStore struct {
	path string
}

func NewOnceStore(path string) *OnceStore {
	return &OnceStore{path: path}
}

// Redeem promotes rec (an active PendingExceptionRecord looked up by short
// code) into a persisted OnceEntry, consumes rec in the pending store, and
// returns the new entry. scope/scopePath/singleUse are the operator's
// choices from the allow-once CLI invocation.
func (s *OnceStore) Redeem(now time.Time, pendingStore *Store, rec *Record, scope ScopeKind, scopePath string, singleUse bool) (*OnceEntry, error) {
	entry := &OnceEntry{
		SchemaVersion: SchemaVersion,
		SourceFullHash: rec.FullHash,
		CommandRaw:    rec.CommandRaw,
		ScopeKind:     scope,
		ScopePath:     scopePath,
		SingleUse:     singleUse,
		CreatedAt:     now.UTC(),
	}
	if err := s.append(entry); err != nil {
		return nil, err
	}
	if err := pendingStore.Consume(now, rec.FullHash); err != nil {
		diag := errcodes.Wrap(errcodes.RuntimeIOError, "allow-once redeemed but failed to mark pending record consumed", err)
		log.Warn().Err(diag).Int("code", int(diag.Code)).Msg("allow-once redeemed but failed to mark pending record consumed")
	}
	return entry, nil
}

// Match returns the first active entry whose command and scope predicate
// match (command, cwd), or nil if none do. A single-use match is removed
// from the store as a side effect, per the design's "single-use entries
// removed after match" invariant.
func (s *OnceStore) Match(command, cwd string) (*OnceEntry, error) {
	var matched *OnceEntry
	err := store.WithLockedFile(s.path, func() error {
		entries, err := s.load()
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.ConsumedAt != nil {
				continue
			}
			if e.CommandRaw != command {
				continue
			}
			if !scopeMatches(e, cwd) {
				continue
			}
			if e.SingleUse {
				now := nowUTC()
				e.ConsumedAt = &now
				if werr := s.writeLocked(entries); werr != nil {
					diag := errcodes.Wrap(errcodes.RuntimeIOError, "failed to persist allow-once consumption", werr)
					log.Warn().Err(diag).Int("code", int(diag.Code)).Msg("failed to persist allow-once consumption")
				}
			}
			matched = e
			return nil
		}
		return nil
	})
	return matched, err
}

func scopeMatches(e *OnceEntry, cwd string) bool {
	switch e.ScopeKind {
	case ScopeProject:
		return cwd == e.ScopePath || strings.HasPrefix(cwd, strings.TrimSuffix(e.ScopePath, "/")+"/")
	case ScopeCwd:
		fallthrough
	default:
		return cwd == e.ScopePath
	}
}

// nowUTC exists purely so Match (which has no caller-supplied clock in its
// signature, matching the evaluator's call site) stamps consumption with a
// real timestamp without importing time.Now() all over the package.
func nowUTC() time.Time {
	return time.Now().UTC()
}

func (s *OnceStore) load() ([]*OnceEntry, error) {
	var entries []*OnceEntry
	parseErrors, err := store.ReadLines(s.path, func(line []byte) error {
		var e OnceEntry
		if jerr := json.Unmarshal(line, &e); jerr != nil {
			return jerr
		}
		entries = append(entries, &e)
		return nil
	})
	if parseErrors > 0 {
		diag := errcodes.New(errcodes.ConfigParseFailure, "allow-once store: skipped malformed lines")
		log.Warn().Int("parse_errors", parseErrors).Int("code", int(diag.Code)).Msg("allow-once store: skipped malformed lines")
	}
	return entries, err
}

func (s *OnceStore) writeLocked(entries []*OnceEntry) error {
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

func (s *OnceStore) append(entry *OnceEntry) error {
	return store.WithLockedFile(s.path, func() error {
		entries, err := s.load()
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return s.writeLocked(entries)
	})
}

// List returns every entry, consumed or not, for `allowlist list`/`explain`
// tooling.
func (s *OnceStore) List() ([]*OnceEntry, error) {
	return s.load()
}
