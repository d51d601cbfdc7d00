// Package pending implements the pending-exception store: the JSONL log of
// denials issued with a redeemable short code, and the short-code
// derivation/redemption state machine. Grounded on the teacher's approval
// store (replay-protected, SHA-256-hashed, single-use-consumable records)
// generalized from a UUID-keyed in-memory map to a hash-derived short code
// persisted as an append-only log.
package pending

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agentguard/dcg/internal/errcodes"
	"github.com/agentguard/dcg/internal/redact"
	"github.com/agentguard/dcg/internal/store"
)

const SchemaVersion = 1

// TTL is how long an issued short code remains redeemable.
const TTL = 24 * time.Hour

// confusionFreeAlphabet excludes characters easily confused in print:
// i, l, o, 0, 1.
const confusionFreeAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"

// Record is a PendingExceptionRecord: persisted on every deny, redeemable
// by its short_code until it expires, is consumed, or is explicitly
// cleared.
type Record struct {
	SchemaVersion   int        `json:"schema_version"`
	ShortCode       string     `json:"short_code"`
	FullHash        string     `json:"full_hash"`
	CreatedAt       time.Time  `json:"created_at"`
	ExpiresAt       time.Time  `json:"expires_at"`
	Cwd             string     `json:"cwd"`
	CommandRaw      string     `json:"command_raw"`
	CommandRedacted string     `json:"command_redacted"`
	Reason          string     `json:"reason"`
	SingleUse       bool       `json:"single_use"`
	ConsumedAt      *time.Time `json:"consumed_at,omitempty"`
	Source          string     `json:"source"`
}

func (r *Record) expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

func (r *Record) active(now time.Time) bool {
	return r.ConsumedAt == nil && !r.expired(now)
}

// Store is the JSONL-backed pending-exception log.
type Store struct {
	path   string
	secret []byte // HMAC key; empty means plain SHA-256 derivation
}

// NewStore opens a pending-exception store backed by path. secret, if
// non-empty, hardens short-code derivation against forgery by switching
// from SHA-256 to HMAC-SHA256 (DCG_ALLOW_ONCE_SECRET).
func NewStore(path string, secret []byte) *Store {
	return &Store{path: path, secret: secret}
}

// Issue computes the hash, derives a collision-checked short code, persists
// a redacted copy of the command (per mode), and returns the new record.
// now is passed in rather than read from time.Now() so callers (and tests)
// control it explicitly; the evaluator's single call site passes the real
// clock.
func (s *Store) Issue(now time.Time, command, cwd, reason, source string, mode redact.Mode) (*Record, error) {
	createdAt := now.UTC()
	fullHash := s.computeFullHash(createdAt, cwd, command)

	var active []*Record
	err := s.withRecords(func(rs []*Record) {
		for _, r := range rs {
			if r.active(now) {
				active = append(active, r)
			}
		}
	})
	if err != nil {
		diag := errcodes.Wrap(errcodes.RuntimeIOError, "pending store unreadable, treating as empty", err)
		log.Warn().Err(diag).Int("code", int(diag.Code)).Msg("pending store unreadable, treating as empty")
	}

	code := s.deriveShortCode(fullHash, active)

	rec := &Record{
		SchemaVersion:   SchemaVersion,
		ShortCode:       code,
		FullHash:        fullHash,
		CreatedAt:       createdAt,
		ExpiresAt:       createdAt.Add(TTL),
		Cwd:             cwd,
		CommandRaw:      command,
		CommandRedacted: redact.Redact(command, mode),
		Reason:          reason,
		SingleUse:       true,
		Source:          source,
	}

	if err := s.appendAndPrune(now, rec); err != nil {
		return rec, fmt.Errorf("persist pending exception: %w", err)
	}
	return rec, nil
}

// computeFullHash implements SHA256(created_at \0 cwd \0 command), or its
// HMAC-SHA256 variant when a secret is configured, per the design's
// anti-forgery note.
func (s *Store) computeFullHash(createdAt time.Time, cwd, command string) string {
	payload := createdAt.Format(time.RFC3339Nano) + "\x00" + cwd + "\x00" + command
	if len(s.secret) > 0 {
		mac := hmac.New(sha256.New, s.secret)
		mac.Write([]byte(payload))
		return hex.EncodeToString(mac.Sum(nil))
	}
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// deriveShortCode renders the first 5 (or, on collision, 6) hex chars of
// hash through the confusion-free alphabet mapping.
func (s *Store) deriveShortCode(hash string, active []*Record) string {
	code := renderCode(hash, 5)
	for _, r := range active {
		if r.ShortCode == code {
			return renderCode(hash, 6)
		}
	}
	return code
}

func renderCode(hash string, length int) string {
	var b strings.Builder
	alphabetLen := len(confusionFreeAlphabet)
	for i := 0; i < length && i < len(hash); i++ {
		// Map each hex nibble (0-15) into the 32-symbol confusion-free
		// alphabet by taking two consecutive hex chars per symbol when
		// available, otherwise falling back to a single nibble.
		idx := int(hash[i]) % alphabetLen
		b.WriteByte(confusionFreeAlphabet[idx])
	}
	return b.String()
}

// Active returns every non-expired, non-consumed record, pruning anything
// expired from the persisted store as a side effect.
func (s *Store) Active(now time.Time) ([]*Record, error) {
	var active []*Record
	err := store.WithLockedFile(s.path, func() error {
		recs, parseErrors, err := s.load()
		if parseErrors > 0 {
			diag := errcodes.New(errcodes.ConfigParseFailure, "pending store: skipped malformed lines")
			log.Warn().Int("parse_errors", parseErrors).Int("code", int(diag.Code)).Msg("pending store: skipped malformed lines")
		}
		if err != nil {
			return err
		}
		pruned := pruneExpired(recs, now)
		if len(pruned) != len(recs) {
			if werr := s.writeLocked(pruned); werr != nil {
				diag := errcodes.Wrap(errcodes.RuntimeIOError, "failed to rewrite pending store after pruning", werr)
				log.Warn().Err(diag).Int("code", int(diag.Code)).Msg("failed to rewrite pending store after pruning")
			}
		}
		for _, r := range pruned {
			if r.active(now) {
				active = append(active, r)
			}
		}
		return nil
	})
	return active, err
}

// FindByShortCode returns the unique active record whose short code
// matches. Ambiguity (more than one active record sharing a code — only
// possible before a collision has been detected and upgraded to 6 chars)
// is reported as an error so the caller can ask for a full_hash prefix.
func (s *Store) FindByShortCode(now time.Time, code string) (*Record, error) {
	active, err := s.Active(now)
	if err != nil {
		return nil, err
	}
	var matches []*Record
	for _, r := range active {
		if r.ShortCode == code {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no active pending exception for code %q", code)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous code %q matches %d active records; disambiguate by full_hash prefix", code, len(matches))
	}
}

// FindByHashPrefix disambiguates a code collision by full_hash prefix.
func (s *Store) FindByHashPrefix(now time.Time, prefix string) (*Record, error) {
	active, err := s.Active(now)
	if err != nil {
		return nil, err
	}
	var matches []*Record
	for _, r := range active {
		if strings.HasPrefix(r.FullHash, prefix) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no active pending exception with hash prefix %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous hash prefix %q matches %d active records", prefix, len(matches))
	}
}

// Consume marks the record with the given full_hash as consumed and
// rewrites the store. Used by redemption (§4.4 step 4) once an allow-once
// entry has been created from it.
func (s *Store) Consume(now time.Time, fullHash string) error {
	return store.WithLockedFile(s.path, func() error {
		recs, _, err := s.load()
		if err != nil {
			return err
		}
		found := false
		for _, r := range recs {
			if r.FullHash == fullHash {
				consumedAt := now.UTC()
				r.ConsumedAt = &consumedAt
				found = true
			}
		}
		if !found {
			return fmt.Errorf("no pending exception with hash %q", fullHash)
		}
		return s.writeLocked(pruneExpired(recs, now))
	})
}

func pruneExpired(recs []*Record, now time.Time) []*Record {
	out := make([]*Record, 0, len(recs))
	for _, r := range recs {
		if r.expired(now) && r.ConsumedAt == nil {
			continue // drop silently expired, unconsumed entries
		}
		out = append(out, r)
	}
	return out
}

// withRecords is a read-only convenience wrapper used by Issue to compute
// collision state without holding the lock across the append.
func (s *Store) withRecords(fn func([]*Record)) error {
	recs, _, err := s.load()
	if err != nil {
		return err
	}
	fn(recs)
	return nil
}

func (s *Store) load() ([]*Record, int, error) {
	var recs []*Record
	parseErrors, err := store.ReadLines(s.path, func(line []byte) error {
		var r Record
		if jerr := json.Unmarshal(line, &r); jerr != nil {
			return jerr
		}
		recs = append(recs, &r)
		return nil
	})
	return recs, parseErrors, err
}

func (s *Store) writeLocked(recs []*Record) error {
	lines := make([][]byte, 0, len(recs))
	for _, r := range recs {
		b, err := json.Marshal(r)
		if err != nil {
			continue
		}
		lines = append(lines, b)
	}
	return store.AppendLines(s.path, lines)
}

func (s *Store) appendAndPrune(now time.Time, rec *Record) error {
	return store.WithLockedFile(s.path, func() error {
		recs, _, err := s.load()
		if err != nil {
			return err
		}
		recs = pruneExpired(recs, now)
		recs = append(recs, rec)
		return s.writeLocked(recs)
	})
}
