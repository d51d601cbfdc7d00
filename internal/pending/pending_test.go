package pending_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentguard/dcg/internal/pending"
	"github.com/agentguard/dcg/internal/redact"
)

func newTestStore(t *testing.T) *pending.Store {
	t.Helper()
	return pending.NewStore(filepath.Join(t.TempDir(), "pending.jsonl"), nil)
}

func TestIssueThenFindByShortCode(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	rec, err := s.Issue(now, "rm -rf /", "/home/user/project", "destructive rm", "dcg.core.filesystem.rm_rf", redact.ModeNone)
	require.NoError(t, err)
	require.NotEmpty(t, rec.ShortCode)
	require.Len(t, rec.ShortCode, 5)
	require.Equal(t, pending.SchemaVersion, rec.SchemaVersion)
	require.WithinDuration(t, now.UTC().Add(pending.TTL), rec.ExpiresAt, time.Second)

	found, err := s.FindByShortCode(now, rec.ShortCode)
	require.NoError(t, err)
	require.Equal(t, rec.FullHash, found.FullHash)
}

func TestFindByShortCodeUnknownErrors(t *testing.T) {
	s := newTestStore(t)
	_, err := s.FindByShortCode(time.Now(), "zzzzz")
	require.Error(t, err)
}

func TestConsumeRemovesRecordFromActiveSet(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	rec, err := s.Issue(now, "rm -rf /", "/cwd", "reason", "source", redact.ModeNone)
	require.NoError(t, err)

	require.NoError(t, s.Consume(now, rec.FullHash))

	_, err = s.FindByShortCode(now, rec.ShortCode)
	require.Error(t, err, "consumed records must not be findable as active")
}

func TestActivePrunesExpiredRecords(t *testing.T) {
	s := newTestStore(t)
	issuedAt := time.Now().Add(-48 * time.Hour)

	_, err := s.Issue(issuedAt, "rm -rf /tmp/x", "/cwd", "reason", "source", redact.ModeNone)
	require.NoError(t, err)

	active, err := s.Active(time.Now())
	require.NoError(t, err)
	require.Empty(t, active, "record issued 48h ago with a 24h TTL must be pruned")
}

func TestIssueRedactsPerMode(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	cmd := "curl -H 'Authorization: Bearer supersecrettoken123'"

	rec, err := s.Issue(now, cmd, "/cwd", "reason", "source", redact.ModeFull)
	require.NoError(t, err)
	require.Equal(t, cmd, rec.CommandRaw, "raw command must be preserved even when redacted copy differs")
	require.Equal(t, "[REDACTED]", rec.CommandRedacted)
}

func TestHMACSecretChangesDerivedHash(t *testing.T) {
	now := time.Now()
	plain := pending.NewStore(filepath.Join(t.TempDir(), "a.jsonl"), nil)
	keyed := pending.NewStore(filepath.Join(t.TempDir(), "b.jsonl"), []byte("shared-secret"))

	r1, err := plain.Issue(now, "rm -rf /", "/cwd", "reason", "source", redact.ModeNone)
	require.NoError(t, err)
	r2, err := keyed.Issue(now, "rm -rf /", "/cwd", "reason", "source", redact.ModeNone)
	require.NoError(t, err)

	require.NotEqual(t, r1.FullHash, r2.FullHash)
}
