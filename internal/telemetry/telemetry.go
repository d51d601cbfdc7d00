// Package telemetry records decision events to a local SQLite database via
// a bounded-channel worker goroutine, so the decision path itself never
// blocks on disk I/O. Prometheus counters mirror the same events for
// operators scraping a metrics endpoint. Both sinks are best-effort: a
// full channel drops the event rather than stalling the caller.
package telemetry

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/agentguard/dcg/internal/errcodes"

	_ "modernc.org/sqlite"
)

// Event is one evaluated command's outcome, queued for async persistence.
type Event struct {
	Timestamp time.Time
	RuleID    string
	PackID    string
	Severity  string
	Decision  string
	LatencyUS int64
}

var (
	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dcg",
			Name:      "decisions_total",
			Help:      "Number of evaluated commands by decision and severity.",
		},
		[]string{"decision", "severity"},
	)
	evaluationLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "dcg",
			Name:      "evaluation_latency_microseconds",
			Help:      "Wall-clock time spent evaluating a single command.",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 14),
		},
	)
)

func init() {
	prometheus.MustRegister(decisionsTotal, evaluationLatency)
}

// Recorder owns the bounded channel and worker goroutine. A nil *Recorder
// is valid and silently drops every Record call — used when telemetry is
// disabled (DCG_TELEMETRY_DISABLED) so callers don't need a separate
// no-telemetry code path.
type Recorder struct {
	events chan Event
	done   chan struct{}
}

// Open creates (if needed) the schema at dbPath and starts the worker.
// queueSize bounds how many unflushed events may queue before Record
// starts dropping; a dropped event is logged once per occurrence, never
// silently lost from the operator's perspective, but never allowed to
// block the decision path either.
func Open(dbPath string, queueSize int) (*Recorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open telemetry db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create telemetry schema: %w", err)
	}

	r := &Recorder{
		events: make(chan Event, queueSize),
		done:   make(chan struct{}),
	}
	go r.run(db)
	return r, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id TEXT PRIMARY KEY,
	ts INTEGER NOT NULL,
	rule_id TEXT NOT NULL,
	pack_id TEXT NOT NULL,
	severity TEXT NOT NULL,
	decision TEXT NOT NULL,
	latency_us INTEGER NOT NULL
);
`

// newRowID mints a ULID for each telemetry row. ULIDs sort lexicographically
// by creation time, so `ORDER BY id` gives the same ordering as `ORDER BY
// ts` without a secondary index — useful once rows accumulate across many
// short-lived dcg process invocations, each of which only ever opens the
// database for a handful of writes.
func newRowID(ts time.Time) string {
	return ulid.MustNew(ulid.Timestamp(ts), nil).String()
}

func (r *Recorder) run(db *sql.DB) {
	defer db.Close()
	defer close(r.done)
	for ev := range r.events {
		_, err := db.Exec(
			`INSERT INTO decisions (id, ts, rule_id, pack_id, severity, decision, latency_us) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			newRowID(ev.Timestamp), ev.Timestamp.Unix(), ev.RuleID, ev.PackID, ev.Severity, ev.Decision, ev.LatencyUS,
		)
		if err != nil {
			diag := errcodes.Wrap(errcodes.RuntimeIOError, "telemetry write failed, continuing", err)
			log.Warn().Err(diag).Int("code", int(diag.Code)).Msg("telemetry write failed, continuing")
		}
	}
}

// Record enqueues ev for async persistence and updates the in-process
// Prometheus counters synchronously (cheap, no I/O). A full queue drops
// the SQLite write but the Prometheus counters still increment, since
// those are in-memory and never block.
func (r *Recorder) Record(ev Event) {
	decisionsTotal.WithLabelValues(ev.Decision, ev.Severity).Inc()
	evaluationLatency.Observe(float64(ev.LatencyUS))

	if r == nil {
		return
	}
	select {
	case r.events <- ev:
	default:
		diag := errcodes.New(errcodes.RuntimeIOError, "telemetry queue full, dropping event")
		log.Warn().Str("rule_id", ev.RuleID).Int("code", int(diag.Code)).Msg("telemetry queue full, dropping event")
	}
}

// Close flushes by closing the channel and waiting for the worker to
// drain it, then returns. Safe to call on a nil Recorder.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	close(r.events)
	<-r.done
}
