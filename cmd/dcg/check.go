package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/agentguard/dcg/internal/branch"
	"github.com/agentguard/dcg/internal/config"
	"github.com/agentguard/dcg/internal/denial"
	"github.com/agentguard/dcg/internal/errcodes"
	"github.com/agentguard/dcg/internal/evaluator"
	"github.com/agentguard/dcg/internal/hook"
	"github.com/agentguard/dcg/internal/telemetry"
)

// telemetryQueueSize bounds how many decision events a single short-lived
// `dcg check` process can buffer before Close drains them synchronously;
// one invocation only ever records one event, so this just needs headroom
// for the worker goroutine's startup.
const telemetryQueueSize = 8

// openTelemetry opens the SQLite-backed recorder unless the operator
// disabled it. A failure to open is logged and treated the same as
// disabled: telemetry must never block or fail a decision.
func openTelemetry(cfg config.Config, logger zerolog.Logger) *telemetry.Recorder {
	if cfg.TelemetryDisabled {
		return nil
	}
	rec, err := telemetry.Open(cfg.TelemetryDBPath, telemetryQueueSize)
	if err != nil {
		diag := errcodes.Wrap(errcodes.RuntimeIOError, "telemetry open failed, continuing without it", err)
		logger.Warn().Err(diag).Int("code", int(diag.Code)).Msg("telemetry open failed, continuing without it")
		return nil
	}
	return rec
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Read a Claude Code PreToolUse hook payload from stdin and emit an allow/deny decision",
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	// correlationID ties together the handful of log lines a single hook
	// invocation produces, since dcg has no long-lived request/trace context
	// of its own — each `dcg check` run is a fresh process.
	correlationID := uuid.New().String()
	logger := log.With().Str("correlation_id", correlationID).Logger()

	in, err := hook.ReadInput(os.Stdin)
	if err != nil {
		// Fail open: a malformed hook payload must never block the agent.
		evt := logger.Warn().Err(err)
		var diag *errcodes.Diagnostic
		if errors.As(err, &diag) {
			evt = evt.Int("code", int(diag.Code))
		}
		evt.Msg("hook protocol error, allowing")
		fmt.Fprintf(os.Stderr, "dcg: hook protocol error, allowing: %v\n", err)
		return nil
	}
	if !hook.IsBashCommand(in) {
		return nil
	}

	eval, cfg, err := bootstrap()
	if err != nil {
		logger.Warn().Err(err).Msg("bootstrap error, allowing")
		fmt.Fprintf(os.Stderr, "dcg: bootstrap error, allowing: %v\n", err)
		return nil
	}

	rec := openTelemetry(cfg, logger)
	defer rec.Close()

	ctx := evaluator.Context{
		Command: in.ToolInput.Command,
		Cwd:     in.Cwd,
		Branch:  branch.Current(in.Cwd),
	}
	start := time.Now()
	result := eval.Evaluate(start, ctx)
	latency := time.Since(start)
	logger.Debug().
		Str("decision", string(result.Decision)).
		Str("rule_id", result.RuleID).
		Msg("evaluated command")

	rec.Record(telemetry.Event{
		Timestamp: start,
		RuleID:    result.RuleID,
		PackID:    result.PackID,
		Severity:  string(result.Severity),
		Decision:  string(result.Decision),
		LatencyUS: latency.Microseconds(),
	})

	switch result.Decision {
	case evaluator.Allow:
		return nil
	case evaluator.Warn:
		renderToStderr(result, ctx, false)
		return nil
	case evaluator.Deny:
		renderToStderr(result, ctx, true)
		return writeDenyOutput(result)
	}
	return nil
}

func renderToStderr(result evaluator.Result, ctx evaluator.Context, isDeny bool) {
	theme := denial.DetectTheme(os.Stderr.Fd())
	d := denial.Denial{
		Command:     ctx.Command,
		Span:        result.Span,
		RuleID:      result.RuleID,
		PackID:      result.PackID,
		Severity:    result.Severity,
		Reason:      result.Reason,
		Explanation: result.Explanation,
		Suggestion:  result.Suggestion,
		Warn:        !isDeny,
	}
	if result.PendingRecord != nil {
		d.ShortCode = result.PendingRecord.ShortCode
	}
	fmt.Fprint(os.Stderr, denial.Render(d, theme))
}

func writeDenyOutput(result evaluator.Result) error {
	out := hook.Output{
		HookSpecificOutput: hook.SpecificOutput{
			HookEventName:            "PreToolUse",
			PermissionDecision:       "deny",
			PermissionDecisionReason: result.Reason,
			RuleID:                   result.RuleID,
			PackID:                   result.PackID,
			Severity:                 string(result.Severity),
			Confidence:               result.Confidence,
			Remediation: &hook.Remediation{
				SafeAlternative: result.Suggestion,
				Explanation:     result.Explanation,
			},
		},
	}
	if result.PendingRecord != nil {
		out.HookSpecificOutput.AllowOnceCode = result.PendingRecord.ShortCode
		out.HookSpecificOutput.AllowOnceFullHash = result.PendingRecord.FullHash
		out.HookSpecificOutput.Remediation.AllowOnceCommand = fmt.Sprintf("dcg allow-once %s", result.PendingRecord.ShortCode)
	}
	return hook.WriteDeny(os.Stdout, out)
}
