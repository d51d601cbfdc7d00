// Package hook implements the Claude Code PreToolUse hook wire protocol:
// reading an Input from stdin, running it through the evaluator, and
// writing an Output to stdout only on deny. Field names and nesting are
// fixed by Claude Code's own hook contract, not something dcg controls.
package hook

import (
	"encoding/json"
	"io"

	"github.com/agentguard/dcg/internal/errcodes"
)

// MaxInputBytes bounds how much stdin protocol.go will read before giving
// up and treating the input as unparseable (fail open: Allow, log the
// protocol violation).
const MaxInputBytes = 256 * 1024

// Input is the JSON object Claude Code writes to the hook's stdin.
type Input struct {
	SessionID      string        `json:"session_id"`
	TranscriptPath string        `json:"transcript_path"`
	Cwd            string        `json:"cwd"`
	PermissionMode string        `json:"permission_mode"`
	HookEventName  string        `json:"hook_event_name"`
	ToolName       string        `json:"tool_name"`
	ToolInput      ToolInputData `json:"tool_input"`
	ToolUseID      string        `json:"tool_use_id"`
}

// ToolInputData is the Bash tool's argument payload, nested in Input.
type ToolInputData struct {
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Timeout     int    `json:"timeout,omitempty"`
}

// Output is written to stdout exactly once, only on a Deny decision.
// Allow and Warn produce no stdout output at all — Claude Code interprets
// silence as permission granted.
type Output struct {
	HookSpecificOutput SpecificOutput `json:"hookSpecificOutput"`
}

// SpecificOutput carries every field the denial needs to let the agent
// retry via an allow-once short code without a second round-trip.
type SpecificOutput struct {
	HookEventName            string       `json:"hookEventName"`
	PermissionDecision       string       `json:"permissionDecision"`
	PermissionDecisionReason string       `json:"permissionDecisionReason"`
	AllowOnceCode            string       `json:"allowOnceCode,omitempty"`
	AllowOnceFullHash        string       `json:"allowOnceFullHash,omitempty"`
	RuleID                   string       `json:"ruleId,omitempty"`
	PackID                   string       `json:"packId,omitempty"`
	Severity                 string       `json:"severity,omitempty"`
	Confidence               float64      `json:"confidence,omitempty"`
	Remediation              *Remediation `json:"remediation,omitempty"`
}

// Remediation suggests a way forward that doesn't require an outright
// override.
type Remediation struct {
	SafeAlternative   string `json:"safeAlternative,omitempty"`
	Explanation       string `json:"explanation,omitempty"`
	AllowOnceCommand  string `json:"allowOnceCommand,omitempty"`
}

// ReadInput decodes Input from r, refusing to read more than
// MaxInputBytes. A command this hook was never meant to guard (anything
// but tool_name == "Bash") is reported via ok=false, not an error: the
// caller's correct response is to allow silently, not to treat it as a
// protocol fault.
func ReadInput(r io.Reader) (Input, error) {
	limited := io.LimitReader(r, MaxInputBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return Input{}, errcodes.Wrap(errcodes.RuntimeStdinReadFailure, "read hook input", err)
	}
	if len(data) > MaxInputBytes {
		return Input{}, errcodes.New(errcodes.RuntimeInputTooLarge, "hook input exceeds byte limit")
	}
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return Input{}, errcodes.Wrap(errcodes.ExternalHookProtocolError, "parse hook input", err)
	}
	return in, nil
}

// IsBashCommand reports whether in names the Bash tool, the only tool_name
// dcg evaluates; every other tool is passed through (allow, no stdout)
// without ever reaching the evaluator.
func IsBashCommand(in Input) bool {
	return in.ToolName == "Bash"
}

// WriteDeny encodes and writes out exactly once to w. Callers must not
// call this for Allow or Warn decisions — there is no corresponding
// WriteAllow because Allow means "write nothing".
func WriteDeny(w io.Writer, out Output) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(out); err != nil {
		return errcodes.Wrap(errcodes.RuntimeStdoutWriteError, "write hook output", err)
	}
	return nil
}
