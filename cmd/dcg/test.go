package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentguard/dcg/internal/branch"
	"github.com/agentguard/dcg/internal/evaluator"
)

var testCmd = &cobra.Command{
	Use:   "test <command>",
	Short: "Evaluate a command directly and print the decision, without the hook JSON envelope",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	command := strings.Join(args, " ")

	eval, _, err := bootstrap()
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	ctx := evaluator.Context{Command: command, Cwd: cwd, Branch: branch.Current(cwd)}
	result := eval.Evaluate(time.Now(), ctx)

	cmd.Printf("decision: %s\n", result.Decision)
	if result.RuleID != "" {
		cmd.Printf("rule_id:  %s\n", result.RuleID)
		cmd.Printf("severity: %s\n", result.Severity)
		cmd.Printf("reason:   %s\n", result.Reason)
	}
	if result.AllowedByLayer != "" {
		cmd.Printf("allowed_by_layer: %s\n", result.AllowedByLayer)
	}
	if result.SkippedDueToBudget {
		cmd.Println("note: evaluation budget exceeded, remaining phases skipped")
	}
	if result.PendingRecord != nil {
		cmd.Printf("allow_once_code: %s\n", result.PendingRecord.ShortCode)
	}

	if result.Decision == evaluator.Deny {
		return fmt.Errorf("command denied")
	}
	return nil
}
