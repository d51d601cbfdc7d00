package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentguard/dcg/internal/packs"
)

var explainCmd = &cobra.Command{
	Use:   "explain <command>",
	Short: "Show every pack that would be consulted for a command and why it would or wouldn't match",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExplain,
}

func runExplain(cmd *cobra.Command, args []string) error {
	command := strings.Join(args, " ")

	eval, _, err := bootstrap()
	if err != nil {
		return err
	}
	if eval.Registry == nil {
		cmd.Println("no packs registered")
		return nil
	}

	normalized, _ := packs.Normalize(command)
	rejected := packs.QuickReject(normalized, eval.Registry.AllKeywords())
	cmd.Printf("normalized: %s\n", normalized)
	cmd.Printf("quick-reject: %v\n", rejected)
	if rejected {
		cmd.Println("no keyword in any pack matches; evaluation would stop here (Allow)")
		return nil
	}

	for _, p := range eval.Registry.Ordered() {
		m, err := p.Check(normalized)
		if err != nil {
			cmd.Printf("%-28s error: %v\n", p.ID, err)
			continue
		}
		if m == nil {
			continue
		}
		cmd.Printf("%-28s MATCH rule_id=%s severity=%s reason=%q\n", p.ID, m.RuleID, m.Severity, m.Reason)
	}
	return nil
}
