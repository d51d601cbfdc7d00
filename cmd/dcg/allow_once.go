package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentguard/dcg/internal/pending"
)

var (
	allowOnceProject   bool
	allowOncePersistent bool
)

var allowOnceCmd = &cobra.Command{
	Use:   "allow-once <short_code>",
	Short: "Redeem a denied command's short code, permitting it to run once (or until --persistent is set)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAllowOnce,
}

func init() {
	allowOnceCmd.Flags().BoolVar(&allowOnceProject, "project", false, "scope the exception to the whole project, not just this directory")
	allowOnceCmd.Flags().BoolVar(&allowOncePersistent, "persistent", false, "allow the exact command repeatedly instead of consuming it after one match")
}

func runAllowOnce(cmd *cobra.Command, args []string) error {
	code := args[0]

	_, cfg, err := bootstrap()
	if err != nil {
		return err
	}

	var secret []byte
	if cfg.AllowOnceSecret != "" {
		secret = []byte(cfg.AllowOnceSecret)
	}
	pendingStore := pending.NewStore(cfg.PendingExceptionsPath, secret)
	onceStore := pending.NewOnceStore(cfg.AllowOncePath)

	now := time.Now()
	rec, err := pendingStore.FindByShortCode(now, code)
	if err != nil {
		return fmt.Errorf("dcg: %w", err)
	}

	scope := pending.ScopeCwd
	scopePath := rec.Cwd
	if allowOnceProject {
		scope = pending.ScopeProject
		scopePath = rec.Cwd
	}

	entry, err := onceStore.Redeem(now, pendingStore, rec, scope, scopePath, !allowOncePersistent)
	if err != nil {
		return fmt.Errorf("dcg: failed to redeem allow-once code: %w", err)
	}

	cmd.Printf("allowed once: %s\n", entry.CommandRaw)
	cmd.Printf("scope: %s (%s)\n", entry.ScopeKind, entry.ScopePath)
	if entry.SingleUse {
		cmd.Println("this exception is consumed after its next match")
	} else {
		cmd.Println("this exception remains active until cleared")
	}
	return nil
}
