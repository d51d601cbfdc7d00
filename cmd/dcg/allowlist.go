package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentguard/dcg/internal/allowlist"
	"github.com/agentguard/dcg/internal/config"
)

var (
	allowlistSystem  bool
	allowlistUser    bool
	allowlistProject bool
	allowlistReason  string
	allowlistPath    string
	allowlistBranch  string
)

var allowlistCmd = &cobra.Command{
	Use:   "allowlist",
	Short: "Manage System/User/Project allowlist entries",
}

var allowlistAddCmd = &cobra.Command{
	Use:   "add <rule_id>",
	Short: "Exempt a rule_id from denial at the chosen layer",
	Args:  cobra.ExactArgs(1),
	RunE:  runAllowlistAdd,
}

var allowlistRemoveCmd = &cobra.Command{
	Use:   "remove <rule_id>",
	Short: "Remove a rule_id exemption from the chosen layer",
	Args:  cobra.ExactArgs(1),
	RunE:  runAllowlistRemove,
}

var allowlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List allowlist entries across all layers",
	RunE:  runAllowlistList,
}

func init() {
	for _, c := range []*cobra.Command{allowlistAddCmd, allowlistRemoveCmd, allowlistListCmd} {
		c.Flags().BoolVar(&allowlistSystem, "system", false, "operate on the System layer")
		c.Flags().BoolVar(&allowlistUser, "user", false, "operate on the User layer")
		c.Flags().BoolVar(&allowlistProject, "project", false, "operate on the Project layer (default)")
	}
	allowlistAddCmd.Flags().StringVar(&allowlistReason, "reason", "", "why this rule is exempted (required)")
	allowlistAddCmd.Flags().StringVar(&allowlistPath, "path-prefix", "", "scope the exemption to commands run under this directory")
	allowlistAddCmd.Flags().StringVar(&allowlistBranch, "branch", "", "scope the exemption to this branch glob pattern")

	allowlistCmd.AddCommand(allowlistAddCmd, allowlistRemoveCmd, allowlistListCmd)
}

func selectedLayerStore(appCfg config.Config) *allowlist.FileStore {
	switch {
	case allowlistSystem:
		return allowlist.NewFileStore(appCfg.SystemAllowlistPath, allowlist.LayerSystem)
	case allowlistUser:
		return allowlist.NewFileStore(appCfg.UserAllowlistPath, allowlist.LayerUser)
	default:
		return allowlist.NewFileStore(appCfg.ProjectAllowlistPath, allowlist.LayerProject)
	}
}

func runAllowlistAdd(cmd *cobra.Command, args []string) error {
	if allowlistReason == "" {
		return fmt.Errorf("dcg: --reason is required")
	}
	_, appCfg, err := bootstrap()
	if err != nil {
		return err
	}
	store := selectedLayerStore(appCfg)
	if err := store.Add(args[0], allowlistPath, allowlistBranch, allowlistReason); err != nil {
		return fmt.Errorf("dcg: failed to add allowlist entry: %w", err)
	}
	cmd.Printf("added %s\n", args[0])
	return nil
}

func runAllowlistRemove(cmd *cobra.Command, args []string) error {
	_, appCfg, err := bootstrap()
	if err != nil {
		return err
	}
	store := selectedLayerStore(appCfg)
	if err := store.Remove(args[0]); err != nil {
		return fmt.Errorf("dcg: failed to remove allowlist entry: %w", err)
	}
	cmd.Printf("removed %s\n", args[0])
	return nil
}

func runAllowlistList(cmd *cobra.Command, args []string) error {
	_, appCfg, err := bootstrap()
	if err != nil {
		return err
	}
	layers := []*allowlist.FileStore{
		allowlist.NewFileStore(appCfg.SystemAllowlistPath, allowlist.LayerSystem),
		allowlist.NewFileStore(appCfg.UserAllowlistPath, allowlist.LayerUser),
		allowlist.NewFileStore(appCfg.ProjectAllowlistPath, allowlist.LayerProject),
	}
	for _, l := range layers {
		entries, err := l.List()
		if err != nil {
			cmd.PrintErrf("warning: failed to read a layer: %v\n", err)
			continue
		}
		for _, e := range entries {
			cmd.Printf("%-16s %-40s %s\n", e.Layer, e.RuleID, e.Reason)
		}
	}
	return nil
}
