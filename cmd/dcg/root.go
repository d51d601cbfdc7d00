package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/agentguard/dcg/internal/allowlist"
	"github.com/agentguard/dcg/internal/config"
	"github.com/agentguard/dcg/internal/errcodes"
	"github.com/agentguard/dcg/internal/evaluator"
	"github.com/agentguard/dcg/internal/logging"
	"github.com/agentguard/dcg/internal/packs"
	"github.com/agentguard/dcg/internal/packs/apigateway"
	"github.com/agentguard/dcg/internal/packs/cloud"
	"github.com/agentguard/dcg/internal/packs/containers"
	"github.com/agentguard/dcg/internal/packs/core"
	"github.com/agentguard/dcg/internal/packs/database"
	"github.com/agentguard/dcg/internal/packs/infrastructure"
	"github.com/agentguard/dcg/internal/packs/kubernetes"
	"github.com/agentguard/dcg/internal/packs/pkgmanagers"
	"github.com/agentguard/dcg/internal/packs/strict"
	"github.com/agentguard/dcg/internal/pending"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "dcg",
	Short:   "dcg is a pre-execution policy guard for shell commands issued by AI coding agents",
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to dcg config YAML (default: ~/.dcg/config.yaml)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(allowOnceCmd)
	rootCmd.AddCommand(allowlistCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("dcg %s\n", Version)
		if BuildTime != "unknown" {
			cmd.Printf("Built: %s\n", BuildTime)
		}
		if GitCommit != "unknown" {
			cmd.Printf("Commit: %s\n", GitCommit)
		}
	},
}

// bootstrap loads configuration, builds the built-in pack registry, and
// wires the allowlist/pending stores into an Evaluator. Every subcommand
// that needs to evaluate a command calls this once.
func bootstrap() (*evaluator.Evaluator, config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, cfg, err
	}
	logging.Setup(cfg.LogLevel)

	reg := packs.NewBuiltinRegistry(
		core.Git,
		core.Filesystem,
		infrastructure.Terraform,
		infrastructure.Ansible,
		cloud.AWS,
		cloud.GCP,
		cloud.Azure,
		kubernetes.Kubectl,
		kubernetes.Helm,
		containers.Docker,
		containers.Compose,
		database.PostgreSQL,
		database.MySQL,
		database.SQLite,
		database.MongoDB,
		database.Redis,
		apigateway.Kong,
		apigateway.AWSAPIGateway,
		apigateway.ELB,
		pkgmanagers.Apt,
		pkgmanagers.Npm,
		pkgmanagers.Pip,
		strict.HookBypass,
		strict.PrivEsc,
	)

	if cfg.ExternalPacksDir != "" {
		if err := packs.LoadExternalDir(reg, cfg.ExternalPacksDir); err != nil {
			diag := errcodes.Wrap(errcodes.ExternalPackLoadFailure, "external pack directory load failed, continuing with built-ins only", err)
			log.Warn().Err(diag).Int("code", int(diag.Code)).Msg("external pack directory load failed, continuing with built-ins only")
		}
	}

	resolver := &allowlist.Resolver{
		System:        allowlist.NewFileStore(cfg.SystemAllowlistPath, allowlist.LayerSystem),
		User:          allowlist.NewFileStore(cfg.UserAllowlistPath, allowlist.LayerUser),
		Project:       allowlist.NewFileStore(cfg.ProjectAllowlistPath, allowlist.LayerProject),
		BranchContext: allowlist.NewFileStore(cfg.ProjectAllowlistPath, allowlist.LayerBranchContext),
		Session:       allowlist.NewSessionLayer(),
	}

	var secret []byte
	if cfg.AllowOnceSecret != "" {
		secret = []byte(cfg.AllowOnceSecret)
	}
	pendingStore := pending.NewStore(cfg.PendingExceptionsPath, secret)
	onceStore := pending.NewOnceStore(cfg.AllowOncePath)

	eval := evaluator.New(reg, resolver, onceStore, pendingStore)
	eval.Budget = cfg.Budget()
	eval.RedactMode = cfg.RedactMode

	return eval, cfg, nil
}
