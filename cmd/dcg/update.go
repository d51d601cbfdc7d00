package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:     "check-updates",
	Aliases: []string{"update"},
	Short:   "Check whether a newer dcg release is available (interface only: no network call is made yet)",
	RunE:    runCheckUpdates,
}

// versionCheckRecord is persisted to version_check.json so repeated
// invocations can rate-limit how often they'd reach out to a release
// feed, once that feed exists. The lookup itself is deliberately not
// wired to a real network endpoint: this command is interface-only per
// the design, establishing the on-disk contract ahead of the update
// mechanism that will eventually populate LatestVersion.
type versionCheckRecord struct {
	CheckedAt      time.Time `json:"checked_at"`
	CurrentVersion string    `json:"current_version"`
	LatestVersion  string    `json:"latest_version,omitempty"`
}

func runCheckUpdates(cmd *cobra.Command, args []string) error {
	_, cfg, err := bootstrap()
	if err != nil {
		return err
	}

	rec := versionCheckRecord{
		CheckedAt:      time.Now().UTC(),
		CurrentVersion: Version,
	}

	path := filepath.Join(filepath.Dir(cfg.TelemetryDBPath), "version_check.json")
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		cmd.PrintErrf("warning: failed to persist version check record: %v\n", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "dcg %s (update checks are not yet wired to a release feed)\n", Version)
	return nil
}
