package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentguard/dcg/internal/packs"
	"github.com/agentguard/dcg/internal/sarif"
)

var scanFormat string

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "Scan shell scripts under path for destructive commands and emit a report",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFormat, "format", "sarif", "output format: sarif or json")
}

// scanExtensions are the file types scan treats as containing shell
// commands worth line-scanning; anything else is skipped rather than
// misread as shell.
var scanExtensions = map[string]bool{
	".sh":   true,
	".bash": true,
	".zsh":  true,
}

func runScan(cmd *cobra.Command, args []string) error {
	root := args[0]

	eval, _, err := bootstrap()
	if err != nil {
		return err
	}
	if eval.Registry == nil {
		return fmt.Errorf("dcg: no packs registered")
	}

	var findings []sarif.Finding
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries, keep scanning the rest
		}
		if info.IsDir() {
			return nil
		}
		if !scanExtensions[filepath.Ext(path)] {
			return nil
		}
		fileFindings, ferr := scanFile(eval.Registry, path)
		if ferr != nil {
			cmd.PrintErrf("warning: failed to scan %s: %v\n", path, ferr)
			return nil
		}
		findings = append(findings, fileFindings...)
		return nil
	})
	if err != nil {
		return err
	}

	if scanFormat == "json" {
		return printJSONFindings(cmd, findings)
	}
	log := sarif.Render(findings)
	data, err := sarif.Marshal(log)
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}

func scanFile(reg *packs.PackRegistry, path string) ([]sarif.Finding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var findings []sarif.Finding
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		normalized, _ := packs.Normalize(line)
		if packs.QuickReject(normalized, reg.AllKeywords()) {
			continue
		}
		for _, p := range reg.Ordered() {
			m, err := p.Check(normalized)
			if err != nil || m == nil {
				continue
			}
			findings = append(findings, sarif.Finding{
				RuleID:      m.RuleID,
				PackID:      m.PackID,
				Severity:    m.Severity,
				Message:     m.Reason,
				FilePath:    path,
				StartLine:   lineNum,
				StartColumn: m.Span.Start + 1,
			})
			break
		}
	}
	return findings, scanner.Err()
}

func printJSONFindings(cmd *cobra.Command, findings []sarif.Finding) error {
	for _, f := range findings {
		cmd.Printf("%s:%d: [%s] %s (%s)\n", f.FilePath, f.StartLine, f.Severity, f.Message, f.RuleID)
	}
	return nil
}
