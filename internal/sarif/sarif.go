// Package sarif renders a ScanReport as SARIF 2.1.0 JSON, the format
// GitHub code scanning and most static-analysis viewers consume, so
// `dcg scan` output slots into existing CI tooling without a bespoke
// viewer.
package sarif

import (
	"encoding/json"

	"github.com/agentguard/dcg/internal/packs"
)

const schemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
const version = "2.1.0"

// Finding is one scan-time match, source-location-qualified (scan operates
// over files containing candidate commands, e.g. shell scripts or CI
// YAML, rather than a single live command).
type Finding struct {
	RuleID      string
	PackID      string
	Severity    packs.Severity
	Message     string
	FilePath    string
	StartLine   int
	StartColumn int
}

// Log is the SARIF top-level "sarifLog" object.
type Log struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name            string `json:"name"`
	InformationURI  string `json:"informationUri,omitempty"`
	Rules           []Rule `json:"rules"`
}

type Rule struct {
	ID                   string               `json:"id"`
	Name                 string               `json:"name,omitempty"`
	DefaultConfiguration DefaultConfiguration `json:"defaultConfiguration"`
}

type DefaultConfiguration struct {
	Level string `json:"level"`
}

type Result struct {
	RuleID    string     `json:"ruleId"`
	Level     string     `json:"level"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations"`
}

type Message struct {
	Text string `json:"text"`
}

type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

type ArtifactLocation struct {
	URI string `json:"uri"`
}

type Region struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
}

// LevelFor maps a severity to the SARIF level vocabulary: Critical/High ->
// error, Medium -> warning, Low -> note.
func LevelFor(sev packs.Severity) string {
	switch sev {
	case packs.SeverityCritical, packs.SeverityHigh:
		return "error"
	case packs.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

// Render builds a complete SARIF log from findings.
func Render(findings []Finding) Log {
	rules := make(map[string]Rule)
	var results []Result
	for _, f := range findings {
		if _, ok := rules[f.RuleID]; !ok {
			rules[f.RuleID] = Rule{
				ID:                   f.RuleID,
				Name:                 f.PackID,
				DefaultConfiguration: DefaultConfiguration{Level: LevelFor(f.Severity)},
			}
		}
		results = append(results, Result{
			RuleID:  f.RuleID,
			Level:   LevelFor(f.Severity),
			Message: Message{Text: f.Message},
			Locations: []Location{{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{URI: f.FilePath},
					Region:           Region{StartLine: f.StartLine, StartColumn: f.StartColumn},
				},
			}},
		})
	}

	ruleList := make([]Rule, 0, len(rules))
	for _, r := range rules {
		ruleList = append(ruleList, r)
	}

	return Log{
		Schema:  schemaURI,
		Version: version,
		Runs: []Run{{
			Tool: Tool{Driver: Driver{
				Name:           "dcg",
				InformationURI: "",
				Rules:          ruleList,
			}},
			Results: results,
		}},
	}
}

// Marshal renders l as indented JSON, the conventional SARIF file format.
func Marshal(l Log) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}
