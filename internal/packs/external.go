package packs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/agentguard/dcg/internal/errcodes"
)

// externalPackFile is the schema-versioned YAML document an external pack
// file parses into, before being compiled into a *Pack.
type externalPackFile struct {
	SchemaVersion      int                    `yaml:"schema_version"`
	ID                 string                 `yaml:"id"`
	Name               string                 `yaml:"name"`
	Version            string                 `yaml:"version"`
	Keywords           []string               `yaml:"keywords"`
	SafePatterns       []externalPatternYAML  `yaml:"safe_patterns"`
	DestructivePatterns []externalPatternYAML `yaml:"destructive_patterns"`
}

type externalPatternYAML struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Severity    string `yaml:"severity"`
	Description string `yaml:"description"`
	Explanation string `yaml:"explanation"`
}

// LoadExternalDir walks dir for *.yaml/*.yml pack files and registers each
// one into reg. A pack whose id collides with a built-in (or another
// external pack already loaded) is rejected with a warning and skipped;
// the directory walk never aborts on a single bad file.
func LoadExternalDir(reg *PackRegistry, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read external pack dir %q: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		path := filepath.Join(dir, name)
		if err := loadExternalFile(reg, path); err != nil {
			diag := errcodes.Wrap(errcodes.ExternalPackLoadFailure, "skipping external pack file", err)
			log.Warn().Err(diag).Str("file", path).Int("code", int(diag.Code)).Msg("skipping external pack file")
		}
	}
	return nil
}

func loadExternalFile(reg *PackRegistry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}
	var doc externalPackFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %q: %w", path, err)
	}
	p, err := compileExternalPack(&doc)
	if err != nil {
		return fmt.Errorf("compile pack %q: %w", doc.ID, err)
	}
	if _, exists := reg.Get(p.ID); exists {
		return fmt.Errorf("pack id %q collides with an existing pack", p.ID)
	}
	return reg.RegisterExternal(p)
}

func compileExternalPack(doc *externalPackFile) (*Pack, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("missing id")
	}
	if !strings.Contains(doc.ID, ".") {
		return nil, fmt.Errorf("id %q must be namespace.name", doc.ID)
	}

	p := &Pack{
		ID:       doc.ID,
		Name:     doc.Name,
		Tier:     TierStrict, // external packs always sort last within strict tier
		Keywords: lowerAll(doc.Keywords),
	}
	for _, sp := range doc.SafePatterns {
		re, err := CompilePattern(sp.Pattern)
		if err != nil {
			diag := errcodes.Wrap(errcodes.PatternCompileFailure, "external safe pattern compile failure, skipping rule", err)
			log.Warn().Err(diag).Str("pack_id", doc.ID).Str("pattern", sp.Name).Int("code", int(diag.Code)).Msg("external safe pattern compile failure, skipping rule")
			continue
		}
		p.Safe = append(p.Safe, SafePattern{Name: sp.Name, Regex: re})
	}
	for _, dp := range doc.DestructivePatterns {
		re, err := CompilePattern(dp.Pattern)
		if err != nil {
			diag := errcodes.Wrap(errcodes.PatternCompileFailure, "external destructive pattern compile failure, skipping rule", err)
			log.Warn().Err(diag).Str("pack_id", doc.ID).Str("pattern", dp.Name).Int("code", int(diag.Code)).Msg("external destructive pattern compile failure, skipping rule")
			continue
		}
		sev := Severity(strings.ToLower(dp.Severity))
		if sev == "" {
			sev = SeverityMedium
		}
		p.Destructive = append(p.Destructive, DestructivePattern{
			Name:        dp.Name,
			Regex:       re,
			Reason:      dp.Description,
			Severity:    sev,
			Explanation: dp.Explanation,
		})
	}
	return p, nil
}

func lowerAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToLower(s)
	}
	return out
}
