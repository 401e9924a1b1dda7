package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/cmdcenter/assets"
	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/pkg/filesystem"
	"github.com/doeshing/cmdcenter/internal/ports"
)

// Guardrail implements the SecurityService port for commands forwarded to a
// terminal server.
type Guardrail struct {
	patterns []compiledPattern
	source   string
}

type compiledPattern struct {
	re   *regexp.Regexp
	rule DangerPattern
}

// DangerPattern describes a regex-based guardrail rule.
type DangerPattern struct {
	Pattern string `yaml:"pattern"`
	Level   string `yaml:"level"`
	Message string `yaml:"message"`
	Action  string `yaml:"action"`
}

// RulesFile is the YAML schema root.
type RulesFile struct {
	Rules struct {
		DangerPatterns []DangerPattern `yaml:"danger_patterns"`
	} `yaml:"rules"`
}

// NewGuardrail loads guardrail rules from disk, or the embedded defaults when
// the file is missing or empty.
func NewGuardrail(path string) (*Guardrail, error) {
	rules, source, err := loadRules(path)
	if err != nil {
		return nil, err
	}

	compiled := make([]compiledPattern, 0, len(rules.Rules.DangerPatterns))
	for _, pattern := range rules.Rules.DangerPatterns {
		re, err := regexp.Compile(pattern.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid guardrail pattern %q: %w", pattern.Pattern, err)
		}
		compiled = append(compiled, compiledPattern{re: re, rule: pattern})
	}

	return &Guardrail{patterns: compiled, source: source}, nil
}

// Evaluate implements ports.SecurityService.
func (g *Guardrail) Evaluate(command string) (domain.RiskAssessment, error) {
	if g == nil {
		return domain.RiskAssessment{}, errors.New("guardrail nil")
	}
	assessment := domain.RiskAssessment{
		Level:  domain.RiskSafe,
		Action: domain.ActionAllow,
	}
	for _, pattern := range g.patterns {
		if !pattern.re.MatchString(command) {
			continue
		}
		ruleLevel := parseRiskLevel(pattern.rule.Level)
		ruleAction := parseAction(pattern.rule.Action, ruleLevel)
		if moreSevere(ruleLevel, assessment.Level) {
			assessment.Level = ruleLevel
		}
		if ruleAction == domain.ActionBlock || assessment.Action == domain.ActionAllow {
			assessment.Action = ruleAction
		}
		assessment.Reasons = append(assessment.Reasons, pattern.rule.Message)
		assessment.MatchedRules = append(assessment.MatchedRules, pattern.rule.Pattern)
	}
	return assessment, nil
}

// RuleCount returns the number of compiled rules.
func (g *Guardrail) RuleCount() int {
	return len(g.patterns)
}

// Source names where the rules came from: a file path or "embedded defaults".
func (g *Guardrail) Source() string {
	return g.source
}

func loadRules(path string) (RulesFile, string, error) {
	path = resolveRulesPath(path)
	data, err := os.ReadFile(path)
	if err == nil {
		var rules RulesFile
		if err := yaml.Unmarshal(data, &rules); err != nil {
			return RulesFile{}, "", fmt.Errorf("failed to parse guardrail rules %s: %w", path, err)
		}
		if len(rules.Rules.DangerPatterns) > 0 {
			return rules, path, nil
		}
	}

	var defaults RulesFile
	if err := yaml.Unmarshal(assets.DefaultGuardrailYAML, &defaults); err != nil {
		return RulesFile{}, "", fmt.Errorf("failed to parse embedded guardrail rules: %w", err)
	}
	return defaults, "embedded defaults", nil
}

func parseRiskLevel(value string) domain.RiskLevel {
	switch strings.ToLower(value) {
	case "low":
		return domain.RiskLow
	case "medium":
		return domain.RiskMedium
	case "high":
		return domain.RiskHigh
	case "critical":
		return domain.RiskCritical
	default:
		return domain.RiskSafe
	}
}

func parseAction(value string, fallback domain.RiskLevel) domain.GuardrailAction {
	switch strings.ToLower(value) {
	case "allow":
		return domain.ActionAllow
	case "warn":
		return domain.ActionWarn
	case "block":
		return domain.ActionBlock
	default:
		if fallback == domain.RiskSafe {
			return domain.ActionAllow
		}
		return domain.ActionWarn
	}
}

func moreSevere(next domain.RiskLevel, current domain.RiskLevel) bool {
	order := map[domain.RiskLevel]int{
		domain.RiskSafe:     0,
		domain.RiskLow:      1,
		domain.RiskMedium:   2,
		domain.RiskHigh:     3,
		domain.RiskCritical: 4,
	}
	return order[next] > order[current]
}

func resolveRulesPath(path string) string {
	if path == "" {
		return filepath.Join(filesystem.AppDir(), "guardrail.yaml")
	}
	return filesystem.ExpandHome(path)
}

var _ ports.SecurityService = (*Guardrail)(nil)
