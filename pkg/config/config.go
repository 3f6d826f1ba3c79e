// Package config holds WaProtect runtime settings. Everything is
// environment-driven, with an optional YAML policy file for the detection
// catalog knobs.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dennismutuku2005/WaProtect/pkg/patterns"
)

// Config holds global settings for the WaProtect service.
type Config struct {
	// === Core ===
	Port       string // HTTP listen port (default "3000")
	OperatorID string // chat ID of the operator receiving alerts and commands
	BotID      string // our own participant ID, used to detect moderator privilege

	// === AI Classifier ===
	// These control the Gemini-backed review tier for medium-band messages.
	GeminiAPIKey  string // API key (env: GEMINI_API_KEY); empty disables the tier
	GeminiModel   string // model identifier (default "gemini-2.0-flash")
	GeminiBaseURL string // override endpoint for testing / proxies

	ClassifierTimeout     time.Duration // per-call deadline (default 15s)
	ClassifierConcurrency int           // max in-flight classifier calls (default 8)

	// === Counters ===
	RedisURL string // optional; empty means in-memory action counters

	// === Detection policy ===
	PolicyFile string // optional YAML file tuning the rule catalog
	Policy     patterns.Policy
}

// NewDefaultConfig builds a Config from the environment. The detection policy
// file, when set, is loaded eagerly so a malformed file fails at startup
// rather than mid-stream.
func NewDefaultConfig() (*Config, error) {
	cfg := &Config{
		Port:       GetEnv("WAPROTECT_PORT", "3000"),
		OperatorID: GetEnv("WAPROTECT_OPERATOR_ID", ""),
		BotID:      GetEnv("WAPROTECT_BOT_ID", ""),

		GeminiAPIKey:  GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:   GetEnv("WAPROTECT_GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL: GetEnv("WAPROTECT_GEMINI_BASE_URL", ""),

		ClassifierTimeout:     time.Duration(GetEnvInt("WAPROTECT_CLASSIFIER_TIMEOUT_MS", 15000)) * time.Millisecond,
		ClassifierConcurrency: GetEnvInt("WAPROTECT_CLASSIFIER_CONCURRENCY", 8),

		RedisURL:   GetEnv("WAPROTECT_REDIS_URL", ""),
		PolicyFile: GetEnv("WAPROTECT_POLICY_FILE", ""),
	}

	if cfg.PolicyFile != "" {
		policy, err := LoadPolicyFile(cfg.PolicyFile)
		if err != nil {
			return nil, fmt.Errorf("load policy file %s: %w", cfg.PolicyFile, err)
		}
		cfg.Policy = policy
	}

	if cfg.GeminiAPIKey == "" {
		log.Printf("[STARTUP] GEMINI_API_KEY not set - medium-band messages resolve on local analysis only")
	}
	return cfg, nil
}

// policyFile mirrors the YAML schema of the detection policy file:
//
//	weights:
//	  organization_impersonation: 35
//	  financial_scam: 20
//	trusted_domains: [safaricom.co.ke, ac.ke]
//	legitimacy_cap: 30
type policyFile struct {
	Weights        map[string]int `yaml:"weights"`
	TrustedDomains []string       `yaml:"trusted_domains"`
	LegitimacyCap  int            `yaml:"legitimacy_cap"`
}

// LoadPolicyFile parses a YAML detection policy. Unknown weight keys are an
// error so typos do not silently keep defaults.
func LoadPolicyFile(path string) (patterns.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return patterns.Policy{}, err
	}
	return ParsePolicy(data)
}

// ParsePolicy parses YAML policy bytes. Split out from LoadPolicyFile for
// testing without a filesystem.
func ParsePolicy(data []byte) (patterns.Policy, error) {
	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return patterns.Policy{}, fmt.Errorf("parse policy yaml: %w", err)
	}

	p := patterns.Policy{
		TrustedDomains: pf.TrustedDomains,
		LegitimacyCap:  pf.LegitimacyCap,
	}
	if len(pf.Weights) > 0 {
		p.Weights = make(map[patterns.Category]int, len(pf.Weights))
		for key, w := range pf.Weights {
			cat, ok := knownCategories[key]
			if !ok {
				return patterns.Policy{}, fmt.Errorf("unknown category %q in policy weights", key)
			}
			if w <= 0 {
				return patterns.Policy{}, fmt.Errorf("weight for %q must be positive, got %d", key, w)
			}
			p.Weights[cat] = w
		}
	}
	return p, nil
}

var knownCategories = map[string]patterns.Category{
	string(patterns.CategoryOrgImpersonation): patterns.CategoryOrgImpersonation,
	string(patterns.CategoryFinancialScam):    patterns.CategoryFinancialScam,
	string(patterns.CategoryUrgency):          patterns.CategoryUrgency,
	string(patterns.CategoryDataHarvesting):   patterns.CategoryDataHarvesting,
	string(patterns.CategoryScamPhrase):       patterns.CategoryScamPhrase,
	string(patterns.CategoryTimeSensitive):    patterns.CategoryTimeSensitive,
	string(patterns.CategoryLegitimacy):       patterns.CategoryLegitimacy,
}

// Helper functions for environment variable parsing.

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
