// Package patterns provides a centralized, data-driven rule catalog for
// scam detection. All regex rules are compiled once at load and shared
// across every scorer instance.
//
// Design principles:
// - COMPILE ONCE: All rules compiled at load, not per-message
// - DRY: Single source of truth for all detection rules
// - CATEGORIZED: Rules organized by scam category with per-category counting
// - IMMUTABLE: The catalog never changes after load; safe for concurrent reads
package patterns

import (
	"regexp"
	"sync"
)

// Category represents a scam rule category
type Category string

const (
	// Additive categories
	CategoryOrgImpersonation Category = "organization_impersonation"
	CategoryFinancialScam    Category = "financial_scam"
	CategoryUrgency          Category = "urgency_pressure"
	CategoryDataHarvesting   Category = "data_harvesting"
	CategoryScamPhrase       Category = "known_scam_phrase"
	CategoryTimeSensitive    Category = "time_sensitive_pressure"

	// Subtractive category: campus/event language and other signals of a
	// legitimate message. Reduces the score, never increases it.
	CategoryLegitimacy Category = "legitimacy_signal"
)

// CountMode controls how hits in a category translate into points and flags.
type CountMode int

const (
	// CountEveryHit: every distinct rule hit adds its weight and raises the flag.
	CountEveryHit CountMode = iota
	// CountFlagOnce: every distinct rule hit adds its weight; the flag is
	// raised at most once no matter how many rules fired.
	CountFlagOnce
	// CountThreshold: hits below MinHits contribute nothing; at or above
	// MinHits every hit adds its weight and the flag is raised once.
	CountThreshold
)

// CategoryPolicy describes the counting rule for one category.
type CategoryPolicy struct {
	Mode    CountMode
	MinHits int // only meaningful for CountThreshold
}

// Rule holds a compiled regex with metadata
type Rule struct {
	Name        string         // Stable identifier, used in evidence strings
	Regex       *regexp.Regexp // Compiled regex (never nil after load)
	Category    Category       // Scam category
	Weight      int            // Score contribution per hit (subtraction for legitimacy)
	Description string         // What this rule detects
}

// Policy carries the tunable knobs of the catalog. Zero value means defaults.
type Policy struct {
	// Weights overrides the default per-category weight. A category absent
	// from the map keeps its built-in weight.
	Weights map[Category]int
	// TrustedDomains replaces the default link allowlist when non-empty.
	// Matching is by host suffix.
	TrustedDomains []string
	// LegitimacyCap bounds the total subtraction from legitimacy signals.
	// Zero means the default cap of 30.
	LegitimacyCap int
}

// Registry holds all compiled rules, organized by category.
// Immutable after New returns; reads need no synchronization.
type Registry struct {
	byCategory map[Category][]*Rule
	all        []*Rule
	policies   map[Category]CategoryPolicy
	trusted    []string
	legitCap   int
	version    string
}

// CatalogVersion identifies the built-in rule set.
const CatalogVersion = "2025.08"

// DefaultLegitimacyCap bounds how far legitimacy signals can pull a score down.
const DefaultLegitimacyCap = 30

// global singleton - built once on first use with default policy
var (
	defaultRegistry *Registry
	initOnce        sync.Once
)

// Get returns the default catalog (singleton, default policy).
func Get() *Registry {
	initOnce.Do(func() {
		defaultRegistry = New(Policy{})
	})
	return defaultRegistry
}

// defaultWeights are the indicative per-category weights. Tunable via Policy,
// not sacred.
var defaultWeights = map[Category]int{
	CategoryOrgImpersonation: 35,
	CategoryFinancialScam:    20,
	CategoryUrgency:          15,
	CategoryDataHarvesting:   25,
	CategoryScamPhrase:       30,
	CategoryTimeSensitive:    10,
	CategoryLegitimacy:       10,
}

var countingPolicies = map[Category]CategoryPolicy{
	CategoryOrgImpersonation: {Mode: CountEveryHit},
	CategoryFinancialScam:    {Mode: CountThreshold, MinHits: 2},
	CategoryUrgency:          {Mode: CountFlagOnce},
	CategoryDataHarvesting:   {Mode: CountThreshold, MinHits: 2},
	CategoryScamPhrase:       {Mode: CountEveryHit},
	CategoryTimeSensitive:    {Mode: CountFlagOnce},
	CategoryLegitimacy:       {Mode: CountFlagOnce},
}

// defaultTrustedDomains is the built-in link allowlist (host suffix match).
var defaultTrustedDomains = []string{
	"safaricom.co.ke",
	"ac.ke",
	"go.ke",
	"or.ke",
	"who.int",
	"unicef.org",
}

// New creates and populates a catalog from the given policy.
func New(p Policy) *Registry {
	r := &Registry{
		byCategory: make(map[Category][]*Rule),
		all:        make([]*Rule, 0, 40),
		policies:   countingPolicies,
		trusted:    defaultTrustedDomains,
		legitCap:   DefaultLegitimacyCap,
		version:    CatalogVersion,
	}
	if len(p.TrustedDomains) > 0 {
		r.trusted = p.TrustedDomains
	}
	if p.LegitimacyCap > 0 {
		r.legitCap = p.LegitimacyCap
	}

	weights := make(map[Category]int, len(defaultWeights))
	for cat, w := range defaultWeights {
		weights[cat] = w
	}
	for cat, w := range p.Weights {
		if w > 0 {
			weights[cat] = w
		}
	}

	r.registerOrgImpersonationRules(weights[CategoryOrgImpersonation])
	r.registerFinancialScamRules(weights[CategoryFinancialScam])
	r.registerUrgencyRules(weights[CategoryUrgency])
	r.registerDataHarvestingRules(weights[CategoryDataHarvesting])
	r.registerScamPhraseRules(weights[CategoryScamPhrase])
	r.registerTimeSensitiveRules(weights[CategoryTimeSensitive])
	r.registerLegitimacyRules(weights[CategoryLegitimacy])

	return r
}

// register adds a rule to the catalog (internal use only)
func (r *Registry) register(name string, pattern string, category Category, weight int, description string) {
	compiled := regexp.MustCompile(pattern)
	rule := &Rule{
		Name:        name,
		Regex:       compiled,
		Category:    category,
		Weight:      weight,
		Description: description,
	}

	r.byCategory[category] = append(r.byCategory[category], rule)
	r.all = append(r.all, rule)
}

// GetByCategory returns all rules for a specific category.
// Returns empty slice if category not found (never nil).
func (r *Registry) GetByCategory(cat Category) []*Rule {
	if rules, ok := r.byCategory[cat]; ok {
		return rules
	}
	return []*Rule{}
}

// MatchAll returns all rules in a category that match the text.
// Use when you need to know ALL matches (for comprehensive scoring).
func (r *Registry) MatchAll(text string, cat Category) []*Rule {
	var matches []*Rule
	for _, rule := range r.byCategory[cat] {
		if rule.Regex.MatchString(text) {
			matches = append(matches, rule)
		}
	}
	return matches
}

// MatchAny checks if text matches any rule in the category.
// Optimized for early exit on first match.
func (r *Registry) MatchAny(text string, cat Category) *Rule {
	for _, rule := range r.byCategory[cat] {
		if rule.Regex.MatchString(text) {
			return rule
		}
	}
	return nil
}

// PolicyFor returns the counting rule for a category.
func (r *Registry) PolicyFor(cat Category) CategoryPolicy {
	return r.policies[cat]
}

// TrustedDomains returns the link allowlist (host suffix match).
func (r *Registry) TrustedDomains() []string {
	return r.trusted
}

// LegitimacyCap returns the bound on total legitimacy subtraction.
func (r *Registry) LegitimacyCap() int {
	return r.legitCap
}

// Version identifies the loaded rule set.
func (r *Registry) Version() string {
	return r.version
}

// TotalRules returns the total count of registered rules
func (r *Registry) TotalRules() int {
	return len(r.all)
}

// CategoryCount returns the number of rules in a category
func (r *Registry) CategoryCount(cat Category) int {
	return len(r.byCategory[cat])
}
