// Package spam implements the local scoring engine: a pure, deterministic
// mapping from message text to a risk analysis built on the rule catalog in
// pkg/patterns. Scoring performs no I/O and holds no state, so the same text
// always yields the same analysis.
package spam

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/dennismutuku2005/WaProtect/pkg/patterns"
)

// Score thresholds. The ladder is fixed; weights feeding into it are the
// tunable part (see patterns.Policy).
const (
	// ThresholdSuspicious marks the bottom of the medium band: the message is
	// suspicious and eligible for AI review.
	ThresholdSuspicious = 45
	// ThresholdDelete is the local score at which deletion is warranted even
	// without an AI verdict.
	ThresholdDelete = 60
	// ThresholdHighConfidence marks confident local spam: no AI review needed.
	ThresholdHighConfidence = 70
	// ThresholdRemove is the local score at which the sender is removed from
	// the group in addition to message deletion.
	ThresholdRemove = 85

	// MaxScore clamps the accumulated score.
	MaxScore = 100
)

// Confidence is the tier derived from the score ladder.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// LocalAction is the action recommended by local scoring alone.
type LocalAction string

const (
	LocalAllow           LocalAction = "allow"
	LocalReviewAI        LocalAction = "review_ai"
	LocalDeleteImmediate LocalAction = "delete_immediate"
)

// Analysis is the immutable result of scoring one message.
type Analysis struct {
	Score                int         `json:"score"`
	Flags                []string    `json:"flags"`
	Confidence           Confidence  `json:"confidence"`
	RecommendedAction    LocalAction `json:"recommendedAction"`
	Evidence             []string    `json:"evidence"`
	IsSuspicious         bool        `json:"isSuspicious"`
	IsHighConfidenceSpam bool        `json:"isHighConfidenceSpam"`
	MessageLength        int         `json:"messageLength"`
	WordCount            int         `json:"wordCount"`
}

// Contact and structural patterns. These need match extraction or counting,
// so they live here rather than in the catalog.
var (
	reURL           = regexp.MustCompile(`https?://[^\s]+|www\.[^\s]+|\b[a-z0-9-]+\.[a-z]{2,}/[^\s]*`)
	rePhone         = regexp.MustCompile(`\+?[\d\s()\-]{8,}|\d{8,}`)
	reEmail         = regexp.MustCompile(`@[a-z0-9.\-]+\.[a-z]{2,}`)
	rePersonalEmail = regexp.MustCompile(`gmail\.com|yahoo\.com|hotmail\.com`)
	reWord          = regexp.MustCompile(`[a-z0-9']+`)
)

// scamKeywords feed the keyword-density anomaly: three or more distinct
// matches add a structural bonus.
var scamKeywords = []string{
	"free", "win", "won", "prize", "lottery", "claim", "bonus",
	"reward", "offer", "limited", "exclusive", "guaranteed",
}

// humorMarkers counter false positives on banter-heavy group chats. Three or
// more occurrences count as a legitimacy signal.
var humorMarkers = []string{"😂", "🤣", "haha", "lol", "lmao", "hehe", "😅"}

// Structural anomaly weights.
const (
	bonusShortFinancial  = 10
	bonusExclamation     = 5
	bonusQuestions       = 5
	bonusCaps            = 10
	bonusKeywordDensity  = 15
	bonusRepeatedWords   = 5
	legitHumorSubtract   = 10
	legitTrustedSubtract = 15
)

// Scorer evaluates text against an immutable rule catalog.
type Scorer struct {
	catalog *patterns.Registry
}

// NewScorer creates a scorer over the given catalog. A nil catalog means the
// default one.
func NewScorer(catalog *patterns.Registry) *Scorer {
	if catalog == nil {
		catalog = patterns.Get()
	}
	return &Scorer{catalog: catalog}
}

// Catalog returns the catalog this scorer evaluates against.
func (s *Scorer) Catalog() *patterns.Registry {
	return s.catalog
}

// additiveCategories is the fixed evaluation order for weighted categories.
// Iteration order must be stable so evidence output is deterministic.
var additiveCategories = []patterns.Category{
	patterns.CategoryOrgImpersonation,
	patterns.CategoryFinancialScam,
	patterns.CategoryUrgency,
	patterns.CategoryDataHarvesting,
	patterns.CategoryScamPhrase,
	patterns.CategoryTimeSensitive,
}

// Evaluate scores one message. It is a pure function of the text: no I/O,
// no clock, no randomness. Empty or whitespace-only text scores zero.
func (s *Scorer) Evaluate(text string) Analysis {
	// NFKC first so homoglyph and fullwidth obfuscation collapses to ASCII
	// before any rule sees the text. Caps ratio is measured before
	// lowercasing, everything else matches the lowercased form.
	normalized := strings.TrimSpace(norm.NFKC.String(text))
	lower := strings.ToLower(normalized)

	words := fieldCount(lower)
	score := 0
	var flags []string
	var evidence []string
	flagged := make(map[string]bool)

	addFlag := func(f string) {
		if !flagged[f] {
			flagged[f] = true
			flags = append(flags, f)
		}
	}

	// Weighted catalog categories.
	financialHits := 0
	for _, cat := range additiveCategories {
		hits := s.catalog.MatchAll(lower, cat)
		if cat == patterns.CategoryFinancialScam {
			financialHits = len(hits)
		}
		if len(hits) == 0 {
			continue
		}
		policy := s.catalog.PolicyFor(cat)

		switch policy.Mode {
		case patterns.CountThreshold:
			if len(hits) < policy.MinHits {
				continue
			}
			for _, rule := range hits {
				score += rule.Weight
			}
			addFlag(string(cat))
			evidence = append(evidence, fmt.Sprintf("%d %s indicators", len(hits), categoryLabel(cat)))
		case patterns.CountFlagOnce:
			for _, rule := range hits {
				score += rule.Weight
			}
			addFlag(string(cat))
			evidence = append(evidence, fmt.Sprintf("%s detected (%d patterns)", categoryLabel(cat), len(hits)))
		default: // CountEveryHit
			for _, rule := range hits {
				score += rule.Weight
				addFlag(string(cat))
				evidence = append(evidence, fmt.Sprintf("%s: %s", categoryLabel(cat), rule.Description))
			}
		}
	}

	// Contact analysis: links, phone numbers, email addresses.
	links := reURL.FindAllString(lower, -1)
	untrusted, trusted := s.splitLinks(links)
	if untrusted > 0 {
		score += 20
		addFlag("suspicious_links")
		evidence = append(evidence, fmt.Sprintf("contains %d link(s) off the trusted list", untrusted))
	}
	if rePhone.MatchString(lower) {
		score += 15
		addFlag("phone_numbers")
		evidence = append(evidence, "contains phone number")
	}
	if reEmail.MatchString(lower) {
		score += 10
		addFlag("email_addresses")
		evidence = append(evidence, "contains email address")
	}
	if rePersonalEmail.MatchString(lower) {
		score += 25
		addFlag("personal_emails")
		evidence = append(evidence, "uses a public-provider email address")
	}

	// Structural anomalies.
	if words > 0 && words < 8 && financialHits > 0 {
		score += bonusShortFinancial
		addFlag("suspicious_short_message")
		evidence = append(evidence, "short message with financial terms")
	}
	if n := strings.Count(lower, "!"); n > 2 {
		score += bonusExclamation
		addFlag("excessive_exclamation")
		evidence = append(evidence, fmt.Sprintf("excessive exclamation marks: %d", n))
	}
	if n := strings.Count(lower, "?"); n > 3 {
		score += bonusQuestions
		addFlag("excessive_questions")
		evidence = append(evidence, fmt.Sprintf("excessive questioning: %d", n))
	}
	if ratio := capsRatio(normalized); ratio > 0.5 && len([]rune(normalized)) > 15 {
		score += bonusCaps
		addFlag("excessive_caps")
		evidence = append(evidence, fmt.Sprintf("excessive capitalization: %.1f%%", ratio*100))
	}
	if n := keywordDensity(lower); n >= 3 {
		score += bonusKeywordDensity
		addFlag("high_scam_keyword_density")
		evidence = append(evidence, fmt.Sprintf("high scam keyword density: %d keywords", n))
	}
	if repeated := repeatedWords(lower); len(repeated) >= 3 {
		score += bonusRepeatedWords
		addFlag("repeated_phrases")
		evidence = append(evidence, fmt.Sprintf("repeated words: %s", strings.Join(repeated[:3], ", ")))
	}

	// Legitimacy signals subtract, capped, and never push the score up.
	subtract := 0
	for _, rule := range s.catalog.MatchAll(lower, patterns.CategoryLegitimacy) {
		subtract += rule.Weight
	}
	if trusted > 0 && untrusted == 0 {
		subtract += legitTrustedSubtract
	}
	if humorCount(lower) >= 3 {
		subtract += legitHumorSubtract
	}
	if cap := s.catalog.LegitimacyCap(); subtract > cap {
		subtract = cap
	}
	if subtract > 0 {
		addFlag(string(patterns.CategoryLegitimacy))
		evidence = append(evidence, fmt.Sprintf("legitimacy signals: -%d", subtract))
		score -= subtract
	}

	if score < 0 {
		score = 0
	}
	if score > MaxScore {
		score = MaxScore
	}

	confidence, action := classify(score)

	if flags == nil {
		flags = []string{}
	}
	if evidence == nil {
		evidence = []string{}
	}

	return Analysis{
		Score:                score,
		Flags:                flags,
		Confidence:           confidence,
		RecommendedAction:    action,
		Evidence:             evidence,
		IsSuspicious:         score >= ThresholdSuspicious,
		IsHighConfidenceSpam: score >= ThresholdHighConfidence,
		MessageLength:        len(lower),
		WordCount:            words,
	}
}

// classify maps a clamped score onto the fixed confidence/action ladder.
func classify(score int) (Confidence, LocalAction) {
	switch {
	case score >= ThresholdHighConfidence:
		return ConfidenceHigh, LocalDeleteImmediate
	case score >= ThresholdSuspicious:
		return ConfidenceMedium, LocalReviewAI
	default:
		return ConfidenceLow, LocalAllow
	}
}

// splitLinks counts links off and on the trusted-domain allowlist.
func (s *Scorer) splitLinks(links []string) (untrusted, trusted int) {
	for _, link := range links {
		if s.isTrustedLink(link) {
			trusted++
		} else {
			untrusted++
		}
	}
	return untrusted, trusted
}

func (s *Scorer) isTrustedLink(link string) bool {
	host := linkHost(link)
	if host == "" {
		return false
	}
	for _, domain := range s.catalog.TrustedDomains() {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// linkHost extracts the host portion of a matched link, scheme or not.
func linkHost(link string) string {
	link = strings.TrimPrefix(link, "http://")
	link = strings.TrimPrefix(link, "https://")
	if i := strings.IndexAny(link, "/?#"); i >= 0 {
		link = link[:i]
	}
	if i := strings.IndexByte(link, ':'); i >= 0 {
		link = link[:i]
	}
	return strings.TrimSuffix(link, ".")
}

func fieldCount(text string) int {
	return len(strings.Fields(text))
}

// capsRatio measures uppercase letters over all runes, pre-lowercasing.
func capsRatio(text string) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}
	caps := 0
	for _, r := range runes {
		if unicode.IsUpper(r) {
			caps++
		}
	}
	return float64(caps) / float64(len(runes))
}

func keywordDensity(lower string) int {
	n := 0
	for _, kw := range scamKeywords {
		if matchWord(lower, kw) {
			n++
		}
	}
	return n
}

// matchWord reports whether kw occurs as a whole word in lower.
func matchWord(lower, kw string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		beforeOK := start == 0 || !isWordByte(lower[start-1])
		afterOK := end == len(lower) || !isWordByte(lower[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// repeatedWords returns, sorted, the distinct words of length >= 4 that occur
// more than once. Sorting keeps evidence deterministic.
func repeatedWords(lower string) []string {
	counts := make(map[string]int)
	for _, w := range reWord.FindAllString(lower, -1) {
		if len(w) >= 4 {
			counts[w]++
		}
	}
	var repeated []string
	for w, n := range counts {
		if n > 1 {
			repeated = append(repeated, w)
		}
	}
	sort.Strings(repeated)
	return repeated
}

func humorCount(lower string) int {
	n := 0
	for _, m := range humorMarkers {
		n += strings.Count(lower, m)
	}
	return n
}

func categoryLabel(cat patterns.Category) string {
	return strings.ReplaceAll(string(cat), "_", "-")
}
