// Package ai wraps the remote Gemini classifier used for medium-band
// messages. The classifier is advisory: every failure path degrades to a
// deterministic fallback derived from the local analysis, so the pipeline
// never blocks on a broken or absent AI tier.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dennismutuku2005/WaProtect/pkg/httputil"
	"github.com/dennismutuku2005/WaProtect/pkg/patterns"
	"github.com/dennismutuku2005/WaProtect/pkg/spam"
)

// Action is the classifier's recommended moderation action.
type Action string

const (
	ActionAllow           Action = "allow"
	ActionWarn            Action = "warn"
	ActionDelete          Action = "delete"
	ActionDeleteImmediate Action = "delete_immediate"
)

// RiskLevel grades the classifier's assessment of harm.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Scam category labels the classifier may attach to a verdict.
const (
	CategoryFinancialScam    = "financial_scam"
	CategoryOrgImpersonation = "org_impersonation"
	CategoryDataHarvesting   = "data_harvesting"
	CategoryAdvertisement    = "advertisement"
	CategoryLegitimate       = "legitimate"
	CategoryUnknown          = "unknown"
)

// Analysis is the typed classifier verdict. FallbackUsed marks verdicts
// synthesized locally after a classifier failure.
type Analysis struct {
	IsSpam          bool      `json:"isSpam"`
	IsFinancialScam bool      `json:"isFinancialScam"`
	IsImpersonation bool      `json:"isOrganizationImpersonation"`
	IsAdvertisement bool      `json:"isAdvertisement"`
	Confidence      float64   `json:"confidence"` // 0..1
	Action          Action    `json:"action"`
	RiskLevel       RiskLevel `json:"riskLevel"`
	Category        string    `json:"category"`
	Reason          string    `json:"reason"`
	MatchedPatterns []string  `json:"matchedPatterns"`
	FallbackUsed    bool      `json:"fallbackUsed"`
}

// ErrUnavailable means the classifier is not configured (no API key).
var ErrUnavailable = errors.New("ai classifier unavailable")

// ClassifierError wraps any classifier failure with its stage for the
// fallback reason string.
type ClassifierError struct {
	Stage string // "request", "transport", "status", "parse", "validate"
	Err   error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier %s: %v", e.Stage, e.Err)
}

func (e *ClassifierError) Unwrap() error { return e.Err }

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Classifier calls the Gemini generateContent API and parses the verdict.
type Classifier struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithHTTPClient overrides the shared pooled client (tests).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Classifier) { cl.client = c }
}

// WithBaseURL points the classifier at a non-default endpoint.
func WithBaseURL(u string) Option {
	return func(cl *Classifier) { cl.baseURL = strings.TrimSuffix(u, "/") }
}

// WithTimeout caps each classification call. Applied per call on top of the
// shared client's own timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Classifier) { cl.timeout = d }
}

// NewClassifier creates a Gemini classifier. An empty apiKey yields a
// classifier whose Classify always returns ErrUnavailable.
func NewClassifier(apiKey, model string, opts ...Option) *Classifier {
	cl := &Classifier{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		client:  httputil.Client(),
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// Enabled reports whether the classifier has credentials.
func (c *Classifier) Enabled() bool { return c.apiKey != "" }

// Gemini wire structures, request side.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// Response side.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// verdictWire uses a pointer for isSpam so a missing field is detectable.
// Everything else is optional and validated against the enums.
type verdictWire struct {
	IsSpam             *bool    `json:"isSpam"`
	IsFinancialScam    bool     `json:"isFinancialScam"`
	IsOrgImpersonation bool     `json:"isOrganizationImpersonation"`
	IsAdvertisement    bool     `json:"isAdvertisement"`
	Confidence         float64  `json:"confidence"`
	Action             string   `json:"action"`
	RiskLevel          string   `json:"riskLevel"`
	Category           string   `json:"category"`
	Reason             string   `json:"reason"`
	MatchedPatterns    []string `json:"matchedPatterns"`
}

// Classify sends the message text plus the local analysis to Gemini and
// returns the parsed verdict. Any failure returns a *ClassifierError (or
// ErrUnavailable); callers should then use Fallback.
func (c *Classifier) Classify(ctx context.Context, text string, local spam.Analysis) (*Analysis, error) {
	if !c.Enabled() {
		return nil, ErrUnavailable
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	prompt := buildPrompt(text, local)
	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return nil, &ClassifierError{Stage: "request", Err: err}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &ClassifierError{Stage: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ClassifierError{Stage: "transport", Err: err}
	}
	defer httputil.DrainAndClose(resp.Body)

	body, err := httputil.ReadResponseBody(resp.Body, httputil.MaxResponseSize)
	if err != nil {
		return nil, &ClassifierError{Stage: "transport", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ClassifierError{
			Stage: "status",
			Err:   fmt.Errorf("http %d: %s", resp.StatusCode, truncate(string(body), 200)),
		}
	}

	var gr geminiResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, &ClassifierError{Stage: "parse", Err: err}
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, &ClassifierError{Stage: "parse", Err: errors.New("empty candidates")}
	}

	return parseVerdict(gr.Candidates[0].Content.Parts[0].Text)
}

// parseVerdict extracts and validates the JSON verdict from the model's
// free-form reply.
func parseVerdict(reply string) (*Analysis, error) {
	raw := extractJSON(reply)
	if raw == "" {
		return nil, &ClassifierError{Stage: "parse", Err: errors.New("no json object in reply")}
	}

	var w verdictWire
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, &ClassifierError{Stage: "parse", Err: err}
	}
	if w.IsSpam == nil {
		return nil, &ClassifierError{Stage: "validate", Err: errors.New("isSpam missing")}
	}

	action := Action(w.Action)
	switch action {
	case ActionAllow, ActionWarn, ActionDelete, ActionDeleteImmediate:
	case "":
		action = ActionAllow
	default:
		return nil, &ClassifierError{Stage: "validate", Err: fmt.Errorf("unknown action %q", w.Action)}
	}

	risk := RiskLevel(w.RiskLevel)
	switch risk {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
	case "":
		risk = RiskLow
	default:
		return nil, &ClassifierError{Stage: "validate", Err: fmt.Errorf("unknown riskLevel %q", w.RiskLevel)}
	}

	category := w.Category
	switch category {
	case CategoryFinancialScam, CategoryOrgImpersonation, CategoryDataHarvesting,
		CategoryAdvertisement, CategoryLegitimate, CategoryUnknown:
	case "":
		category = CategoryUnknown
	default:
		return nil, &ClassifierError{Stage: "validate", Err: fmt.Errorf("unknown category %q", w.Category)}
	}

	confidence := w.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &Analysis{
		IsSpam:          *w.IsSpam,
		IsFinancialScam: w.IsFinancialScam,
		IsImpersonation: w.IsOrgImpersonation,
		IsAdvertisement: w.IsAdvertisement,
		Confidence:      confidence,
		Action:          action,
		RiskLevel:       risk,
		Category:        category,
		Reason:          w.Reason,
		MatchedPatterns: w.MatchedPatterns,
	}, nil
}

// Fallback synthesizes a verdict from the local analysis alone. Used whenever
// the classifier is unavailable or failed; the resolver treats it exactly
// like a genuine verdict.
func Fallback(local spam.Analysis, cause error) *Analysis {
	action := ActionAllow
	risk := RiskLow
	switch {
	case local.Score >= spam.ThresholdHighConfidence:
		action = ActionDeleteImmediate
		risk = RiskHigh
	case local.Score >= spam.ThresholdSuspicious:
		action = ActionDelete
		risk = RiskMedium
	}

	reason := "local analysis only"
	if cause != nil {
		reason = fmt.Sprintf("local analysis only (%v)", cause)
	}

	return &Analysis{
		IsSpam:          local.Score >= spam.ThresholdSuspicious,
		IsFinancialScam: hasFlag(local.Flags, string(patterns.CategoryFinancialScam)),
		IsImpersonation: hasFlag(local.Flags, string(patterns.CategoryOrgImpersonation)),
		Confidence:      float64(local.Score) / 100,
		Action:          action,
		RiskLevel:       risk,
		Category:        CategoryUnknown,
		Reason:          reason,
		MatchedPatterns: local.Evidence,
		FallbackUsed:    true,
	}
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

// buildPrompt asks for a strict JSON verdict and hands the model the local
// evidence so borderline calls are grounded in what the rules saw.
func buildPrompt(text string, local spam.Analysis) string {
	var b strings.Builder
	b.WriteString("You are a scam-detection reviewer for a community WhatsApp group in Kenya.\n")
	b.WriteString("A local rule engine flagged the message below as suspicious but not conclusive.\n\n")
	b.WriteString("Message:\n\"\"\"\n")
	b.WriteString(text)
	b.WriteString("\n\"\"\"\n\n")
	fmt.Fprintf(&b, "Local score: %d/100\n", local.Score)
	if len(local.Flags) > 0 {
		fmt.Fprintf(&b, "Local flags: %s\n", strings.Join(local.Flags, ", "))
	}
	if len(local.Evidence) > 0 {
		fmt.Fprintf(&b, "Local evidence: %s\n", strings.Join(local.Evidence, "; "))
	}
	b.WriteString("\nRespond with ONLY a JSON object, no markdown, in this exact shape:\n")
	b.WriteString(`{"isSpam": true|false, "isFinancialScam": true|false, "isOrganizationImpersonation": true|false, "isAdvertisement": true|false, "confidence": 0-1, "action": "allow"|"warn"|"delete"|"delete_immediate", "riskLevel": "low"|"medium"|"high"|"critical", "category": "financial_scam"|"org_impersonation"|"data_harvesting"|"advertisement"|"legitimate"|"unknown", "reason": "one sentence", "matchedPatterns": ["phrases from the message that drove your verdict"]}`)
	return b.String()
}

// extractJSON pulls the first balanced top-level JSON object out of text.
// Models wrap verdicts in prose and markdown fences despite instructions.
func extractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
