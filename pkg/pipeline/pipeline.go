package pipeline

import (
	"context"
	"log"

	"github.com/dennismutuku2005/WaProtect/pkg/ai"
	"github.com/dennismutuku2005/WaProtect/pkg/httputil"
	"github.com/dennismutuku2005/WaProtect/pkg/spam"
	"github.com/dennismutuku2005/WaProtect/pkg/stats"
)

// Pipeline runs one message through score, escalate, resolve, and execute.
// The classifier call is the only suspension point; everything else is pure
// computation plus counter bumps.
type Pipeline struct {
	scorer     *spam.Scorer
	classifier *ai.Classifier
	sem        *httputil.Semaphore
	counters   *stats.Counters
	executor   Executor
}

// New assembles a pipeline. classifier may be a disabled instance; executor
// may be nil for diagnostic-only use.
func New(scorer *spam.Scorer, classifier *ai.Classifier, concurrency int, counters *stats.Counters, executor Executor) *Pipeline {
	if scorer == nil {
		scorer = spam.NewScorer(nil)
	}
	if counters == nil {
		counters = stats.NewCounters()
	}
	return &Pipeline{
		scorer:     scorer,
		classifier: classifier,
		sem:        httputil.NewSemaphore(concurrency),
		counters:   counters,
		executor:   executor,
	}
}

// Evaluate is the diagnostic entry point: the exact scoring path live
// messages take, with no counters, no AI, and no side effects.
func (p *Pipeline) Evaluate(text string) spam.Analysis {
	return p.scorer.Evaluate(text)
}

// Counters exposes the shared aggregator for status reporting.
func (p *Pipeline) Counters() *stats.Counters {
	return p.counters
}

// Process moderates one message and returns the decision taken. Executor
// failures are already reported by the executor itself, so the returned error
// covers only context cancellation.
func (p *Pipeline) Process(ctx context.Context, msg Message) (Decision, error) {
	p.counters.IncProcessed()

	local := p.scorer.Evaluate(msg.Text)
	if local.IsSuspicious {
		p.counters.IncLocalFlagged()
	}

	var verdict *ai.Analysis
	if spam.ShouldEscalate(local) {
		verdict = p.review(ctx, msg, local)
	}

	decision := Resolve(local, verdict)

	if decision.Action != ActionAllow {
		log.Printf("[PIPELINE] group=%s msg=%s score=%d action=%s event=%s",
			msg.GroupID, msg.ID, local.Score, decision.Action, decision.EventID)
	}

	if p.executor != nil && decision.Action != ActionAllow {
		if err := p.executor.Execute(ctx, msg, decision); err != nil {
			return decision, err
		}
	}
	return decision, ctx.Err()
}

// review runs the bounded classifier call and degrades to the fallback on any
// failure. A saturated semaphore also degrades rather than queueing; a scam
// burst must not back up behind the AI tier.
func (p *Pipeline) review(ctx context.Context, msg Message, local spam.Analysis) *ai.Analysis {
	if p.classifier == nil || !p.classifier.Enabled() {
		return ai.Fallback(local, nil)
	}
	if !p.sem.TryAcquire() {
		log.Printf("[PIPELINE] classifier at capacity, falling back msg=%s", msg.ID)
		return ai.Fallback(local, context.DeadlineExceeded)
	}
	defer p.sem.Release()

	verdict, err := p.classifier.Classify(ctx, msg.Text, local)
	if err != nil {
		log.Printf("[WARN] classifier failed msg=%s: %v", msg.ID, err)
		return ai.Fallback(local, err)
	}
	p.counters.IncAIAnalyzed()
	return verdict
}
