// Package pipeline runs the linear per-transcript flow: wake match,
// classify, dispatch, render, log. One instance serves all sessions;
// concurrent transcripts share only the pattern cache and the log
// store, both safe for concurrent use.
package pipeline

import (
    "context"
    "log"
    "time"

    "github.com/google/uuid"

    "barnabee/brain/internal/classify"
    "barnabee/brain/internal/dispatch"
    "barnabee/brain/internal/feedback"
    "barnabee/brain/internal/telemetry"
    "barnabee/brain/internal/types"
    "barnabee/brain/internal/wake"
)

type Pipeline struct {
    matcher    *wake.Matcher
    classifier *classify.Classifier
    dispatcher *dispatch.Dispatcher
    renderer   *feedback.Renderer
    logger     *telemetry.Logger
}

func New(m *wake.Matcher, c *classify.Classifier, d *dispatch.Dispatcher, r *feedback.Renderer, l *telemetry.Logger) *Pipeline {
    return &Pipeline{matcher: m, classifier: c, dispatcher: d, renderer: r, logger: l}
}

// Process runs the full pipeline on a raw transcript. Ambient text
// (no wake phrase) returns nils after the log write; commands return
// the rendered response and the envelope behind it.
func (p *Pipeline) Process(ctx context.Context, tr types.Transcript) (*types.DisplayUnit, *types.ResponseEnvelope) {
    match := p.matcher.Match(tr.Text)
    return p.ProcessMatched(ctx, tr, match)
}

// ProcessMatched continues the pipeline after wake detection. The Home
// Assistant bridge pre-strips the wake word and asserts the match, so
// this entry point trusts the supplied result instead of re-matching.
func (p *Pipeline) ProcessMatched(ctx context.Context, tr types.Transcript, match types.WakeMatchResult) (*types.DisplayUnit, *types.ResponseEnvelope) {
    metricTranscripts.Inc()
    if tr.ID == "" {
        tr.ID = uuid.New().String()
    }
    if tr.ReceivedAt.IsZero() {
        tr.ReceivedAt = time.Now().UTC()
    }

    if !match.Matched {
        metricAmbient.Inc()
        p.record(types.LogRecord{
            ID:         tr.ID,
            Transcript: tr,
            Match:      match,
            Status:     types.StatusProcessed,
        })
        return nil, nil
    }
    metricWakeMatches.WithLabelValues(string(match.Kind)).Inc()

    classified := p.classifier.Classify(ctx, match.Command)

    // Session teardown must not abort an outstanding tier call: the
    // result is still logged, only the render is best-effort.
    env := p.dispatcher.Dispatch(context.WithoutCancel(ctx), classified)
    metricPipelineLatency.Observe(float64(env.Duration.Milliseconds()))

    rec := types.LogRecord{
        ID:         tr.ID,
        Transcript: tr,
        Match:      match,
        Classified: &classified,
        Envelope:   &env,
    }
    p.record(rec)
    status := types.StatusProcessed
    if !env.Success {
        status = types.StatusFailed
    }
    p.logger.MarkProcessed(tr.ID, status)

    if ctx.Err() != nil {
        // Client gone; nothing to render to.
        log.Printf("[pipeline] session gone before render sid=%s tier=%s", tr.SessionID, env.Tier)
        return nil, &env
    }
    du := p.renderer.Present(env)
    return &du, &env
}

// RecordLearning stores a learning event (memory log, pattern update)
// with its refined memory tier. These carry no wake match or dispatch.
func (p *Pipeline) RecordLearning(tr types.Transcript, category string) {
    if tr.ID == "" {
        tr.ID = uuid.New().String()
    }
    if tr.ReceivedAt.IsZero() {
        tr.ReceivedAt = time.Now().UTC()
    }
    p.record(types.LogRecord{
        ID:         tr.ID,
        Transcript: tr,
        Match:      types.WakeMatchResult{Kind: types.MatchNone, Command: tr.Text},
        MemoryTier: memoryTier(category),
        Status:     types.StatusProcessed,
    })
}

func memoryTier(category string) string {
    switch category {
    case "pattern", "patterns":
        return types.MemoryTierPattern
    case "query", "queries":
        return types.MemoryTierQueries
    case "rule", "rules":
        return types.MemoryTierRules
    case "memory", "general":
        return types.MemoryTierMemory
    default:
        return types.MemoryTierFull
    }
}

// record enqueues the log write; the telemetry writer runs off the
// response path, and enqueue order keeps the status transition after
// the insert.
func (p *Pipeline) record(rec types.LogRecord) {
    p.logger.Record(rec)
}
