// Package dispatch executes classified commands on their response tier
// under per-tier timeouts, with at most one fallback hop to the AI
// tier, and normalizes every outcome into a response envelope.
package dispatch

import (
    "context"
    "errors"
    "log"
    "time"

    "barnabee/brain/internal/ai"
    "barnabee/brain/internal/homeassistant"
    "barnabee/brain/internal/instant"
    "barnabee/brain/internal/pattern"
    "barnabee/brain/internal/types"
)

const (
    FallbackDevice = "device_fallback"
    FallbackCache  = "cache_fallback"
)

type Timeouts struct {
    Cached time.Duration
    Device time.Duration
    AI     time.Duration
}

type Dispatcher struct {
    patterns pattern.Store
    devices  homeassistant.Client
    brain    ai.Client
    timeouts Timeouts
    now      func() time.Time
}

func New(patterns pattern.Store, devices homeassistant.Client, brain ai.Client, t Timeouts) *Dispatcher {
    return &Dispatcher{
        patterns: patterns,
        devices:  devices,
        brain:    brain,
        timeouts: t,
        now:      time.Now,
    }
}

// Dispatch runs the tier handler for a classified command. It never
// blocks past the tier timeout plus one fallback hop, and the returned
// envelope always carries the total duration, success or not.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd types.ClassifiedCommand) types.ResponseEnvelope {
    start := d.now()
    var env types.ResponseEnvelope
    switch cmd.Tier {
    case types.TierInstant:
        env = d.instant(cmd)
    case types.TierCached:
        env = d.cached(ctx, cmd)
    case types.TierDevice:
        env = d.device(ctx, cmd)
    default:
        env = d.ai(ctx, cmd, nil)
    }
    env.Duration = d.now().Sub(start)

    outcome := "ok"
    if !env.Success {
        outcome = string(env.ErrorKind)
    }
    metricDispatches.WithLabelValues(string(env.Tier), outcome).Inc()
    return env
}

// instant computes locally: deterministic, no I/O.
func (d *Dispatcher) instant(cmd types.ClassifiedCommand) types.ResponseEnvelope {
    start := d.now()
    if cmd.Reason == "empty" {
        // Nothing to execute; ask for a real command.
        dur := d.now().Sub(start)
        metricTierLatency.WithLabelValues(string(types.TierInstant)).Observe(float64(dur.Milliseconds()))
        return types.ResponseEnvelope{
            Tier:          types.TierInstant,
            Success:       false,
            ErrorKind:     types.ErrKindEmptyCommand,
            FailureNotice: instant.ClarifyReply,
            Attempts:      []types.Attempt{{Tier: types.TierInstant, Duration: dur, Outcome: string(types.ErrKindEmptyCommand)}},
        }
    }
    var reply string
    switch cmd.Reason {
    case "time":
        reply = instant.TimeAnswer(cmd.Command, d.now())
    case "arithmetic":
        if r, ok := instant.Arithmetic(cmd.Command); ok {
            reply = r
        }
    case "greeting":
        if r, ok := instant.Greeting(cmd.Command); ok {
            reply = r
        }
    }
    dur := d.now().Sub(start)
    metricTierLatency.WithLabelValues(string(types.TierInstant)).Observe(float64(dur.Milliseconds()))
    if reply == "" {
        // Classifier promised an instant answer it could not produce.
        return types.ResponseEnvelope{
            Tier:          types.TierInstant,
            Success:       false,
            ErrorKind:     types.ErrKindMalformed,
            FailureNotice: "I thought I knew that one, but I couldn't work it out.",
            Attempts:      []types.Attempt{{Tier: types.TierInstant, Duration: dur, Outcome: "error"}},
        }
    }
    return types.ResponseEnvelope{
        Tier:     types.TierInstant,
        Reply:    reply,
        Success:  true,
        Attempts: []types.Attempt{{Tier: types.TierInstant, Duration: dur, Outcome: "ok"}},
    }
}

// cached looks up the learned pattern store; a miss is not a failure,
// it falls through to the AI tier once.
func (d *Dispatcher) cached(ctx context.Context, cmd types.ClassifiedCommand) types.ResponseEnvelope {
    start := d.now()
    lctx, cancel := context.WithTimeout(ctx, d.timeouts.Cached)
    defer cancel()

    e, err := d.patterns.Lookup(lctx, cmd.Command)
    dur := d.now().Sub(start)
    metricTierLatency.WithLabelValues(string(types.TierCached)).Observe(float64(dur.Milliseconds()))
    if err == nil {
        metricCacheHits.Inc()
        return types.ResponseEnvelope{
            Tier:     types.TierCached,
            Reply:    e.ResponseTemplate,
            Success:  true,
            Attempts: []types.Attempt{{Tier: types.TierCached, Duration: dur, Outcome: "ok"}},
        }
    }
    if !errors.Is(err, pattern.ErrNotFound) {
        log.Printf("[dispatch] pattern lookup: %v", err)
    }
    metricFallbacks.WithLabelValues(FallbackCache).Inc()
    return d.ai(ctx, cmd, []types.Attempt{{Tier: types.TierCached, Duration: dur, Outcome: FallbackCache}})
}

// device issues one call to the home-automation collaborator; timeout
// or error falls through to the AI tier rather than surfacing raw
// errors to the user.
func (d *Dispatcher) device(ctx context.Context, cmd types.ClassifiedCommand) types.ResponseEnvelope {
    start := d.now()
    in, err := homeassistant.ParseIntent(cmd.Command)
    if err == nil {
        dctx, cancel := context.WithTimeout(ctx, d.timeouts.Device)
        err = d.devices.CallService(dctx, in)
        cancel()
    }
    dur := d.now().Sub(start)
    metricTierLatency.WithLabelValues(string(types.TierDevice)).Observe(float64(dur.Milliseconds()))
    if err == nil {
        return types.ResponseEnvelope{
            Tier:     types.TierDevice,
            Reply:    "Done.",
            Success:  true,
            Attempts: []types.Attempt{{Tier: types.TierDevice, Duration: dur, Outcome: "ok"}},
        }
    }
    log.Printf("[dispatch] device call failed, falling back to ai: %v", err)
    metricFallbacks.WithLabelValues(FallbackDevice).Inc()
    return d.ai(ctx, cmd, []types.Attempt{{Tier: types.TierDevice, Duration: dur, Outcome: FallbackDevice}})
}

// ai is the terminal tier: no further fallback. Failures surface as an
// explicit envelope with a user-facing notice, never an unhandled fault.
func (d *Dispatcher) ai(ctx context.Context, cmd types.ClassifiedCommand, prior []types.Attempt) types.ResponseEnvelope {
    start := d.now()
    // Independent timeout budget: a slow device hop must not eat into
    // the AI call's own deadline.
    actx, cancel := context.WithTimeout(ctx, d.timeouts.AI)
    defer cancel()

    reply, err := d.brain.Complete(actx, cmd.Command, "")
    dur := d.now().Sub(start)
    metricTierLatency.WithLabelValues(string(types.TierAI)).Observe(float64(dur.Milliseconds()))
    if err == nil {
        return types.ResponseEnvelope{
            Tier:     types.TierAI,
            Reply:    reply,
            Success:  true,
            Attempts: append(prior, types.Attempt{Tier: types.TierAI, Duration: dur, Outcome: "ok"}),
        }
    }

    kind, notice := classifyAIFailure(err)
    return types.ResponseEnvelope{
        Tier:          types.TierAI,
        Success:       false,
        ErrorKind:     kind,
        FailureNotice: notice,
        Attempts:      append(prior, types.Attempt{Tier: types.TierAI, Duration: dur, Outcome: string(kind)}),
    }
}

func classifyAIFailure(err error) (types.ErrorKind, string) {
    switch {
    case errors.Is(err, ai.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
        return types.ErrKindTimeout, "That's taking longer than it should. Give me a moment and try again."
    case errors.Is(err, ai.ErrUnavailable):
        return types.ErrKindUnavailable, "I can't reach my reasoning service right now."
    default:
        return types.ErrKindCollaborator, "My reasoning service had trouble with that one."
    }
}
