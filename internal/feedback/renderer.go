// Package feedback maps observed processing latency onto the
// user-facing presentation tier and renders acknowledgement-then-detail
// behavior for the slower tiers.
package feedback

import (
    "time"

    "barnabee/brain/internal/types"
)

// Thresholds are upper bounds per indicator; configuration, not
// constants, so presentation can be tuned without a rebuild.
type Thresholds struct {
    Instant  time.Duration
    Fast     time.Duration
    Thinking time.Duration
}

// FallbackReply is spoken when a failed dispatch carries no notice of
// its own.
const FallbackReply = "I'm sorry, I couldn't process that request."

type Renderer struct {
    t Thresholds
}

func New(t Thresholds) *Renderer {
    return &Renderer{t: t}
}

// Present is a pure function of the envelope. Ambient transcripts never
// reach it; callers skip rendering for those.
func (r *Renderer) Present(env types.ResponseEnvelope) types.DisplayUnit {
    du := types.DisplayUnit{
        Indicator:    r.indicator(env.Duration),
        ProcessingMs: env.Duration.Milliseconds(),
    }
    if env.Success {
        du.Reply = env.Reply
    } else {
        du.Reply = env.FailureNotice
        if du.Reply == "" {
            du.Reply = FallbackReply
        }
    }
    // Acknowledge first when the answer took noticeable time.
    if du.Indicator == types.IndicatorThinking || du.Indicator == types.IndicatorSlow {
        du.Acknowledgement = "On it..."
    }
    return du
}

func (r *Renderer) indicator(d time.Duration) types.Indicator {
    switch {
    case d < r.t.Instant:
        return types.IndicatorInstant
    case d < r.t.Fast:
        return types.IndicatorFast
    case d < r.t.Thinking:
        return types.IndicatorThinking
    default:
        return types.IndicatorSlow
    }
}
