package feedback

import (
    "testing"
    "time"

    "barnabee/brain/internal/types"
)

func newTestRenderer() *Renderer {
    return New(Thresholds{
        Instant:  10 * time.Millisecond,
        Fast:     100 * time.Millisecond,
        Thinking: 1000 * time.Millisecond,
    })
}

func TestIndicatorThresholds(t *testing.T) {
    r := newTestRenderer()

    cases := []struct {
        d    time.Duration
        want types.Indicator
    }{
        {2 * time.Millisecond, types.IndicatorInstant},
        {9 * time.Millisecond, types.IndicatorInstant},
        {10 * time.Millisecond, types.IndicatorFast},
        {99 * time.Millisecond, types.IndicatorFast},
        {100 * time.Millisecond, types.IndicatorThinking},
        {999 * time.Millisecond, types.IndicatorThinking},
        {time.Second, types.IndicatorSlow},
        {4 * time.Second, types.IndicatorSlow},
    }
    for _, tc := range cases {
        du := r.Present(types.ResponseEnvelope{Duration: tc.d, Success: true, Reply: "ok"})
        if du.Indicator != tc.want {
            t.Errorf("duration %v: got %s, want %s", tc.d, du.Indicator, tc.want)
        }
    }
}

func TestAcknowledgementOnlyWhenSlow(t *testing.T) {
    r := newTestRenderer()

    fast := r.Present(types.ResponseEnvelope{Duration: 5 * time.Millisecond, Success: true, Reply: "42"})
    if fast.Acknowledgement != "" {
        t.Fatalf("fast answer should have no acknowledgement, got %q", fast.Acknowledgement)
    }

    slow := r.Present(types.ResponseEnvelope{Duration: 2 * time.Second, Success: true, Reply: "long answer"})
    if slow.Acknowledgement == "" {
        t.Fatal("slow answer should acknowledge before detail")
    }
    if slow.Reply != "long answer" {
        t.Fatalf("detail lost: %q", slow.Reply)
    }
}

func TestFailureNoticeRendered(t *testing.T) {
    r := newTestRenderer()

    du := r.Present(types.ResponseEnvelope{
        Duration:      3 * time.Second,
        Success:       false,
        ErrorKind:     types.ErrKindUnavailable,
        FailureNotice: "I can't reach my reasoning service right now.",
    })
    if du.Reply != "I can't reach my reasoning service right now." {
        t.Fatalf("failure notice should be presented, got %q", du.Reply)
    }
}

func TestFailureWithoutNoticeGetsApology(t *testing.T) {
    r := newTestRenderer()

    du := r.Present(types.ResponseEnvelope{
        Duration:  time.Second,
        Success:   false,
        ErrorKind: types.ErrKindCollaborator,
    })
    if du.Reply != FallbackReply {
        t.Fatalf("expected the canned apology, got %q", du.Reply)
    }
}
