package types

import "time"

// Transcript is one speech-recognition event as delivered by a
// satellite or the Home Assistant bridge. Immutable after creation.
type Transcript struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Source     string    `json:"source"`
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
	// Recognizer confidence in [0,1]; 0 when the recognizer did not report one.
	Confidence float64 `json:"confidence,omitempty"`
}

type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchFuzzy    MatchKind = "fuzzy"
	MatchPhonetic MatchKind = "phonetic"
	MatchNone     MatchKind = "none"
)

// WakeMatchResult is the outcome of wake-phrase detection on a transcript.
// When Matched is false, Confidence is 0 and Command equals the full
// transcript (ambient text).
type WakeMatchResult struct {
	Matched    bool      `json:"matched"`
	Kind       MatchKind `json:"kind"`
	WakeWord   string    `json:"wake_word,omitempty"`
	Confidence int       `json:"confidence"` // 0-100
	Command    string    `json:"command"`    // residual command, wake segment removed
}

type Tier string

const (
	TierInstant Tier = "instant"
	TierCached  Tier = "cached"
	TierDevice  Tier = "device"
	TierAI      Tier = "ai"
	// TierNone marks ambient transcripts that were never dispatched.
	TierNone Tier = "none"
)

// ClassifiedCommand is a clean command with exactly one assigned tier.
type ClassifiedCommand struct {
	Command string `json:"command"`
	Tier    Tier   `json:"tier"`
	Reason  string `json:"reason"`
}

type ErrorKind string

const (
	ErrKindEmptyCommand ErrorKind = "empty_command"
	ErrKindTimeout      ErrorKind = "timeout"
	ErrKindUnavailable  ErrorKind = "collaborator_unavailable"
	ErrKindCollaborator ErrorKind = "collaborator_error"
	ErrKindMalformed    ErrorKind = "malformed_input"
)

// Attempt records one tier execution inside a dispatch, including
// fallback hops, so the log shows every latency on the path.
type Attempt struct {
	Tier     Tier          `json:"tier"`
	Duration time.Duration `json:"duration_ms"`
	Outcome  string        `json:"outcome"` // "ok", "timeout", "error" or a fallback reason
}

// ResponseEnvelope is the normalized outcome of a dispatch.
// Duration covers the whole dispatch including fallback hops and is
// always set; Reply is set only when Success is true.
type ResponseEnvelope struct {
	Tier          Tier          `json:"tier"`
	Reply         string        `json:"reply,omitempty"`
	Duration      time.Duration `json:"duration_ms"`
	Success       bool          `json:"success"`
	ErrorKind     ErrorKind     `json:"error_kind,omitempty"`
	FailureNotice string        `json:"failure_notice,omitempty"`
	Attempts      []Attempt     `json:"attempts,omitempty"`
}

type Indicator string

const (
	IndicatorInstant  Indicator = "instant"
	IndicatorFast     Indicator = "fast"
	IndicatorThinking Indicator = "thinking"
	IndicatorSlow     Indicator = "slow"
)

// DisplayUnit is the client-facing presentation of a response.
type DisplayUnit struct {
	Indicator       Indicator `json:"indicator"`
	Acknowledgement string    `json:"acknowledgement,omitempty"`
	Reply           string    `json:"reply,omitempty"`
	ProcessingMs    int64     `json:"processing_ms"`
}

type ProcessedStatus string

const (
	StatusPending   ProcessedStatus = "pending"
	StatusProcessed ProcessedStatus = "processed"
	StatusFailed    ProcessedStatus = "failed"
)

// Memory tiers for log records. Full is the default for utterances;
// the refined tiers mark recognized learning events.
const (
	MemoryTierFull    = "full"
	MemoryTierMemory  = "memory"
	MemoryTierPattern = "pattern"
	MemoryTierQueries = "queries"
	MemoryTierRules   = "rules"
)

// LogRecord is the append-only per-transcript record owned by the
// telemetry logger. Classified and Envelope are nil for ambient text.
type LogRecord struct {
	ID         string             `json:"id"`
	Transcript Transcript         `json:"transcript"`
	Match      WakeMatchResult    `json:"match"`
	Classified *ClassifiedCommand `json:"classified,omitempty"`
	Envelope   *ResponseEnvelope  `json:"envelope,omitempty"`
	MemoryTier string             `json:"memory_tier"`
	Status     ProcessedStatus    `json:"processed_status"`
}
