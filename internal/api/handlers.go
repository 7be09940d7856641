package api

import (
    "context"
    "encoding/json"
    "log"
    "net/http"
    "runtime"
    "time"

    "github.com/google/uuid"

    "barnabee/brain/internal/config"
    "barnabee/brain/internal/health"
    "barnabee/brain/internal/homeassistant"
    "barnabee/brain/internal/pipeline"
    "barnabee/brain/internal/telemetry"
    "barnabee/brain/internal/types"
)

type Handlers struct {
    cfg      config.Config
    pipe     *pipeline.Pipeline
    logger   *telemetry.Logger
    notifier homeassistant.Client
    checker  health.Checker
    started  time.Time
}

func NewHandlers(cfg config.Config, p *pipeline.Pipeline, l *telemetry.Logger, n homeassistant.Client, c health.Checker) *Handlers {
    return &Handlers{cfg: cfg, pipe: p, logger: l, notifier: n, checker: c, started: time.Now()}
}

type voiceInputRequest struct {
    OriginalText string  `json:"originalText"`
    Command      string  `json:"command"`
    HasWakeWord  bool    `json:"hasWakeWord"`
    WakeWord     string  `json:"wakeWord"`
    SessionID    string  `json:"sessionId"`
    UserID       string  `json:"userId"`
    Confidence   float64 `json:"confidence"`
    Source       string  `json:"source"`
}

type voiceInputResponse struct {
    Reply            string `json:"reply"`
    Tier             string `json:"tier"`
    ProcessingTimeMs int64  `json:"processingTimeMs"`
}

// HandleVoiceInput is the single command-style endpoint. The Home
// Assistant bridge sets hasWakeWord and pre-strips the command; bare
// satellites send only originalText and the matcher runs here.
func (h *Handlers) HandleVoiceInput(w http.ResponseWriter, r *http.Request) {
    var req voiceInputRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        http.Error(w, "invalid payload", http.StatusBadRequest)
        return
    }
    if req.OriginalText == "" && req.Command == "" {
        http.Error(w, "empty input", http.StatusBadRequest)
        return
    }

    tr := types.Transcript{
        ID:         uuid.New().String(),
        Text:       req.OriginalText,
        Source:     orDefault(req.Source, "http"),
        SessionID:  req.SessionID,
        UserID:     req.UserID,
        ReceivedAt: time.Now().UTC(),
        Confidence: req.Confidence,
    }
    if tr.Text == "" {
        tr.Text = req.Command
    }

    var (
        du  *types.DisplayUnit
        env *types.ResponseEnvelope
    )
    if req.HasWakeWord {
        du, env = h.pipe.ProcessMatched(r.Context(), tr, types.WakeMatchResult{
            Matched:    true,
            Kind:       types.MatchExact,
            WakeWord:   orDefault(req.WakeWord, "assistant"),
            Confidence: 100,
            Command:    req.Command,
        })
    } else {
        du, env = h.pipe.Process(r.Context(), tr)
    }

    resp := voiceInputResponse{Tier: string(types.TierNone)}
    if env != nil {
        resp.Tier = string(env.Tier)
        resp.ProcessingTimeMs = env.Duration.Milliseconds()
    }
    if du != nil {
        resp.Reply = du.Reply
    }
    writeJSON(w, http.StatusOK, resp)
}

type notifyRequest struct {
    Message  string `json:"message"`
    Title    string `json:"title"`
    Priority string `json:"priority"`

    // Learning events reuse the endpoint, as the bridge does.
    Type        string `json:"type,omitempty"`
    Information string `json:"information,omitempty"`
    Category    string `json:"category,omitempty"`
    SessionID   string `json:"conversation_id,omitempty"`
    UserID      string `json:"user_id,omitempty"`
}

// HandleNotify pushes a proactive notification, or records a learning
// event when the payload is a memory log.
func (h *Handlers) HandleNotify(w http.ResponseWriter, r *http.Request) {
    var req notifyRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        http.Error(w, "invalid payload", http.StatusBadRequest)
        return
    }

    if req.Type == "memory_log" {
        if req.Information == "" {
            http.Error(w, "missing information", http.StatusBadRequest)
            return
        }
        h.pipe.RecordLearning(types.Transcript{
            Text:      req.Information,
            Source:    "memory_log",
            SessionID: req.SessionID,
            UserID:    req.UserID,
        }, req.Category)
        writeJSON(w, http.StatusOK, map[string]any{"ok": true, "remembered": req.Information})
        return
    }

    if req.Message == "" {
        http.Error(w, "missing message", http.StatusBadRequest)
        return
    }
    if err := h.notifier.Notify(r.Context(), req.Message, req.Title, req.Priority); err != nil {
        log.Printf("[api] notify failed: %v", err)
        http.Error(w, err.Error(), http.StatusBadGateway)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// HandleHealth reports service status, uptime, memory usage and the
// last processed command, plus collaborator checks.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
    ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
    defer cancel()

    status := "ok"
    var checks []health.CheckResult
    if h.checker != nil {
        res := h.checker.CheckAll(ctx)
        checks = res.Checks
        if !res.OK {
            status = "degraded"
        }
    }

    var ms runtime.MemStats
    runtime.ReadMemStats(&ms)

    writeJSON(w, http.StatusOK, map[string]any{
        "status":       status,
        "uptime":       time.Since(h.started).Round(time.Second).String(),
        "memory_usage": ms.Alloc,
        "last_command": h.logger.LastCommand(ctx),
        "checks":       checks,
    })
}

func writeJSON(w http.ResponseWriter, code int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(code)
    _ = json.NewEncoder(w).Encode(v)
}

func orDefault(s, def string) string {
    if s == "" {
        return def
    }
    return s
}
