// Package satellite accepts WebSocket connections from voice
// satellites: transcripts stream in, replies are pushed back on the
// same connection. One connection per session.
package satellite

import (
    "context"
    "encoding/json"
    "log"
    "net/http"
    "strings"
    "time"

    "github.com/google/uuid"
    ws "nhooyr.io/websocket"

    "barnabee/brain/internal/auth"
    "barnabee/brain/internal/config"
    "barnabee/brain/internal/pipeline"
    "barnabee/brain/internal/types"
)

type Message struct {
    Type       string         `json:"type"`
    TsMs       int64          `json:"ts_ms,omitempty"`
    SessionID  string         `json:"session_id,omitempty"`
    Seq        int64          `json:"seq,omitempty"`
    Text       string         `json:"text,omitempty"`
    Confidence float64        `json:"confidence,omitempty"`
    Payload    map[string]any `json:"payload,omitempty"`
}

type Server struct {
    Cfg  config.Config
    Pipe *pipeline.Pipeline
    Reg  *Registry
}

func NewServer(cfg config.Config, p *pipeline.Pipeline, reg *Registry) *Server {
    return &Server{Cfg: cfg, Pipe: p, Reg: reg}
}

func (s *Server) HandleSatelliteWS(w http.ResponseWriter, r *http.Request) {
    q := r.URL.Query()
    sessionID := q.Get("session_id")
    if sessionID == "" {
        http.Error(w, "missing session_id", http.StatusBadRequest)
        return
    }
    authz := r.Header.Get("Authorization")
    if !strings.HasPrefix(authz, "Bearer ") {
        http.Error(w, "missing bearer token", http.StatusUnauthorized)
        return
    }
    token := strings.TrimPrefix(authz, "Bearer ")
    if s.Cfg.Satellite.TokenSecret == "" {
        http.Error(w, "satellite auth not configured", http.StatusUnauthorized)
        return
    }
    if _, _, err := auth.ValidateSatelliteToken(s.Cfg.Satellite.TokenSecret, token, sessionID, time.Now(), s.Cfg.Satellite.TokenSkewSecs); err != nil {
        http.Error(w, "invalid token", http.StatusUnauthorized)
        return
    }

    c, err := ws.Accept(w, r, nil)
    if err != nil {
        log.Printf("[satellite] ws accept: %v", err)
        return
    }
    if s.Reg.Replace(sessionID, c) {
        log.Printf("[satellite] replaced connection sid=%s", sessionID)
    }

    ctx := r.Context()
    for {
        typ, data, err := c.Read(ctx)
        if err != nil {
            break
        }
        if typ != ws.MessageText && typ != ws.MessageBinary {
            continue
        }
        var msg Message
        if err := json.Unmarshal(data, &msg); err != nil {
            log.Printf("[satellite] invalid message sid=%s: %v", sessionID, err)
            continue
        }
        if msg.Type != "transcript" || msg.Text == "" {
            continue
        }
        tr := types.Transcript{
            ID:         uuid.New().String(),
            Text:       msg.Text,
            Source:     "satellite",
            SessionID:  sessionID,
            ReceivedAt: time.Now().UTC(),
            Confidence: msg.Confidence,
        }
        // Each transcript gets its own pipeline run; the connection's
        // context governs rendering, not the dispatch itself.
        go s.process(ctx, sessionID, tr)
    }
    _ = c.Close(ws.StatusNormalClosure, "done")
    s.Reg.Remove(sessionID, c)
    log.Printf("[satellite] disconnected sid=%s", sessionID)
}

func (s *Server) process(ctx context.Context, sessionID string, tr types.Transcript) {
    du, _ := s.Pipe.Process(ctx, tr)
    if du == nil {
        return
    }
    // Best-effort push; the record is already written.
    sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    err := s.Reg.SendJSON(sctx, sessionID, Message{
        Type:      "reply",
        TsMs:      time.Now().UnixMilli(),
        SessionID: sessionID,
        Text:      du.Reply,
        Payload: map[string]any{
            "indicator":       string(du.Indicator),
            "acknowledgement": du.Acknowledgement,
            "processing_ms":   du.ProcessingMs,
        },
    })
    if err != nil {
        log.Printf("[satellite] reply push failed sid=%s: %v", sessionID, err)
    }
}
