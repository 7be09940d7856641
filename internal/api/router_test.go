package api

import (
    "bytes"
    "context"
    "database/sql"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "path/filepath"
    "testing"
    "time"

    "barnabee/brain/internal/classify"
    "barnabee/brain/internal/config"
    "barnabee/brain/internal/dispatch"
    "barnabee/brain/internal/feedback"
    "barnabee/brain/internal/health"
    "barnabee/brain/internal/homeassistant"
    "barnabee/brain/internal/pattern"
    "barnabee/brain/internal/pipeline"
    "barnabee/brain/internal/telemetry"
    "barnabee/brain/internal/wake"

    _ "modernc.org/sqlite"
)

type mockDevices struct {
    notified []string
}

func (m *mockDevices) CallService(ctx context.Context, in homeassistant.Intent) error { return nil }
func (m *mockDevices) Notify(ctx context.Context, message, title, priority string) error {
    m.notified = append(m.notified, message)
    return nil
}

type mockAI struct{}

func (m *mockAI) Complete(ctx context.Context, command, sessionID string) (string, error) {
    return "an answer", nil
}

type mockChecker struct{ ok bool }

func (m *mockChecker) CheckAll(ctx context.Context) health.HealthStatus {
    return health.HealthStatus{
        OK:        m.ok,
        Checks:    []health.CheckResult{{Name: "home_assistant", OK: m.ok}},
        CheckedAt: time.Now().UTC(),
    }
}

func newTestServer(t *testing.T, checker health.Checker) (*httptest.Server, *mockDevices, *sql.DB) {
    t.Helper()
    cfg := config.Load()

    db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "brain.db"))
    if err != nil {
        t.Fatalf("open db: %v", err)
    }
    t.Cleanup(func() { db.Close() })

    patterns, err := pattern.NewSQLStore(db)
    if err != nil {
        t.Fatalf("pattern store: %v", err)
    }
    logger, err := telemetry.NewLogger(db)
    if err != nil {
        t.Fatalf("logger: %v", err)
    }
    t.Cleanup(logger.Close)

    devices := &mockDevices{}
    disp := dispatch.New(patterns, devices, &mockAI{}, dispatch.Timeouts{
        Cached: 50 * time.Millisecond,
        Device: 300 * time.Millisecond,
        AI:     time.Second,
    })
    pipe := pipeline.New(
        wake.NewMatcher(cfg.Wake.Tokens, cfg.Wake.Tolerance),
        classify.New(patterns),
        disp,
        feedback.New(feedback.Thresholds{Instant: 10 * time.Millisecond, Fast: 100 * time.Millisecond, Thinking: time.Second}),
        logger,
    )

    h := NewHandlers(cfg, pipe, logger, devices, checker)
    srv := httptest.NewServer(NewRouter(h))
    t.Cleanup(srv.Close)
    return srv, devices, db
}

func postJSON(t *testing.T, url string, body any) *http.Response {
    t.Helper()
    b, err := json.Marshal(body)
    if err != nil {
        t.Fatalf("marshal: %v", err)
    }
    resp, err := http.Post(url, "application/json", bytes.NewReader(b))
    if err != nil {
        t.Fatalf("request: %v", err)
    }
    return resp
}

func TestVoiceInputMatched(t *testing.T) {
    srv, _, _ := newTestServer(t, &mockChecker{ok: true})

    resp := postJSON(t, srv.URL+"/voice-input", map[string]any{
        "originalText": "barnabee what is 15 plus 27",
        "sessionId":    "s1",
        "source":       "satellite",
    })
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusOK {
        t.Fatalf("expected 200, got %d", resp.StatusCode)
    }
    var out voiceInputResponse
    if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if out.Reply != "42" {
        t.Fatalf("expected 42, got %q", out.Reply)
    }
    if out.Tier != "instant" {
        t.Fatalf("expected instant tier, got %q", out.Tier)
    }
}

func TestVoiceInputBridgeTrusted(t *testing.T) {
    srv, _, _ := newTestServer(t, &mockChecker{ok: true})

    // Bridge already stripped the wake word; no "barnabee" anywhere.
    resp := postJSON(t, srv.URL+"/voice-input", map[string]any{
        "originalText": "hey assistant turn on the lights",
        "command":      "turn on the lights",
        "hasWakeWord":  true,
        "wakeWord":     "assistant",
        "sessionId":    "s1",
    })
    defer resp.Body.Close()
    var out voiceInputResponse
    if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if out.Reply != "Done." {
        t.Fatalf("expected device reply, got %q", out.Reply)
    }
    if out.Tier != "device" {
        t.Fatalf("expected device tier, got %q", out.Tier)
    }
}

func TestVoiceInputAmbient(t *testing.T) {
    srv, _, _ := newTestServer(t, &mockChecker{ok: true})

    resp := postJSON(t, srv.URL+"/voice-input", map[string]any{
        "originalText": "people talking about dinner plans",
        "sessionId":    "s1",
    })
    defer resp.Body.Close()
    var out voiceInputResponse
    if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if out.Reply != "" {
        t.Fatalf("ambient text must not get a reply, got %q", out.Reply)
    }
    if out.Tier != "none" {
        t.Fatalf("expected tier none, got %q", out.Tier)
    }
}

func TestVoiceInputRejectsEmpty(t *testing.T) {
    srv, _, _ := newTestServer(t, &mockChecker{ok: true})

    resp := postJSON(t, srv.URL+"/voice-input", map[string]any{"sessionId": "s1"})
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusBadRequest {
        t.Fatalf("expected 400, got %d", resp.StatusCode)
    }
}

func TestVoiceInputMethodNotAllowed(t *testing.T) {
    srv, _, _ := newTestServer(t, &mockChecker{ok: true})

    resp, err := http.Get(srv.URL + "/voice-input")
    if err != nil {
        t.Fatalf("request: %v", err)
    }
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusMethodNotAllowed {
        t.Fatalf("expected 405, got %d", resp.StatusCode)
    }
}

func TestNotifyForwards(t *testing.T) {
    srv, devices, _ := newTestServer(t, &mockChecker{ok: true})

    resp := postJSON(t, srv.URL+"/notify", map[string]any{
        "message": "laundry is done",
        "title":   "Barnabee",
    })
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusOK {
        t.Fatalf("expected 200, got %d", resp.StatusCode)
    }
    if len(devices.notified) != 1 || devices.notified[0] != "laundry is done" {
        t.Fatalf("notify not forwarded: %v", devices.notified)
    }
}

func TestNotifyMemoryLog(t *testing.T) {
    srv, devices, db := newTestServer(t, &mockChecker{ok: true})

    resp := postJSON(t, srv.URL+"/notify", map[string]any{
        "type":            "memory_log",
        "information":     "the garage code is 4417",
        "category":        "memory",
        "conversation_id": "s1",
    })
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusOK {
        t.Fatalf("expected 200, got %d", resp.StatusCode)
    }
    if len(devices.notified) != 0 {
        t.Fatalf("memory log must not hit the notifier: %v", devices.notified)
    }

    deadline := time.Now().Add(2 * time.Second)
    for time.Now().Before(deadline) {
        var n int
        if err := db.QueryRow(`SELECT COUNT(*) FROM utterances WHERE source = 'memory_log' AND memory_tier = 'memory'`).Scan(&n); err == nil && n > 0 {
            return
        }
        time.Sleep(10 * time.Millisecond)
    }
    t.Fatal("memory log record not written in time")
}

func TestHealthShape(t *testing.T) {
    srv, _, _ := newTestServer(t, &mockChecker{ok: false})

    resp, err := http.Get(srv.URL + "/health")
    if err != nil {
        t.Fatalf("request: %v", err)
    }
    defer resp.Body.Close()
    var out map[string]any
    if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if out["status"] != "degraded" {
        t.Fatalf("expected degraded status, got %v", out["status"])
    }
    for _, k := range []string{"uptime", "memory_usage", "checks"} {
        if _, ok := out[k]; !ok {
            t.Fatalf("missing %q in health payload", k)
        }
    }
}

func TestHealthz(t *testing.T) {
    srv, _, _ := newTestServer(t, &mockChecker{ok: true})

    resp, err := http.Get(srv.URL + "/healthz")
    if err != nil {
        t.Fatalf("request: %v", err)
    }
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusOK {
        t.Fatalf("expected 200, got %d", resp.StatusCode)
    }
}
