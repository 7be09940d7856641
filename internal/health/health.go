package health

import (
    "context"
    "fmt"
    "io"
    "net/http"
    "time"

    "barnabee/brain/internal/config"
)

type CheckResult struct {
    Name    string        `json:"name"`
    OK      bool          `json:"ok"`
    Latency time.Duration `json:"latency_ms"`
    Error   string        `json:"error,omitempty"`
}

type HealthStatus struct {
    OK        bool          `json:"ok"`
    Checks    []CheckResult `json:"checks"`
    CheckedAt time.Time     `json:"checked_at"`
}

// Checker runs collaborator health checks for the /health endpoint.
type Checker interface {
    CheckAll(ctx context.Context) HealthStatus
}

type HTTPChecker struct {
    cfg config.Config
}

func NewChecker(cfg config.Config) *HTTPChecker {
    return &HTTPChecker{cfg: cfg}
}

// CheckAll probes both collaborators and returns combined status.
func (c *HTTPChecker) CheckAll(ctx context.Context) HealthStatus {
    checks := []CheckResult{
        c.checkHomeAssistant(ctx),
        c.checkAI(ctx),
    }
    allOK := true
    for _, ch := range checks {
        if !ch.OK {
            allOK = false
        }
    }
    return HealthStatus{OK: allOK, Checks: checks, CheckedAt: time.Now().UTC()}
}

func (c *HTTPChecker) checkHomeAssistant(ctx context.Context) CheckResult {
    start := time.Now()
    result := CheckResult{Name: "home_assistant"}

    if c.cfg.HomeAssistant.BaseURL == "" {
        result.Error = "HASS_BASE_URL not set"
        result.Latency = time.Since(start)
        return result
    }

    req, err := http.NewRequestWithContext(ctx, "GET", c.cfg.HomeAssistant.BaseURL+"/api/", nil)
    if err != nil {
        result.Error = fmt.Sprintf("request build failed: %v", err)
        result.Latency = time.Since(start)
        return result
    }
    req.Header.Set("Authorization", "Bearer "+c.cfg.HomeAssistant.Token)

    resp, err := http.DefaultClient.Do(req)
    if err != nil {
        result.Error = fmt.Sprintf("request failed: %v", err)
        result.Latency = time.Since(start)
        return result
    }
    defer resp.Body.Close()

    result.Latency = time.Since(start)

    if resp.StatusCode == 401 {
        result.Error = "invalid token (401)"
        return result
    }
    if resp.StatusCode != 200 {
        body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
        result.Error = fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body))
        return result
    }

    result.OK = true
    return result
}

func (c *HTTPChecker) checkAI(ctx context.Context) CheckResult {
    start := time.Now()
    result := CheckResult{Name: "ai"}

    if c.cfg.AI.APIKey == "" {
        result.Error = "OPENAI_API_KEY not set"
        result.Latency = time.Since(start)
        return result
    }

    base := c.cfg.AI.BaseURL
    if base == "" {
        base = "https://api.openai.com/v1"
    }
    req, err := http.NewRequestWithContext(ctx, "GET", base+"/models", nil)
    if err != nil {
        result.Error = fmt.Sprintf("request build failed: %v", err)
        result.Latency = time.Since(start)
        return result
    }
    req.Header.Set("Authorization", "Bearer "+c.cfg.AI.APIKey)

    resp, err := http.DefaultClient.Do(req)
    if err != nil {
        result.Error = fmt.Sprintf("request failed: %v", err)
        result.Latency = time.Since(start)
        return result
    }
    defer resp.Body.Close()

    result.Latency = time.Since(start)

    if resp.StatusCode == 401 {
        result.Error = "invalid API key (401)"
        return result
    }
    if resp.StatusCode != 200 {
        body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
        result.Error = fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body))
        return result
    }

    result.OK = true
    return result
}
