// Package homeassistant is the device-control collaborator: a narrow
// JSON-over-HTTP contract for service calls and proactive notifications.
package homeassistant

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net"
    "net/http"
    "strings"
)

var (
    ErrUnreachable   = errors.New("home assistant unreachable")
    ErrUnknownEntity = errors.New("unknown entity")
    ErrTimeout       = errors.New("home assistant timeout")
)

// Intent is one device action: a service in a domain applied to an entity.
type Intent struct {
    Domain   string `json:"domain"`
    Service  string `json:"service"`
    EntityID string `json:"entity_id"`
}

type Client interface {
    CallService(ctx context.Context, in Intent) error
    Notify(ctx context.Context, message, title, priority string) error
}

type HTTPClient struct {
    http          *http.Client
    token         string
    base          string
    notifyService string
}

func NewClient(baseURL, token, notifyService string) *HTTPClient {
    return &HTTPClient{
        http:          &http.Client{},
        token:         token,
        base:          strings.TrimRight(baseURL, "/"),
        notifyService: notifyService,
    }
}

// CallService invokes POST /api/services/{domain}/{service}. Errors are
// typed so the dispatcher can tell unreachable from unknown-entity from
// a plain rejection.
func (c *HTTPClient) CallService(ctx context.Context, in Intent) error {
    body := map[string]any{"entity_id": in.EntityID}
    url := fmt.Sprintf("%s/api/services/%s/%s", c.base, in.Domain, in.Service)
    resp, err := c.post(ctx, url, body)
    if err != nil {
        return err
    }
    defer resp.Body.Close()
    switch {
    case resp.StatusCode/100 == 2:
        return nil
    case resp.StatusCode == http.StatusNotFound:
        return fmt.Errorf("%w: %s", ErrUnknownEntity, in.EntityID)
    default:
        b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
        return fmt.Errorf("hass CallService: %s: %s", resp.Status, string(b))
    }
}

// Notify pushes a proactive message through the configured notify service.
func (c *HTTPClient) Notify(ctx context.Context, message, title, priority string) error {
    service := strings.TrimPrefix(c.notifyService, "notify.")
    body := map[string]any{
        "message": message,
    }
    if title != "" {
        body["title"] = title
    }
    if priority != "" {
        body["data"] = map[string]any{"priority": priority}
    }
    resp, err := c.post(ctx, c.base+"/api/services/notify/"+service, body)
    if err != nil {
        return err
    }
    defer resp.Body.Close()
    if resp.StatusCode/100 != 2 {
        b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
        return fmt.Errorf("hass Notify: %s: %s", resp.Status, string(b))
    }
    return nil
}

func (c *HTTPClient) post(ctx context.Context, url string, body map[string]any) (*http.Response, error) {
    var out bytes.Buffer
    if err := json.NewEncoder(&out).Encode(body); err != nil {
        return nil, err
    }
    req, err := http.NewRequestWithContext(ctx, "POST", url, &out)
    if err != nil {
        return nil, err
    }
    req.Header.Set("Authorization", "Bearer "+c.token)
    req.Header.Set("Content-Type", "application/json")
    resp, err := c.http.Do(req)
    if err != nil {
        return nil, classifyTransportErr(err)
    }
    return resp, nil
}

func classifyTransportErr(err error) error {
    if errors.Is(err, context.DeadlineExceeded) {
        return fmt.Errorf("%w: %v", ErrTimeout, err)
    }
    var ne net.Error
    if errors.As(err, &ne) && ne.Timeout() {
        return fmt.Errorf("%w: %v", ErrTimeout, err)
    }
    return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
