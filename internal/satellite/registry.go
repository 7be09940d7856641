package satellite

import (
    "context"
    "encoding/json"
    "sync"

    ws "nhooyr.io/websocket"
)

// Registry keeps at most one satellite connection per session.
type Registry struct {
    mu    sync.Mutex
    conns map[string]*ws.Conn
}

func NewRegistry() *Registry { return &Registry{conns: make(map[string]*ws.Conn)} }

// Replace sets the connection for a session and closes the previous one if present.
func (r *Registry) Replace(sessionID string, c *ws.Conn) (prevClosed bool) {
    r.mu.Lock()
    defer r.mu.Unlock()
    if old, ok := r.conns[sessionID]; ok && old != nil {
        _ = old.Close(ws.StatusNormalClosure, "replaced")
        prevClosed = true
    }
    r.conns[sessionID] = c
    return
}

func (r *Registry) Get(sessionID string) *ws.Conn {
    r.mu.Lock()
    defer r.mu.Unlock()
    return r.conns[sessionID]
}

// Remove deregisters the session only if it still maps to c: a handler
// whose connection was replaced must not drop its successor's entry on
// the way out.
func (r *Registry) Remove(sessionID string, c *ws.Conn) {
    r.mu.Lock()
    defer r.mu.Unlock()
    if r.conns[sessionID] == c {
        delete(r.conns, sessionID)
    }
}

// SendJSON pushes a message to a session's satellite, if connected.
func (r *Registry) SendJSON(ctx context.Context, sessionID string, v any) error {
    r.mu.Lock()
    c := r.conns[sessionID]
    r.mu.Unlock()
    if c == nil {
        return nil
    }
    b, err := json.Marshal(v)
    if err != nil {
        return err
    }
    return c.Write(ctx, ws.MessageText, b)
}
