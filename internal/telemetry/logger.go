// Package telemetry owns the append-only utterance log. Every
// transcript is recorded exactly once, ambient text included; records
// are never updated after insertion except for the processed_status
// transition pending -> processed | failed.
package telemetry

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"
    "log"
    "sync"
    "time"

    "barnabee/brain/internal/types"
)

type Logger struct {
    db *sql.DB

    ops chan func()
    wg  sync.WaitGroup

    mu     sync.Mutex
    closed bool
}

// NewLogger prepares the schema and starts the single writer goroutine.
// The op channel holds at most one queued write, so a crash loses no
// more than one in-flight record.
func NewLogger(db *sql.DB) (*Logger, error) {
    const schema = `
CREATE TABLE IF NOT EXISTS utterances (
    id               TEXT PRIMARY KEY,
    session_id       TEXT,
    user_id          TEXT,
    source           TEXT,
    raw_text         TEXT NOT NULL,
    received_at      TEXT NOT NULL,
    stt_confidence   REAL,
    matched          INTEGER NOT NULL,
    match_kind       TEXT,
    wake_word        TEXT,
    match_confidence INTEGER NOT NULL,
    command          TEXT,
    tier             TEXT,
    reason           TEXT,
    reply            TEXT,
    success          INTEGER,
    error_kind       TEXT,
    duration_ms      INTEGER,
    attempts         TEXT,
    memory_tier      TEXT NOT NULL DEFAULT 'full',
    processed_status TEXT NOT NULL DEFAULT 'pending'
);`
    if _, err := db.Exec(schema); err != nil {
        return nil, fmt.Errorf("telemetry schema: %w", err)
    }
    l := &Logger{db: db, ops: make(chan func(), 1)}
    l.wg.Add(1)
    go l.writeLoop()
    return l, nil
}

func (l *Logger) writeLoop() {
    defer l.wg.Done()
    for op := range l.ops {
        op()
    }
}

// Close drains queued writes and stops the writer. Writes arriving
// after Close run synchronously on the caller, so late goroutines
// still land their records instead of crashing the teardown.
func (l *Logger) Close() {
    l.mu.Lock()
    if !l.closed {
        l.closed = true
        close(l.ops)
    }
    l.mu.Unlock()
    l.wg.Wait()
}

// enqueue hands an op to the writer, or runs it inline once the
// writer is gone.
func (l *Logger) enqueue(op func()) {
    l.mu.Lock()
    if l.closed {
        l.mu.Unlock()
        op()
        return
    }
    l.ops <- op
    l.mu.Unlock()
}

// Record appends one log record. The caller runs off the response path
// (fire-and-forget); the send blocks only when a write is already
// queued, which bounds loss to a single in-flight record.
func (l *Logger) Record(rec types.LogRecord) {
    if rec.MemoryTier == "" {
        rec.MemoryTier = types.MemoryTierFull
    }
    if rec.Status == "" {
        rec.Status = types.StatusPending
    }
    l.enqueue(func() { l.insert(rec) })
}

// MarkProcessed transitions a record's processed_status.
func (l *Logger) MarkProcessed(id string, status types.ProcessedStatus) {
    l.enqueue(func() {
        _, err := l.db.Exec(
            `UPDATE utterances SET processed_status = ? WHERE id = ? AND processed_status = 'pending'`,
            string(status), id)
        if err != nil {
            log.Printf("[telemetry] mark %s: %v", id, err)
        }
    })
}

func (l *Logger) insert(rec types.LogRecord) {
    var (
        tier, reason, reply, errKind string
        success                      sql.NullBool
        durationMs                   sql.NullInt64
        attempts                     []byte
    )
    if rec.Classified != nil {
        tier = string(rec.Classified.Tier)
        reason = rec.Classified.Reason
    }
    if rec.Envelope != nil {
        tier = string(rec.Envelope.Tier)
        reply = rec.Envelope.Reply
        errKind = string(rec.Envelope.ErrorKind)
        success = sql.NullBool{Bool: rec.Envelope.Success, Valid: true}
        durationMs = sql.NullInt64{Int64: rec.Envelope.Duration.Milliseconds(), Valid: true}
        if len(rec.Envelope.Attempts) > 0 {
            attempts, _ = json.Marshal(rec.Envelope.Attempts)
        }
    }
    _, err := l.db.Exec(`
INSERT INTO utterances (
    id, session_id, user_id, source, raw_text, received_at, stt_confidence,
    matched, match_kind, wake_word, match_confidence, command,
    tier, reason, reply, success, error_kind, duration_ms, attempts,
    memory_tier, processed_status
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        rec.ID,
        rec.Transcript.SessionID,
        rec.Transcript.UserID,
        rec.Transcript.Source,
        rec.Transcript.Text,
        rec.Transcript.ReceivedAt.UTC().Format(time.RFC3339Nano),
        rec.Transcript.Confidence,
        rec.Match.Matched,
        string(rec.Match.Kind),
        rec.Match.WakeWord,
        rec.Match.Confidence,
        rec.Match.Command,
        tier,
        reason,
        reply,
        success,
        errKind,
        durationMs,
        string(attempts),
        rec.MemoryTier,
        string(rec.Status),
    )
    if err != nil {
        log.Printf("[telemetry] insert %s: %v", rec.ID, err)
    }
}

// LastCommand returns the most recent matched command text, for the
// health endpoint. Empty when nothing has been processed yet.
func (l *Logger) LastCommand(ctx context.Context) string {
    var cmd string
    err := l.db.QueryRowContext(ctx,
        `SELECT command FROM utterances WHERE matched = 1 ORDER BY rowid DESC LIMIT 1`).Scan(&cmd)
    if err != nil {
        return ""
    }
    return cmd
}
