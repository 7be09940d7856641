// Package pattern is the learned response cache: command signatures
// mapped to response templates with confidence and usage counts.
package pattern

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "strings"
)

var ErrNotFound = errors.New("pattern not found")

// Entry is one learned pattern.
type Entry struct {
    Signature        string  `json:"signature"`
    Pattern          string  `json:"pattern"`
    ResponseTemplate string  `json:"response_template"`
    Confidence       float64 `json:"confidence"`
    UsageCount       int64   `json:"usage_count"`
}

// Store is the cache contract: concurrency-safe get/put/increment-usage
// behind an explicit interface rather than a shared map.
type Store interface {
    Lookup(ctx context.Context, command string) (Entry, error)
    Save(ctx context.Context, e Entry) error
    Has(ctx context.Context, command string) bool
}

// SQLStore keeps patterns in sqlite. Per-signature atomicity comes from
// single-statement upserts and updates; unrelated signatures never
// serialize on an application-level lock.
type SQLStore struct {
    db *sql.DB
}

func NewSQLStore(db *sql.DB) (*SQLStore, error) {
    const schema = `
CREATE TABLE IF NOT EXISTS patterns (
    signature         TEXT PRIMARY KEY,
    pattern           TEXT NOT NULL,
    response_template TEXT NOT NULL,
    confidence        REAL NOT NULL DEFAULT 0.5,
    usage_count       INTEGER NOT NULL DEFAULT 0
);`
    if _, err := db.Exec(schema); err != nil {
        return nil, fmt.Errorf("pattern schema: %w", err)
    }
    return &SQLStore{db: db}, nil
}

// Lookup finds a stored pattern by the command's normalized signature
// and increments its usage count on a hit.
func (s *SQLStore) Lookup(ctx context.Context, command string) (Entry, error) {
    sig := Signature(command)
    if sig == "" {
        return Entry{}, ErrNotFound
    }
    var e Entry
    row := s.db.QueryRowContext(ctx,
        `SELECT signature, pattern, response_template, confidence, usage_count FROM patterns WHERE signature = ?`, sig)
    if err := row.Scan(&e.Signature, &e.Pattern, &e.ResponseTemplate, &e.Confidence, &e.UsageCount); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return Entry{}, ErrNotFound
        }
        return Entry{}, fmt.Errorf("pattern lookup: %w", err)
    }
    if _, err := s.db.ExecContext(ctx,
        `UPDATE patterns SET usage_count = usage_count + 1 WHERE signature = ?`, sig); err != nil {
        return Entry{}, fmt.Errorf("pattern usage: %w", err)
    }
    e.UsageCount++
    return e, nil
}

// Save upserts a pattern keyed by its signature.
func (s *SQLStore) Save(ctx context.Context, e Entry) error {
    if e.Signature == "" {
        e.Signature = Signature(e.Pattern)
    }
    if e.Signature == "" {
        return errors.New("pattern: empty signature")
    }
    _, err := s.db.ExecContext(ctx, `
INSERT INTO patterns (signature, pattern, response_template, confidence, usage_count)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(signature) DO UPDATE SET
    pattern = excluded.pattern,
    response_template = excluded.response_template,
    confidence = excluded.confidence`,
        e.Signature, e.Pattern, e.ResponseTemplate, e.Confidence, e.UsageCount)
    if err != nil {
        return fmt.Errorf("pattern save: %w", err)
    }
    return nil
}

// Has reports whether a signature is cached, without touching usage.
func (s *SQLStore) Has(ctx context.Context, command string) bool {
    sig := Signature(command)
    if sig == "" {
        return false
    }
    var one int
    err := s.db.QueryRowContext(ctx, `SELECT 1 FROM patterns WHERE signature = ?`, sig).Scan(&one)
    return err == nil
}

var stopwords = map[string]bool{
    "please": true, "can": true, "could": true, "would": true,
    "you": true, "the": true, "a": true, "an": true, "my": true,
}

// Signature normalizes a command into its cache key: lowercase,
// punctuation stripped, stopwords removed, whitespace collapsed.
func Signature(command string) string {
    words := strings.Fields(strings.ToLower(command))
    kept := make([]string, 0, len(words))
    for _, w := range words {
        w = strings.Trim(w, ",.!?;:'\"")
        if w == "" || stopwords[w] {
            continue
        }
        kept = append(kept, w)
    }
    return strings.Join(kept, " ")
}
