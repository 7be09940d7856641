package pattern

import (
    "context"
    "database/sql"
    "errors"
    "path/filepath"
    "testing"

    _ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *SQLStore {
    t.Helper()
    db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "patterns.db"))
    if err != nil {
        t.Fatalf("open db: %v", err)
    }
    t.Cleanup(func() { db.Close() })
    s, err := NewSQLStore(db)
    if err != nil {
        t.Fatalf("new store: %v", err)
    }
    return s
}

func TestSignature(t *testing.T) {
    cases := []struct{ in, want string }{
        {"Please turn on the lights!", "turn on lights"},
        {"Can you   do the morning thing?", "do morning thing"},
        {"", ""},
        {"please", ""},
    }
    for _, tc := range cases {
        if got := Signature(tc.in); got != tc.want {
            t.Errorf("Signature(%q) = %q, want %q", tc.in, got, tc.want)
        }
    }
}

func TestSaveLookupIncrementsUsage(t *testing.T) {
    s := newTestStore(t)
    ctx := context.Background()

    err := s.Save(ctx, Entry{
        Pattern:          "do the morning thing",
        ResponseTemplate: "Running your morning routine.",
        Confidence:       0.8,
    })
    if err != nil {
        t.Fatalf("save: %v", err)
    }

    // Different surface form, same signature.
    e, err := s.Lookup(ctx, "please do the morning thing")
    if err != nil {
        t.Fatalf("lookup: %v", err)
    }
    if e.ResponseTemplate != "Running your morning routine." {
        t.Fatalf("unexpected template %q", e.ResponseTemplate)
    }
    if e.UsageCount != 1 {
        t.Fatalf("expected usage 1, got %d", e.UsageCount)
    }

    e, err = s.Lookup(ctx, "do the morning thing")
    if err != nil {
        t.Fatalf("second lookup: %v", err)
    }
    if e.UsageCount != 2 {
        t.Fatalf("expected usage 2, got %d", e.UsageCount)
    }
}

func TestLookupMiss(t *testing.T) {
    s := newTestStore(t)

    _, err := s.Lookup(context.Background(), "never seen before")
    if !errors.Is(err, ErrNotFound) {
        t.Fatalf("expected ErrNotFound, got %v", err)
    }
}

func TestHasDoesNotTouchUsage(t *testing.T) {
    s := newTestStore(t)
    ctx := context.Background()

    _ = s.Save(ctx, Entry{Pattern: "goodnight routine", ResponseTemplate: "Sleep tight."})

    if !s.Has(ctx, "goodnight routine") {
        t.Fatal("expected Has to report the cached pattern")
    }
    if s.Has(ctx, "unknown thing") {
        t.Fatal("Has reported a pattern that was never saved")
    }

    e, err := s.Lookup(ctx, "goodnight routine")
    if err != nil {
        t.Fatalf("lookup: %v", err)
    }
    if e.UsageCount != 1 {
        t.Fatalf("Has must not increment usage; got %d after one lookup", e.UsageCount)
    }
}
