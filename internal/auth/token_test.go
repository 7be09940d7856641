package auth

import (
    "testing"
    "time"
)

func TestGenerateAndValidateToken(t *testing.T) {
    sec := "secret123"
    sid := "abc"
    exp := time.Now().Add(5 * time.Minute).Unix()

    tok, err := GenerateSatelliteToken(sec, sid, exp)
    if err != nil {
        t.Fatalf("gen: %v", err)
    }

    gotSID, gotExp, err := ValidateSatelliteToken(sec, tok, sid, time.Now(), 60)
    if err != nil {
        t.Fatalf("validate: %v", err)
    }
    if gotSID != sid || gotExp != exp {
        t.Fatalf("mismatch: %s/%d", gotSID, gotExp)
    }
}

func TestBadSignature(t *testing.T) {
    sec := "secret123"
    sid := "abc"
    exp := time.Now().Add(5 * time.Minute).Unix()
    tok, _ := GenerateSatelliteToken(sec, sid, exp)

    // flip a char
    if tok[0] == 'A' {
        tok = "B" + tok[1:]
    } else {
        tok = "A" + tok[1:]
    }

    _, _, err := ValidateSatelliteToken(sec, tok, sid, time.Now(), 60)
    if err == nil {
        t.Fatalf("expected error for bad token")
    }
}

func TestExpiredToken(t *testing.T) {
    sec := "secret123"
    sid := "abc"
    exp := time.Now().Add(-10 * time.Minute).Unix()
    tok, _ := GenerateSatelliteToken(sec, sid, exp)

    _, _, err := ValidateSatelliteToken(sec, tok, sid, time.Now(), 60)
    if err != ErrTokenExp {
        t.Fatalf("expected ErrTokenExp, got %v", err)
    }
}

func TestSessionMismatch(t *testing.T) {
    sec := "secret123"
    exp := time.Now().Add(5 * time.Minute).Unix()
    tok, _ := GenerateSatelliteToken(sec, "abc", exp)

    _, _, err := ValidateSatelliteToken(sec, tok, "other", time.Now(), 60)
    if err != ErrTokenSID {
        t.Fatalf("expected ErrTokenSID, got %v", err)
    }
}
