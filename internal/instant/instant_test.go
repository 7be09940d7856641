package instant

import (
    "testing"
    "time"
)

func TestArithmetic(t *testing.T) {
    cases := []struct {
        command string
        want    string
    }{
        {"what is 15 plus 27", "42"},
        {"2 + 2", "4"},
        {"10 minus 4", "6"},
        {"6 times 7", "42"},
        {"3 x 5", "15"},
        {"15 divided by 4", "3.75"},
        {"9 / 3", "3"},
        {"what is 2 plus 2 and also turn off the light", "4"},
    }
    for _, tc := range cases {
        got, ok := Arithmetic(tc.command)
        if !ok {
            t.Errorf("Arithmetic(%q): no match", tc.command)
            continue
        }
        if got != tc.want {
            t.Errorf("Arithmetic(%q) = %q, want %q", tc.command, got, tc.want)
        }
    }
}

func TestArithmeticDivideByZero(t *testing.T) {
    got, ok := Arithmetic("5 divided by 0")
    if !ok {
        t.Fatal("expected a reply")
    }
    if got != "I can't divide by zero." {
        t.Fatalf("unexpected reply %q", got)
    }
}

func TestArithmeticNoMatch(t *testing.T) {
    if _, ok := Arithmetic("what's the square root of 16"); ok {
        t.Fatal("square root should not match the simple arithmetic pattern")
    }
}

func TestTimeAnswer(t *testing.T) {
    now := time.Date(2026, 8, 29, 14, 5, 0, 0, time.UTC)

    if got := TimeAnswer("what time is it", now); got != "It's 2:05 PM." {
        t.Fatalf("unexpected time reply %q", got)
    }
    if got := TimeAnswer("what's the date", now); got != "Today is Saturday, August 29." {
        t.Fatalf("unexpected date reply %q", got)
    }
}

func TestGreeting(t *testing.T) {
    if got, ok := Greeting("hello there"); !ok || got == "" {
        t.Fatalf("expected greeting reply, got %q ok=%v", got, ok)
    }
    if got, ok := Greeting("tell me a joke"); !ok || got == "" {
        t.Fatalf("expected joke reply, got %q ok=%v", got, ok)
    }
    if _, ok := Greeting("turn on lights"); ok {
        t.Fatal("device command should not match greetings")
    }
}
