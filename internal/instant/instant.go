// Package instant computes tier-instant replies locally: arithmetic,
// time and date answers and canned greetings. No I/O, deterministic
// for a fixed clock.
package instant

import (
    "fmt"
    "regexp"
    "strconv"
    "strings"
    "time"
)

const ClarifyReply = "I didn't catch a command. What would you like me to do?"

var arithmeticRe = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*(\+|-|\*|/|plus|minus|times|divided by|x)\s*(-?\d+(?:\.\d+)?)`)

// Arithmetic evaluates the first <number> <operator> <number> pair in
// the command. Whole results render without a decimal part.
func Arithmetic(command string) (string, bool) {
    m := arithmeticRe.FindStringSubmatch(strings.ToLower(command))
    if m == nil {
        return "", false
    }
    a, err1 := strconv.ParseFloat(m[1], 64)
    b, err2 := strconv.ParseFloat(m[3], 64)
    if err1 != nil || err2 != nil {
        return "", false
    }
    var out float64
    switch m[2] {
    case "+", "plus":
        out = a + b
    case "-", "minus":
        out = a - b
    case "*", "times", "x":
        out = a * b
    case "/", "divided by":
        if b == 0 {
            return "I can't divide by zero.", true
        }
        out = a / b
    default:
        return "", false
    }
    return formatNumber(out), true
}

var dateRe = regexp.MustCompile(`\b(what day|what'?s the date|today'?s date|what date)\b`)

// TimeAnswer answers time and date questions against the given clock.
func TimeAnswer(command string, now time.Time) string {
    if dateRe.MatchString(strings.ToLower(command)) {
        return "Today is " + now.Format("Monday, January 2") + "."
    }
    return "It's " + now.Format("3:04 PM") + "."
}

var greetings = []struct {
    re    *regexp.Regexp
    reply string
}{
    {regexp.MustCompile(`\bjoke\b`), "Why did the smart home get therapy? Too many unresolved triggers."},
    {regexp.MustCompile(`\bgood morning\b`), "Good morning!"},
    {regexp.MustCompile(`\bgood night\b`), "Good night!"},
    {regexp.MustCompile(`\bhow are you\b`), "Running smoothly, thanks for asking."},
    {regexp.MustCompile(`\b(thank you|thanks)\b`), "Anytime."},
    {regexp.MustCompile(`\b(hello|hi|hey|good afternoon|good evening)\b`), "Hello! How can I help?"},
}

// Greeting returns a canned reply for greeting and joke commands.
func Greeting(command string) (string, bool) {
    cmd := strings.ToLower(command)
    for _, g := range greetings {
        if g.re.MatchString(cmd) {
            return g.reply, true
        }
    }
    return "", false
}

func formatNumber(f float64) string {
    if f == float64(int64(f)) {
        return strconv.FormatInt(int64(f), 10)
    }
    return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", f), "0"), ".")
}
