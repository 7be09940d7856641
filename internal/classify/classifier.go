package classify

import (
    "context"
    "regexp"
    "strings"

    "barnabee/brain/internal/types"
)

// PatternProbe reports whether the learned pattern cache holds a
// response for a command signature. Classification is deterministic
// given the same command text and cache state.
type PatternProbe interface {
    Has(ctx context.Context, command string) bool
}

// Classifier assigns a clean command to exactly one response tier by
// evaluating a fixed ordered rule set; the first satisfied rule wins
// and later rules never override it.
type Classifier struct {
    patterns PatternProbe
}

func New(patterns PatternProbe) *Classifier {
    return &Classifier{patterns: patterns}
}

var (
    timeRe = regexp.MustCompile(`\b(what time|what'?s the time|current time|what day|what'?s the date|today'?s date|what date)\b`)

    // <number> <operator|word-operator> <number>, found anywhere in the
    // command so trailing chatter does not defeat the instant tier.
    arithmeticRe = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*(\+|-|\*|/|plus|minus|times|divided by|x)\s*(-?\d+(?:\.\d+)?)`)

    greetingRe = regexp.MustCompile(`\b(hello|hi|hey|good morning|good afternoon|good evening|good night|how are you|tell me a joke|joke|thank you|thanks)\b`)

    multiActionRes = []*regexp.Regexp{
        regexp.MustCompile(`\band\b`),
        regexp.MustCompile(`\bthen\b`),
        regexp.MustCompile(`\ball\b.*\bexcept\b`),
        regexp.MustCompile(`\bif\b.*\bthen\b`),
    }

    mathKeywordRe = regexp.MustCompile(`\b(square root|cube root|squared|cubed|percent|percentage|power of|factorial|average|median|logarithm|log of)\b|%|\bcalculate\b|\bmath\b`)

    // Every verb here must be executable by the intent parser; "set"
    // commands carry parameters the direct tier cannot express, so
    // they route to AI.
    deviceVerbRe = regexp.MustCompile(`\b(turn|switch|dim|brighten|open|close|lock|unlock|start|stop|toggle|activate|play|pause)\b`)
)

var deviceNouns = map[string]bool{
    "light": true, "lights": true, "lamp": true, "fan": true,
    "switch": true, "thermostat": true, "heater": true, "tv": true,
    "television": true, "door": true, "garage": true, "lock": true,
    "blinds": true, "curtains": true, "speaker": true, "plug": true,
    "outlet": true, "scene": true, "vacuum": true, "sprinkler": true,
}

// Classify evaluates the ordered rules: empty, time/date, arithmetic,
// greeting, multi-action, complex math, device command, learned
// pattern, general fallback.
func (c *Classifier) Classify(ctx context.Context, command string) types.ClassifiedCommand {
    cmd := strings.ToLower(strings.TrimSpace(command))

    if cmd == "" {
        return types.ClassifiedCommand{Command: command, Tier: types.TierInstant, Reason: "empty"}
    }
    if timeRe.MatchString(cmd) {
        return types.ClassifiedCommand{Command: command, Tier: types.TierInstant, Reason: "time"}
    }
    if arithmeticRe.MatchString(cmd) {
        return types.ClassifiedCommand{Command: command, Tier: types.TierInstant, Reason: "arithmetic"}
    }
    if greetingRe.MatchString(cmd) {
        return types.ClassifiedCommand{Command: command, Tier: types.TierInstant, Reason: "greeting"}
    }
    // Composite commands escalate to AI: the direct device tier cannot
    // express conjunctions, exclusions or conditionals.
    if reason, ok := multiAction(cmd); ok {
        return types.ClassifiedCommand{Command: command, Tier: types.TierAI, Reason: reason}
    }
    if mathKeywordRe.MatchString(cmd) {
        return types.ClassifiedCommand{Command: command, Tier: types.TierAI, Reason: "complex_math"}
    }
    if deviceVerbRe.MatchString(cmd) && countDeviceNouns(cmd) == 1 {
        return types.ClassifiedCommand{Command: command, Tier: types.TierDevice, Reason: "device_command"}
    }
    if c.patterns != nil && c.patterns.Has(ctx, cmd) {
        return types.ClassifiedCommand{Command: command, Tier: types.TierCached, Reason: "pattern"}
    }
    return types.ClassifiedCommand{Command: command, Tier: types.TierAI, Reason: "general"}
}

func multiAction(cmd string) (string, bool) {
    for _, re := range multiActionRes {
        if re.MatchString(cmd) {
            return "multi_action", true
        }
    }
    if countDeviceNouns(cmd) > 1 {
        return "multi_device", true
    }
    return "", false
}

func countDeviceNouns(cmd string) int {
    n := 0
    for _, w := range strings.Fields(cmd) {
        if deviceNouns[strings.Trim(w, ",.!?;:")] {
            n++
        }
    }
    return n
}
