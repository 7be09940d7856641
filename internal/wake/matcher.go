package wake

import (
    "strings"
    "unicode"

    "barnabee/brain/internal/types"
)

// Phonetic variants: common recognizer mis-transcriptions mapped back
// to the canonical wake phrase. Hits score a fixed mid-range confidence.
var phoneticVariants = map[string]string{
    "barney":     "barnabee",
    "bernie":     "barnabee",
    "bernie b":   "barnabee",
    "barn bee":   "barnabee",
    "barn a bee": "barnabee",
    "bob marley": "barnabee",
    "banana bee": "barnabee",
    "varna be":   "barnabee",
}

const phoneticConfidence = 70

// Matcher decides whether a wake phrase is present in a transcript,
// where it ends, and with what confidence.
type Matcher struct {
    tokens    []string
    tolerance float64
    maxWords  int
}

// NewMatcher builds a matcher from wake tokens (canonical phrase first)
// and an edit-distance tolerance ratio. Tokens are lowercased.
func NewMatcher(tokens []string, tolerance float64) *Matcher {
    m := &Matcher{tolerance: tolerance}
    for _, t := range tokens {
        t = strings.ToLower(strings.TrimSpace(t))
        if t == "" {
            continue
        }
        m.tokens = append(m.tokens, t)
        if n := len(strings.Fields(t)); n > m.maxWords {
            m.maxWords = n
        }
    }
    for v := range phoneticVariants {
        if n := len(strings.Fields(v)); n > m.maxWords {
            m.maxWords = n
        }
    }
    if m.maxWords == 0 {
        m.maxWords = 1
    }
    return m
}

// Match never fails: malformed, empty or non-ASCII input degrades to
// an unmatched result whose Command carries the input unchanged.
func (m *Matcher) Match(transcript string) types.WakeMatchResult {
    unmatched := types.WakeMatchResult{Kind: types.MatchNone, Command: transcript}
    if strings.TrimSpace(transcript) == "" || !isASCII(transcript) {
        return unmatched
    }
    words := strings.Fields(transcript)

    limit := m.maxWords
    if limit > len(words) {
        limit = len(words)
    }

    // Exact pass over all leading windows first: a clean hit must not be
    // outscored by a fuzzy hit on a different window size.
    for n := 1; n <= limit; n++ {
        window := cleanWindow(words[:n])
        for _, tok := range m.tokens {
            if window == tok {
                return types.WakeMatchResult{
                    Matched:    true,
                    Kind:       types.MatchExact,
                    WakeWord:   tok,
                    Confidence: 100,
                    Command:    m.residual(words, n),
                }
            }
        }
    }

    // Fuzzy pass: best edit-distance ratio across tokens and windows.
    bestRatio := m.tolerance + 1
    bestTok := ""
    bestN := 0
    for n := 1; n <= limit; n++ {
        window := cleanWindow(words[:n])
        for _, tok := range m.tokens {
            d := levenshtein(window, tok)
            ratio := float64(d) / float64(len(tok))
            if ratio <= m.tolerance && ratio < bestRatio {
                bestRatio = ratio
                bestTok = tok
                bestN = n
            }
        }
    }
    if bestTok != "" {
        return types.WakeMatchResult{
            Matched:    true,
            Kind:       types.MatchFuzzy,
            WakeWord:   bestTok,
            Confidence: fuzzyConfidence(bestRatio, m.tolerance),
            Command:    m.residual(words, bestN),
        }
    }

    // Phonetic pass: fixed mis-transcription table.
    for n := 1; n <= limit; n++ {
        window := cleanWindow(words[:n])
        if canonical, ok := phoneticVariants[window]; ok {
            return types.WakeMatchResult{
                Matched:    true,
                Kind:       types.MatchPhonetic,
                WakeWord:   canonical,
                Confidence: phoneticConfidence,
                Command:    m.residual(words, n),
            }
        }
    }

    return unmatched
}

// residual drops the matched window, collapses whitespace and trims
// stray punctuation left at the seam. Repeated leading wake tokens are
// stripped too, so the wake phrase never survives into the command.
func (m *Matcher) residual(words []string, n int) string {
    rest := words[n:]
    for len(rest) > 0 {
        stripped := false
        for _, tok := range m.tokens {
            tw := strings.Fields(tok)
            if len(rest) >= len(tw) && cleanWindow(rest[:len(tw)]) == tok {
                rest = rest[len(tw):]
                stripped = true
                break
            }
        }
        if !stripped {
            break
        }
    }
    out := strings.Join(rest, " ")
    out = strings.TrimLeft(out, ",.!?;:- ")
    return strings.TrimSpace(out)
}

// fuzzyConfidence maps a distance ratio in (0, tolerance] onto [60,95],
// closer match scoring higher.
func fuzzyConfidence(ratio, tolerance float64) int {
    if tolerance <= 0 {
        return 60
    }
    c := 95 - (ratio/tolerance)*35
    if c < 60 {
        c = 60
    }
    if c > 95 {
        c = 95
    }
    return int(c + 0.5)
}

func cleanWindow(words []string) string {
    cleaned := make([]string, 0, len(words))
    for _, w := range words {
        w = strings.ToLower(strings.Trim(w, ",.!?;:'\""))
        if w != "" {
            cleaned = append(cleaned, w)
        }
    }
    return strings.Join(cleaned, " ")
}

func isASCII(s string) bool {
    for _, r := range s {
        if r > unicode.MaxASCII {
            return false
        }
    }
    return true
}

// levenshtein is the classic two-row DP edit distance, cost 1 per
// insertion, deletion and substitution.
func levenshtein(a, b string) int {
    if a == b {
        return 0
    }
    if len(a) == 0 {
        return len(b)
    }
    if len(b) == 0 {
        return len(a)
    }
    prev := make([]int, len(b)+1)
    curr := make([]int, len(b)+1)
    for j := 0; j <= len(b); j++ {
        prev[j] = j
    }
    for i := 1; i <= len(a); i++ {
        curr[0] = i
        for j := 1; j <= len(b); j++ {
            cost := 1
            if a[i-1] == b[j-1] {
                cost = 0
            }
            curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
        }
        prev, curr = curr, prev
    }
    return prev[len(b)]
}

func min3(a, b, c int) int {
    if b < a {
        a = b
    }
    if c < a {
        a = c
    }
    return a
}
