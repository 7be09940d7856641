package homeassistant

import (
    "errors"
    "strings"
)

var ErrNoIntent = errors.New("no device intent in command")

// Verb phrases mapped to Home Assistant services, longest first so
// "turn off" wins over "turn".
var verbServices = []struct {
    phrase  string
    service string
}{
    {"turn on", "turn_on"},
    {"switch on", "turn_on"},
    {"turn off", "turn_off"},
    {"switch off", "turn_off"},
    {"open", "open_cover"},
    {"close", "close_cover"},
    {"lock", "lock"},
    {"unlock", "unlock"},
    {"dim", "turn_on"},
    {"brighten", "turn_on"},
    {"start", "turn_on"},
    {"stop", "turn_off"},
    {"toggle", "toggle"},
    {"activate", "turn_on"},
    {"play", "media_play"},
    {"pause", "media_pause"},
}

var nounDomains = map[string]string{
    "light": "light", "lights": "light", "lamp": "light",
    "fan": "fan", "switch": "switch", "plug": "switch", "outlet": "switch",
    "thermostat": "climate", "heater": "climate",
    "tv": "media_player", "television": "media_player", "speaker": "media_player",
    "door": "cover", "garage": "cover", "blinds": "cover", "curtains": "cover",
    "lock": "lock", "scene": "scene", "vacuum": "vacuum",
}

// ParseIntent extracts a single device action from a clean command.
// Best effort: the entity id is the domain plus a slug of the words
// around the device noun ("turn on the office light" ->
// light.office_light).
func ParseIntent(command string) (Intent, error) {
    cmd := strings.ToLower(strings.TrimSpace(command))

    service := ""
    for _, v := range verbServices {
        if strings.Contains(cmd, v.phrase) {
            service = v.service
            cmd = strings.Replace(cmd, v.phrase, "", 1)
            break
        }
    }
    if service == "" {
        return Intent{}, ErrNoIntent
    }

    words := strings.Fields(cmd)
    domain := ""
    if service == "lock" || service == "unlock" {
        domain = "lock"
    }
    if service == "media_play" || service == "media_pause" {
        domain = "media_player"
    }
    var entityWords []string
    for _, w := range words {
        w = strings.Trim(w, ",.!?;:")
        if w == "the" || w == "a" || w == "my" || w == "please" || w == "" {
            continue
        }
        if d, ok := nounDomains[w]; ok && domain == "" {
            domain = d
        }
        entityWords = append(entityWords, singular(w))
    }
    if domain == "" {
        return Intent{}, ErrNoIntent
    }
    return Intent{
        Domain:   domain,
        Service:  service,
        EntityID: domain + "." + strings.Join(entityWords, "_"),
    }, nil
}

func singular(w string) string {
    if strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && len(w) > 3 {
        return strings.TrimSuffix(w, "s")
    }
    return w
}
