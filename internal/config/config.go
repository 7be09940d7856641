package config

import (
    "fmt"
    "log"
    "strings"

    "github.com/spf13/viper"
)

type Config struct {
    Server struct {
        Port     string
        LogLevel string
    }
    Wake struct {
        Tokens    []string // canonical phrase first, accepted variants after
        Tolerance float64  // max edit-distance / token-length ratio
    }
    Dispatch struct {
        CachedTimeoutMs int
        DeviceTimeoutMs int
        AITimeoutMs     int
    }
    AI struct {
        APIKey      string
        BaseURL     string
        Model       string
        Temperature float64
    }
    HomeAssistant struct {
        BaseURL       string
        Token         string
        NotifyService string
    }
    Feedback struct {
        InstantMs  int
        FastMs     int
        ThinkingMs int
    }
    Store struct {
        Path string
    }
    Satellite struct {
        TokenSecret   string
        TokenSkewSecs int
    }
}

func Load() Config {
    v := viper.New()
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
    v.AutomaticEnv()

    // Defaults
    v.SetDefault("server.port", 1880)
    v.SetDefault("server.log_level", "info")

    v.SetDefault("wake.tokens", "barnabee,barnaby,barna bee")
    v.SetDefault("wake.tolerance", 0.5)

    v.SetDefault("dispatch.cached_timeout_ms", 50)
    v.SetDefault("dispatch.device_timeout_ms", 300)
    v.SetDefault("dispatch.ai_timeout_ms", 5000)

    v.SetDefault("ai.model", "gpt-4o-mini")
    v.SetDefault("ai.temperature", 0.3)

    v.SetDefault("homeassistant.notify_service", "notify.mobile_app")

    v.SetDefault("feedback.instant_ms", 10)
    v.SetDefault("feedback.fast_ms", 100)
    v.SetDefault("feedback.thinking_ms", 1000)

    v.SetDefault("store.path", "brain.db")

    v.SetDefault("satellite.token_skew_secs", 60)

    // Map envs
    v.BindEnv("server.port", "PORT")
    v.BindEnv("server.log_level", "LOG_LEVEL")

    v.BindEnv("wake.tokens", "WAKE_TOKENS")
    v.BindEnv("wake.tolerance", "WAKE_TOLERANCE")

    v.BindEnv("dispatch.cached_timeout_ms", "DISPATCH_CACHED_TIMEOUT_MS")
    v.BindEnv("dispatch.device_timeout_ms", "DISPATCH_DEVICE_TIMEOUT_MS")
    v.BindEnv("dispatch.ai_timeout_ms", "DISPATCH_AI_TIMEOUT_MS")

    v.BindEnv("ai.api_key", "OPENAI_API_KEY")
    v.BindEnv("ai.base_url", "OPENAI_BASE_URL")
    v.BindEnv("ai.model", "OPENAI_MODEL")
    v.BindEnv("ai.temperature", "OPENAI_TEMPERATURE")

    v.BindEnv("homeassistant.base_url", "HASS_BASE_URL")
    v.BindEnv("homeassistant.token", "HASS_TOKEN")
    v.BindEnv("homeassistant.notify_service", "HASS_NOTIFY_SERVICE")

    v.BindEnv("feedback.instant_ms", "FEEDBACK_INSTANT_MS")
    v.BindEnv("feedback.fast_ms", "FEEDBACK_FAST_MS")
    v.BindEnv("feedback.thinking_ms", "FEEDBACK_THINKING_MS")

    v.BindEnv("store.path", "STORE_PATH")

    v.BindEnv("satellite.token_secret", "SATELLITE_TOKEN_SECRET")
    v.BindEnv("satellite.token_skew_secs", "SATELLITE_TOKEN_SKEW_SECS")

    var c Config
    c.Server.Port = toString(v.Get("server.port"))
    c.Server.LogLevel = v.GetString("server.log_level")

    c.Wake.Tokens = splitTokens(v.GetString("wake.tokens"))
    c.Wake.Tolerance = v.GetFloat64("wake.tolerance")

    c.Dispatch.CachedTimeoutMs = v.GetInt("dispatch.cached_timeout_ms")
    c.Dispatch.DeviceTimeoutMs = v.GetInt("dispatch.device_timeout_ms")
    c.Dispatch.AITimeoutMs = v.GetInt("dispatch.ai_timeout_ms")

    c.AI.APIKey = v.GetString("ai.api_key")
    c.AI.BaseURL = v.GetString("ai.base_url")
    c.AI.Model = v.GetString("ai.model")
    c.AI.Temperature = v.GetFloat64("ai.temperature")

    c.HomeAssistant.BaseURL = v.GetString("homeassistant.base_url")
    c.HomeAssistant.Token = v.GetString("homeassistant.token")
    c.HomeAssistant.NotifyService = v.GetString("homeassistant.notify_service")

    c.Feedback.InstantMs = v.GetInt("feedback.instant_ms")
    c.Feedback.FastMs = v.GetInt("feedback.fast_ms")
    c.Feedback.ThinkingMs = v.GetInt("feedback.thinking_ms")

    c.Store.Path = v.GetString("store.path")

    c.Satellite.TokenSecret = v.GetString("satellite.token_secret")
    c.Satellite.TokenSkewSecs = v.GetInt("satellite.token_skew_secs")

    log.Printf("config loaded: port=%s wake_tokens=%d hass=%s", c.Server.Port, len(c.Wake.Tokens), c.HomeAssistant.BaseURL)
    return c
}

func splitTokens(s string) []string {
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(strings.ToLower(p))
        if p != "" {
            out = append(out, p)
        }
    }
    return out
}

func toString(v any) string { return fmt.Sprint(v) }
