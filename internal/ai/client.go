// Package ai is the remote reasoning collaborator: bounded-timeout
// chat completions over an OpenAI-compatible API.
package ai

import (
    "context"
    "errors"
    "fmt"
    "net"
    "strings"

    openai "github.com/sashabaranov/go-openai"
)

var (
    ErrUnavailable = errors.New("ai collaborator unreachable")
    ErrTimeout     = errors.New("ai collaborator timeout")
    ErrBadReply    = errors.New("ai collaborator returned no usable reply")
)

const systemPrompt = `You are Barnabee, a concise home voice assistant.
Answer in one or two short spoken sentences. If the user asks for a
device action you cannot verify, describe what you would do instead of
pretending it happened.`

type Client interface {
    Complete(ctx context.Context, command, sessionID string) (string, error)
}

type OpenAIClient struct {
    client      *openai.Client
    model       string
    temperature float32
}

func NewOpenAIClient(apiKey, baseURL, model string, temperature float64) *OpenAIClient {
    cfg := openai.DefaultConfig(apiKey)
    if baseURL != "" {
        cfg.BaseURL = baseURL
    }
    return &OpenAIClient{
        client:      openai.NewClientWithConfig(cfg),
        model:       model,
        temperature: float32(temperature),
    }
}

// Complete sends the clean command with minimal context and returns the
// free-text reply. Any transport failure, non-success status or
// malformed payload comes back as an error, never a fault.
func (c *OpenAIClient) Complete(ctx context.Context, command, sessionID string) (string, error) {
    resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
        Model:       c.model,
        Temperature: c.temperature,
        User:        sessionID,
        Messages: []openai.ChatCompletionMessage{
            {Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
            {Role: openai.ChatMessageRoleUser, Content: command},
        },
    })
    if err != nil {
        return "", classifyErr(err)
    }
    if len(resp.Choices) == 0 {
        return "", ErrBadReply
    }
    reply := strings.TrimSpace(resp.Choices[0].Message.Content)
    if reply == "" {
        return "", ErrBadReply
    }
    return reply, nil
}

func classifyErr(err error) error {
    if errors.Is(err, context.DeadlineExceeded) {
        return fmt.Errorf("%w: %v", ErrTimeout, err)
    }
    var ne net.Error
    if errors.As(err, &ne) && ne.Timeout() {
        return fmt.Errorf("%w: %v", ErrTimeout, err)
    }
    var oe *net.OpError
    if errors.As(err, &oe) {
        return fmt.Errorf("%w: %v", ErrUnavailable, err)
    }
    var apiErr *openai.APIError
    if errors.As(err, &apiErr) {
        return fmt.Errorf("ai collaborator error: status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
    }
    return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
