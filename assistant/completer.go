package assistant

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/goliatone/go-vendorgate/core"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const defaultMaxTokens = 1024

// rejectedBody replaces provider error bodies, which can echo masked keys.
var rejectedBody = []byte(`{"error":"assistant provider rejected the request"}`)

// Completer returns one reply for a system prompt and a user message.
type Completer interface {
	Complete(ctx context.Context, system, message string) (string, error)
	Provider() string
	Model() string
}

// ClientOptions tune the provider SDK clients; BaseURL and HTTPClient are
// mainly for pointing the clients at a test server.
type ClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries *int
	MaxTokens  int64
}

type OpenAICompleter struct {
	client    openai.Client
	model     string
	maxTokens int64
}

func NewOpenAICompleter(apiKey, model string, opts ClientOptions) *OpenAICompleter {
	requestOpts := []openaioption.RequestOption{openaioption.WithAPIKey(apiKey)}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		requestOpts = append(requestOpts, openaioption.WithBaseURL(base))
	}
	if opts.HTTPClient != nil {
		requestOpts = append(requestOpts, openaioption.WithHTTPClient(opts.HTTPClient))
	}
	if opts.MaxRetries != nil {
		requestOpts = append(requestOpts, openaioption.WithMaxRetries(*opts.MaxRetries))
	}
	return &OpenAICompleter{
		client:    openai.NewClient(requestOpts...),
		model:     model,
		maxTokens: maxTokensOrDefault(opts.MaxTokens),
	}
}

func (c *OpenAICompleter) Provider() string { return core.AssistantProviderOpenAI }
func (c *OpenAICompleter) Model() string    { return c.model }

func (c *OpenAICompleter) Complete(ctx context.Context, system, message string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(message),
		},
		MaxCompletionTokens: openai.Int(c.maxTokens),
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", core.VendorRejectedError(core.Vendor(c.Provider()), apiErr.StatusCode, rejectedBody, "application/json")
		}
		return "", core.UpstreamUnreachableError(core.Vendor(c.Provider()), err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", core.InternalError("assistant: provider returned no choices", nil)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type AnthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropicCompleter(apiKey, model string, opts ClientOptions) *AnthropicCompleter {
	requestOpts := []anthropicoption.RequestOption{anthropicoption.WithAPIKey(apiKey)}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		requestOpts = append(requestOpts, anthropicoption.WithBaseURL(base))
	}
	if opts.HTTPClient != nil {
		requestOpts = append(requestOpts, anthropicoption.WithHTTPClient(opts.HTTPClient))
	}
	if opts.MaxRetries != nil {
		requestOpts = append(requestOpts, anthropicoption.WithMaxRetries(*opts.MaxRetries))
	}
	return &AnthropicCompleter{
		client:    anthropic.NewClient(requestOpts...),
		model:     model,
		maxTokens: maxTokensOrDefault(opts.MaxTokens),
	}
}

func (c *AnthropicCompleter) Provider() string { return core.AssistantProviderAnthropic }
func (c *AnthropicCompleter) Model() string    { return c.model }

func (c *AnthropicCompleter) Complete(ctx context.Context, system, message string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", core.VendorRejectedError(core.Vendor(c.Provider()), apiErr.StatusCode, rejectedBody, "application/json")
		}
		return "", core.UpstreamUnreachableError(core.Vendor(c.Provider()), err)
	}
	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(out.String()), nil
}

func maxTokensOrDefault(value int64) int64 {
	if value <= 0 {
		return defaultMaxTokens
	}
	return value
}
