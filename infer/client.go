// ABOUTME: OpenAI-compatible inference client that produces scored TikZ candidates for a sketch.
// ABOUTME: Streams candidates over a generate.Producer, scoring each by mean token logprob.
package infer

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/2389-research/sketchtex/generate"
	"github.com/2389-research/sketchtex/tikz"
)

const systemPrompt = "You convert sketches and figure descriptions into compilable TikZ documents. " +
	"Reply with a single complete LaTeX document in a code fence and nothing else."

// Config identifies one inference backend. Two configs with equal fields
// address the same backend, which the client cache relies on.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string // empty for the default OpenAI endpoint
	Temperature float64
}

// Client asks an OpenAI-compatible vision model for candidate TikZ programs.
// It supports custom base URLs so self-hosted inference servers work the
// same as the hosted API.
type Client struct {
	api   openai.Client
	model string
	temp  float64
}

// NewClient creates a Client for the given backend config.
func NewClient(cfg Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	temp := cfg.Temperature
	if temp == 0 {
		temp = 0.8
	}
	return &Client{
		api:   openai.NewClient(opts...),
		model: cfg.Model,
		temp:  temp,
	}
}

// Producer returns a production run that samples up to attempts candidate
// documents for the given prompt and sketch (a data URL or http URL; may be
// empty for text-only prompts). Each candidate is compiled through the given
// compiler before being yielded. The context is checked at every step, so a
// superseded run stops between samples.
func (c *Client) Producer(prompt, imageURL string, compiler tikz.Compiler, attempts int) generate.Producer {
	return func(ctx context.Context) <-chan generate.Result {
		out := make(chan generate.Result)
		go func() {
			defer close(out)
			for i := 0; i < attempts; i++ {
				if ctx.Err() != nil {
					return
				}

				code, score, err := c.sample(ctx, prompt, imageURL)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					select {
					case out <- generate.Result{Err: fmt.Errorf("sampling candidate: %w", err)}:
					case <-ctx.Done():
					}
					return
				}

				doc, err := compiler.Compile(ctx, code)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					select {
					case out <- generate.Result{Err: fmt.Errorf("compiling candidate: %w", err)}:
					case <-ctx.Done():
					}
					return
				}

				select {
				case out <- generate.Result{Score: score, Doc: doc}:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	}
}

// sample requests one completion and returns the extracted TikZ source with
// its confidence score.
func (c *Client) sample(ctx context.Context, prompt, imageURL string) (string, float64, error) {
	var userMsg openai.ChatCompletionMessageParamUnion
	if imageURL != "" {
		userMsg = openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(prompt),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: imageURL}),
		})
	} else {
		userMsg = openai.UserMessage(prompt)
	}

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			userMsg,
		},
		Temperature: openai.Float(c.temp),
		Logprobs:    openai.Bool(true),
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", 0, err
	}
	if len(resp.Choices) == 0 {
		return "", 0, fmt.Errorf("completion returned no choices")
	}

	choice := resp.Choices[0]
	code := ExtractCode(choice.Message.Content)
	if strings.TrimSpace(code) == "" {
		return "", 0, fmt.Errorf("completion contained no code")
	}

	logprobs := make([]float64, 0, len(choice.Logprobs.Content))
	for _, lp := range choice.Logprobs.Content {
		logprobs = append(logprobs, lp.Logprob)
	}
	return code, ScoreFromLogprobs(logprobs), nil
}

// ExtractCode pulls the first fenced code block out of a model reply. When
// the reply carries no fence, the whole trimmed reply is treated as code.
func ExtractCode(reply string) string {
	start := strings.Index(reply, "```")
	if start == -1 {
		return strings.TrimSpace(reply)
	}

	rest := reply[start+3:]
	// Drop the info string ("latex", "tikz", ...) on the fence line.
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		rest = rest[nl+1:]
	}

	if end := strings.Index(rest, "```"); end != -1 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// ScoreFromLogprobs collapses per-token logprobs into a single confidence
// score: the geometric mean token probability. Returns 0 when no logprobs
// are available, ranking such candidates last.
func ScoreFromLogprobs(logprobs []float64) float64 {
	if len(logprobs) == 0 {
		return 0
	}
	sum := 0.0
	for _, lp := range logprobs {
		sum += lp
	}
	return math.Exp(sum / float64(len(logprobs)))
}
