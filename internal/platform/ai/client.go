package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

var (
	ErrNotConfigured = errors.New("AI assistant is not configured: set GEMINI_API_KEY")
	ErrEmptyResponse = errors.New("AI returned an empty response")
	ErrMalformed     = errors.New("AI returned a malformed response")
)

// generator is the slice of the genai models API the client uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Recorder counts calls per command.
type Recorder interface {
	AICall(command string, err error)
}

type Client struct {
	models   generator
	model    string
	recorder Recorder
}

// New returns an unconfigured client when apiKey is empty; every call on it
// fails with ErrNotConfigured before any network activity.
func New(ctx context.Context, apiKey, model string, recorder Recorder) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}
	c := &Client{model: model, recorder: recorder}
	if strings.TrimSpace(apiKey) == "" {
		return c, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.models = client.Models
	return c, nil
}

func newWithGenerator(g generator, recorder Recorder) *Client {
	return &Client{models: g, model: DefaultModel, recorder: recorder}
}

func (c *Client) Configured() bool {
	return c != nil && c.models != nil
}

func (c *Client) record(command string, err error) {
	if c.recorder != nil {
		c.recorder.AICall(command, err)
	}
}

// GenerateJSON asks for a response matching schema and decodes it into out.
func (c *Client) GenerateJSON(ctx context.Context, command, system, prompt string, schema *genai.Schema, out any) (err error) {
	if !c.Configured() {
		return ErrNotConfigured
	}
	defer func() { c.record(command, err) }()

	temperature := float32(0.4)
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temperature,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    schema,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

type FunctionCall struct {
	Name string
	Args map[string]any
}

// ToolReply holds either the model's function calls or its plain text.
type ToolReply struct {
	Calls []FunctionCall
	Text  string
}

func (c *Client) CallTools(ctx context.Context, system, prompt string, tools []*genai.FunctionDeclaration) (reply ToolReply, err error) {
	if !c.Configured() {
		return ToolReply{}, ErrNotConfigured
	}
	defer func() { c.record("assistant", err) }()

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Tools:             []*genai.Tool{{FunctionDeclarations: tools}},
	})
	if err != nil {
		return ToolReply{}, fmt.Errorf("assistant: %w", err)
	}
	for _, call := range resp.FunctionCalls() {
		if call == nil {
			continue
		}
		reply.Calls = append(reply.Calls, FunctionCall{Name: call.Name, Args: call.Args})
	}
	if len(reply.Calls) == 0 {
		reply.Text = strings.TrimSpace(resp.Text())
		if reply.Text == "" {
			return ToolReply{}, ErrEmptyResponse
		}
	}
	return reply, nil
}
