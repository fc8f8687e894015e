package oracle

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

//go:embed prompts/system.txt
var systemPrompt string

//go:embed prompts/turn.txt
var turnPromptText string

var turnPrompt = template.Must(template.New("turn").Parse(turnPromptText))

// Gemini resolves turns through the Gemini API.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini dials the API and configures the model for JSON output.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	model.ResponseMIMEType = "application/json"
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) Resolve(ctx context.Context, req TurnRequest) (TurnResult, error) {
	prompt, err := buildTurnPrompt(req)
	if err != nil {
		return TurnResult{}, fmt.Errorf("%w: %v", ErrOracleFailure, err)
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return TurnResult{}, fmt.Errorf("%w: %v", ErrOracleFailure, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return TurnResult{}, fmt.Errorf("%w: empty response", ErrOracleFailure)
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return TurnResult{}, fmt.Errorf("%w: unexpected part type", ErrOracleFailure)
	}

	return DecodeResult([]byte(trimFences(string(text))))
}

// DecodeResult parses a raw engine response and normalizes it.
func DecodeResult(raw []byte) (TurnResult, error) {
	var res TurnResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return TurnResult{}, fmt.Errorf("%w: decode response: %v", ErrOracleFailure, err)
	}
	if res.TimeDelta < 0 {
		res.TimeDelta = 0
	}
	return res, nil
}

// trimFences strips a markdown code fence the model sometimes wraps its JSON
// in despite the response MIME type.
func trimFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func buildTurnPrompt(req TurnRequest) (string, error) {
	var buf bytes.Buffer
	if err := turnPrompt.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}
