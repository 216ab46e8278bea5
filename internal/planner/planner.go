package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"

	openai "github.com/sashabaranov/go-openai"
)

// README: Itinerary generation. One Generate call runs at most two chat
// completion rounds: the first offers the place-search tool, the second
// (entered only when the model called tools) folds the tool results back
// in and produces the final narrative.

const apologyMessage = "申し訳ありません、AIとの通信中にエラーが発生しました。時間をおいて再度お試しください。"

const warnTruncated = "AIの応答が長すぎて途中で終了した可能性があります。"

// ChatClient is the slice of the OpenAI client Generate needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Labeler extracts descriptive labels from raw image bytes.
type Labeler interface {
	ExtractLabels(ctx context.Context, images [][]byte) []string
}

// Planner orchestrates one itinerary generation end to end.
type Planner struct {
	chat     ChatClient
	registry *ToolRegistry
	labels   Labeler
	model    string
	rng      *rand.Rand
}

// New builds a Planner. labels may be nil when image support is disabled.
func New(chat ChatClient, registry *ToolRegistry, labels Labeler, model string) *Planner {
	return &Planner{chat: chat, registry: registry, labels: labels, model: model}
}

// WithRand fixes the random source used for destination derivation.
func (p *Planner) WithRand(rng *rand.Rand) *Planner {
	p.rng = rng
	return p
}

// Generate produces an itinerary for one preference snapshot. Transport
// failures against the model are absorbed into an apology narrative so
// the caller always gets a presentable Result; only invalid input and an
// empty destination pool surface as errors.
func (p *Planner) Generate(ctx context.Context, req GenerateRequest) (Result, error) {
	if err := req.Preferences.Validate(); err != nil {
		return Result{}, err
	}
	destination, err := DeriveDestination(req.Preferences, p.rng)
	if err != nil {
		return Result{}, fmt.Errorf("derive destination: %w", err)
	}

	userMsg := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: BuildPrompt(req.Preferences, destination),
	}
	if len(req.Images) > 0 && p.labels != nil {
		labels := p.labels.ExtractLabels(ctx, req.Images)
		appendLabelBlock(&userMsg, labels)
	}
	messages := []openai.ChatCompletionMessage{userMsg}

	var warnings []string

	first, err := p.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:      p.model,
		Messages:   messages,
		Tools:      p.registry.Schema(),
		ToolChoice: "auto",
	})
	if err != nil {
		log.Printf("planner: first round failed: %v", err)
		return apologyResult(destination), nil
	}
	if len(first.Choices) == 0 {
		log.Printf("planner: first round returned no choices")
		return apologyResult(destination), nil
	}
	choice := first.Choices[0]
	if choice.FinishReason == openai.FinishReasonLength {
		log.Printf("planner: first round hit the length limit")
		warnings = append(warnings, warnTruncated)
	}

	if len(choice.Message.ToolCalls) == 0 {
		return Result{
			Destination: destination,
			Narrative:   choice.Message.Content,
			Warnings:    warnings,
		}, nil
	}

	messages = append(messages, choice.Message)
	var toolPayloads []string
	for _, call := range choice.Message.ToolCalls {
		payload := p.registry.Dispatch(ctx, call.Function.Name, call.Function.Arguments, destination)
		toolPayloads = append(toolPayloads, payload)
		messages = append(messages, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    payload,
			Name:       call.Function.Name,
			ToolCallID: call.ID,
		})
	}

	second, err := p.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: messages,
	})
	if err != nil {
		log.Printf("planner: second round failed: %v", err)
		return apologyResult(destination), nil
	}
	if len(second.Choices) == 0 {
		log.Printf("planner: second round returned no choices")
		return apologyResult(destination), nil
	}
	if second.Choices[0].FinishReason == openai.FinishReasonLength {
		log.Printf("planner: second round hit the length limit")
		warnings = append(warnings, warnTruncated)
	}

	return Result{
		Destination: destination,
		Narrative:   second.Choices[0].Message.Content,
		PlacesData:  encodePlacesData(toolPayloads),
		Warnings:    warnings,
	}, nil
}

func apologyResult(destination string) Result {
	return Result{Destination: destination, Narrative: apologyMessage}
}

// encodePlacesData wraps the tool payloads into one JSON array of strings.
// Payloads that are not valid JSON are dropped; nil means nothing survived.
func encodePlacesData(payloads []string) *string {
	var valid []string
	for _, payload := range payloads {
		if !json.Valid([]byte(payload)) {
			log.Printf("planner: dropping non-JSON tool payload")
			continue
		}
		valid = append(valid, payload)
	}
	if len(valid) == 0 {
		return nil
	}
	raw, err := json.Marshal(valid)
	if err != nil {
		log.Printf("planner: encoding places data failed: %v", err)
		return nil
	}
	s := string(raw)
	return &s
}
