package planner

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kentaro1216/okosy/internal/places"
)

type scriptedChat struct {
	responses []openai.ChatCompletionResponse
	errs      []error
	requests  []openai.ChatCompletionRequest
}

func (c *scriptedChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.requests = append(c.requests, req)
	i := len(c.requests) - 1
	if i < len(c.errs) && c.errs[i] != nil {
		return openai.ChatCompletionResponse{}, c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return openai.ChatCompletionResponse{}, errors.New("unscripted request")
}

type stubLabeler struct {
	labels []string
	calls  int
}

func (l *stubLabeler) ExtractLabels(_ context.Context, images [][]byte) []string {
	l.calls++
	return l.labels
}

func textResponse(content string, finish openai.FinishReason) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			FinishReason: finish,
		}},
	}
}

func toolCallResponse(calls ...openai.ToolCall) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				ToolCalls: calls,
			},
			FinishReason: openai.FinishReasonToolCalls,
		}},
	}
}

func kyotoPrefs() PreferenceSet {
	return PreferenceSet{
		Destination: "京都府",
		Purpose:     "静かに過ごしたい",
		Companion:   "一人旅",
		Days:        2,
		Budget:      "普通",
		FoodStyle:   []string{"和食"},
		Persona:     Personas["ベテラン"],
	}
}

func newTestPlanner(chat ChatClient, search Searcher) *Planner {
	return New(chat, NewToolRegistry(search, nil), nil, openai.GPT4o)
}

func TestGenerateWithoutToolCalls(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		textResponse("京都の静かな旅をどうぞ。", openai.FinishReasonStop),
	}}
	p := newTestPlanner(chat, &stubSearcher{})

	res, err := p.Generate(context.Background(), GenerateRequest{Preferences: kyotoPrefs()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Narrative != "京都の静かな旅をどうぞ。" {
		t.Fatalf("narrative %q", res.Narrative)
	}
	if res.PlacesData != nil {
		t.Fatalf("places data should be nil without tool calls, got %q", *res.PlacesData)
	}
	if len(chat.requests) != 1 {
		t.Fatalf("made %d requests, want 1", len(chat.requests))
	}
	first := chat.requests[0]
	if len(first.Tools) != 1 || first.ToolChoice != "auto" {
		t.Fatalf("first round must offer tools with auto choice")
	}
}

func TestGenerateToolCallingRoundTrip(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolCallResponse(
			openai.ToolCall{
				ID:   "call_1",
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      SearchPlacesTool,
					Arguments: `{"query":"京都 懐石","place_type":"restaurant","location_bias":"35.0,135.7"}`,
				},
			},
			openai.ToolCall{
				ID:       "call_2",
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: "lookup_weather", Arguments: "{}"},
			},
		),
		textResponse("1日目は瓢亭で昼食を。", openai.FinishReasonStop),
	}}
	search := &stubSearcher{outcome: places.ResultsOutcome([]places.Place{
		{Name: "瓢亭", Address: "京都市左京区", Rating: 4.5, PlaceID: "ChIJtest"},
	})}
	p := newTestPlanner(chat, search)

	res, err := p.Generate(context.Background(), GenerateRequest{Preferences: kyotoPrefs()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Narrative != "1日目は瓢亭で昼食を。" {
		t.Fatalf("narrative %q", res.Narrative)
	}

	if len(chat.requests) != 2 {
		t.Fatalf("made %d requests, want 2", len(chat.requests))
	}
	second := chat.requests[1]
	if len(second.Tools) != 0 {
		t.Fatalf("second round must not offer tools")
	}
	// user + assistant + one tool reply per call.
	if len(second.Messages) != 4 {
		t.Fatalf("second round has %d messages, want 4", len(second.Messages))
	}
	toolMsgs := second.Messages[2:]
	if toolMsgs[0].Role != openai.ChatMessageRoleTool || toolMsgs[0].ToolCallID != "call_1" {
		t.Fatalf("first tool reply: role=%s id=%s", toolMsgs[0].Role, toolMsgs[0].ToolCallID)
	}
	if toolMsgs[1].ToolCallID != "call_2" {
		t.Fatalf("second tool reply id %s", toolMsgs[1].ToolCallID)
	}
	if got := decodeErrorPayload(t, toolMsgs[1].Content); got != "lookup_weather not found" {
		t.Fatalf("unknown tool payload %q", got)
	}

	if res.PlacesData == nil {
		t.Fatalf("places data missing")
	}
	var payloads []string
	if err := json.Unmarshal([]byte(*res.PlacesData), &payloads); err != nil {
		t.Fatalf("places data is not a JSON string array: %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("got %d payloads, want 2", len(payloads))
	}
	var found []places.Place
	if err := json.Unmarshal([]byte(payloads[0]), &found); err != nil || len(found) != 1 {
		t.Fatalf("first payload should be a place array: %v / %q", err, payloads[0])
	}
}

func TestGenerateToolFailureStillProducesNarrative(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolCallResponse(openai.ToolCall{
			ID:   "call_1",
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      SearchPlacesTool,
				Arguments: `{"query":"ランチ","place_type":"restaurant","location_bias":"35.0,135.7"}`,
			},
		}),
		textResponse("検索は失敗しましたが、エリアの提案です。", openai.FinishReasonStop),
	}}
	search := &stubSearcher{outcome: places.FailureOutcome("Google Places API Error: 500")}
	p := newTestPlanner(chat, search)

	res, err := p.Generate(context.Background(), GenerateRequest{Preferences: kyotoPrefs()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Narrative == "" {
		t.Fatalf("narrative missing after tool failure")
	}
	toolMsg := chat.requests[1].Messages[2]
	if !strings.Contains(toolMsg.Content, "Google Places API Error") {
		t.Fatalf("tool reply should carry the error payload, got %q", toolMsg.Content)
	}
}

func TestGenerateFirstRoundTransportError(t *testing.T) {
	chat := &scriptedChat{errs: []error{errors.New("connection reset")}}
	p := newTestPlanner(chat, &stubSearcher{})

	res, err := p.Generate(context.Background(), GenerateRequest{Preferences: kyotoPrefs()})
	if err != nil {
		t.Fatalf("transport errors must not surface: %v", err)
	}
	if !strings.Contains(res.Narrative, "申し訳ありません") {
		t.Fatalf("narrative %q is not an apology", res.Narrative)
	}
	if res.PlacesData != nil {
		t.Fatalf("places data should be nil on failure")
	}
}

func TestGenerateSecondRoundTransportError(t *testing.T) {
	chat := &scriptedChat{
		responses: []openai.ChatCompletionResponse{
			toolCallResponse(openai.ToolCall{
				ID:   "call_1",
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      SearchPlacesTool,
					Arguments: `{"query":"宿","place_type":"lodging","location_bias":"35.0,135.7"}`,
				},
			}),
		},
		errs: []error{nil, errors.New("timeout")},
	}
	p := newTestPlanner(chat, &stubSearcher{outcome: places.EmptyOutcome("なし")})

	res, err := p.Generate(context.Background(), GenerateRequest{Preferences: kyotoPrefs()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(res.Narrative, "申し訳ありません") {
		t.Fatalf("narrative %q is not an apology", res.Narrative)
	}
}

func TestGenerateTruncationWarning(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		textResponse("途中まで……", openai.FinishReasonLength),
	}}
	p := newTestPlanner(chat, &stubSearcher{})

	res, err := p.Generate(context.Background(), GenerateRequest{Preferences: kyotoPrefs()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(res.Warnings))
	}
	if res.Narrative != "途中まで……" {
		t.Fatalf("truncated narrative must still be returned")
	}
}

func TestGenerateRejectsInvalidPreferences(t *testing.T) {
	p := newTestPlanner(&scriptedChat{}, &stubSearcher{})
	_, err := p.Generate(context.Background(), GenerateRequest{Preferences: PreferenceSet{Days: 0}})
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("got %v, want ErrBadRequest", err)
	}
}

func TestGenerateSurfacesEmptyDestinationPool(t *testing.T) {
	p := newTestPlanner(&scriptedChat{}, &stubSearcher{})
	prefs := PreferenceSet{
		Destination:     UndecidedDestination,
		Days:            2,
		QuizSeaMountain: AnswerMountain,
		QuizStyle:       AnswerRelaxed,
		QuizAtmosphere:  AnswerModern,
	}
	_, err := p.Generate(context.Background(), GenerateRequest{Preferences: prefs})
	if !errors.Is(err, ErrNoCandidate) {
		t.Fatalf("got %v, want ErrNoCandidate", err)
	}
}

func TestGenerateAppendsImageLabels(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		textResponse("ok", openai.FinishReasonStop),
	}}
	labeler := &stubLabeler{labels: []string{"Temple", "Autumn"}}
	p := New(chat, NewToolRegistry(&stubSearcher{}, nil), labeler, openai.GPT4o)

	_, err := p.Generate(context.Background(), GenerateRequest{
		Preferences: kyotoPrefs(),
		Images:      [][]byte{[]byte("jpeg")},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if labeler.calls != 1 {
		t.Fatalf("labeler calls = %d", labeler.calls)
	}
	user := chat.requests[0].Messages[0]
	if !strings.Contains(user.Content, "Temple, Autumn") {
		t.Fatalf("labels missing from prompt")
	}
}

func TestGenerateSkipsLabelerWithoutImages(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		textResponse("ok", openai.FinishReasonStop),
	}}
	labeler := &stubLabeler{}
	p := New(chat, NewToolRegistry(&stubSearcher{}, nil), labeler, openai.GPT4o)

	if _, err := p.Generate(context.Background(), GenerateRequest{Preferences: kyotoPrefs()}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if labeler.calls != 0 {
		t.Fatalf("labeler ran without images")
	}
}
