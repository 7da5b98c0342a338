package rag

import (
	"context"
	"encoding/json"

	"ventana-ai/internal/contextutil"
	"ventana-ai/internal/llm"
)

const (
	// maxToolRoundTrips bounds the tool-calling conversation. When the
	// bound is reached without a toolless response, one final completion
	// with no tools offered produces the answer.
	maxToolRoundTrips = 3

	// historyWindow is how many prior chat messages are replayed into the
	// conversation.
	historyWindow = 5

	toolName = "get_relevant_information"

	completionTemperature = 0.3
	finalAnswerMaxTokens  = 800
)

const systemPrompt = `You are 'Window to Truth', an academic researcher specialized in the Colombian conflict and the Truth Commission. Generate detailed and rigorous responses based EXCLUSIVELY on the provided information. Follow these specific guidelines:

1. STRICT ACADEMIC FORMAT:
   - Begin with a clear "Introduction" that presents the general topic.
   - Use bold subtitles to organize information by regions, themes, or concepts.
   - When mentioning specific data, ALWAYS include the citation in IEEE format [number] at the end of the sentence.
   - End with a "Conclusion" that synthesizes the main points.

2. CITATIONS AND REFERENCES:
   - SPECIFICALLY cite pages and exact sources from the documents.
   - Use the format [number] for in-text citations.
   - At the end, include a "References" section with the complete format: [number] Document title, page X.

3. CONTENT, ETHICS, AND TONE:
   - Treat topics with academic rigor and ethical sensitivity due to the nature of the conflict.
   - DO NOT reveal names of victims, specific locations of sensitive events, or details that could endanger individuals or communities.
   - Use precise, objective, and formal language; avoid emotionally charged terms.
   - Base your responses EXCLUSIVELY on the provided information; do not make assumptions.
   - Maintain neutrality and avoid bias towards any actor in the conflict.

4. RESPONSIBILITY AND ATTRIBUTION:
   - Focus on systemic factors, institutional roles, and collective responsibility rather than blaming specific individuals.
   - Analyze the broader context and the interaction of various actors in the conflict.

5. INFORMATION MANAGEMENT:
   - If you need specific information, use the get_relevant_information function to search for it.
   - If sources present conflicts or ambiguities, acknowledge it and present the different perspectives.

IMPORTANT: USE the get_relevant_information tool to search for specific information about aspects of the Colombian conflict. You can use this tool multiple times to refine your search.`

// retrievalTool is the single tool declared to the model.
var retrievalTool = llm.Tool{
	Type: "function",
	Function: llm.ToolFunction{
		Name:        toolName,
		Description: "Get document fragments and source material relevant to a question related to the Colombian conflict.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"question": {
					"type": "string",
					"description": "The question for which to search relevant information, formulated as a question. For example: What implications does the report have on the relationship between truth and the future? or What role does the Commission see for truth-telling in Colombian society?"
				}
			},
			"required": ["question"]
		}`),
	},
}

// CompletionClient runs one chat completion call. This interface is defined
// from the orchestrator's perspective.
type CompletionClient interface {
	Complete(ctx context.Context, messages []llm.Message, params llm.ChatParams) (llm.Completion, error)
}

// Orchestrator drives the question-answering protocol: a bounded multi-turn
// tool-calling conversation that invokes retrieval on demand from the model.
// One Orchestrator serves concurrent questions; each run is sequential and
// keeps all conversation state on its own stack.
type Orchestrator struct {
	completer CompletionClient
	retriever Retriever
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(completer CompletionClient, retriever Retriever) *Orchestrator {
	return &Orchestrator{
		completer: completer,
		retriever: retriever,
	}
}

// Answer runs the conversation for one question over a window of prior
// history. On a provider failure the run terminates immediately; whatever
// contexts were already collected are returned alongside the error so the
// caller can log them and substitute the fixed user-facing message.
func (o *Orchestrator) Answer(ctx context.Context, question string, history []HistoryMessage) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	messages := seedMessages(question, history)
	var collected []CollectedContext

	for turn := 0; turn < maxToolRoundTrips; turn++ {
		completion, err := o.completer.Complete(ctx, messages, llm.ChatParams{
			Temperature: completionTemperature,
			Tools:       []llm.Tool{retrievalTool},
		})
		if err != nil {
			logger.ErrorContext(ctx, "completion call failed", "turn", turn+1, "error", err)
			return Result{Contexts: collected}, &CompletionError{Err: err}
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})

		if !completion.HasToolCalls() {
			logger.InfoContext(ctx, "conversation finished",
				"turns", turn+1, "contexts_collected", len(collected))
			return Result{Answer: completion.Content, Contexts: collected}, nil
		}

		// Tool calls run in the order the model listed them: each appends
		// to the message list consumed by the next turn.
		for _, call := range completion.ToolCalls {
			if call.Function.Name != toolName {
				logger.WarnContext(ctx, "model requested unknown tool", "tool", call.Function.Name)
				continue
			}

			subQuestion, ok := parseQuestionArgument(call.Function.Arguments)
			if !ok {
				logger.WarnContext(ctx, "tool call missing question argument, skipping", "call_id", call.ID)
				continue
			}
			logger.InfoContext(ctx, "tool requested", "turn", turn+1, "sub_question", subQuestion)

			ragContext, err := o.retriever.Retrieve(ctx, subQuestion)
			if err != nil {
				logger.ErrorContext(ctx, "retrieval failed", "sub_question", subQuestion, "error", err)
				return Result{Contexts: collected}, err
			}

			collected = append(collected, CollectedContext{
				SubQuestion: subQuestion,
				ContextText: ragContext.ContextText,
				Documents:   ragContext.Documents,
			})
			messages = append(messages, llm.Message{
				Role:       "tool",
				Name:       toolName,
				ToolCallID: call.ID,
				Content:    ragContext.ContextText,
			})
		}
	}

	// Turn bound exhausted: one final completion with no tools offered
	// over the full accumulated history.
	logger.InfoContext(ctx, "turn bound reached, forcing final answer",
		"turns", maxToolRoundTrips, "contexts_collected", len(collected))

	completion, err := o.completer.Complete(ctx, messages, llm.ChatParams{
		Temperature: completionTemperature,
		MaxTokens:   finalAnswerMaxTokens,
	})
	if err != nil {
		logger.ErrorContext(ctx, "final completion call failed", "error", err)
		return Result{Contexts: collected}, &CompletionError{Err: err}
	}

	return Result{Answer: completion.Content, Contexts: collected}, nil
}

// seedMessages builds the initial message list: system prompt, a bounded
// window of prior turns, then the new question.
func seedMessages(question string, history []HistoryMessage) []llm.Message {
	messages := make([]llm.Message, 0, historyWindow+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})

	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}
	for _, prior := range history[start:] {
		role := "user"
		if prior.IsBot {
			role = "assistant"
		}
		messages = append(messages, llm.Message{Role: role, Content: prior.Content})
	}

	return append(messages, llm.Message{Role: "user", Content: question})
}

// parseQuestionArgument extracts the "question" argument from a tool call's
// raw JSON arguments. A missing or empty argument is not an error, just a
// skipped call.
func parseQuestionArgument(arguments string) (string, bool) {
	var args struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", false
	}
	if args.Question == "" {
		return "", false
	}
	return args.Question, true
}
