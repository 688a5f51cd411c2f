package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/pbaille/rolodex/internal/domain"
	"github.com/pbaille/rolodex/internal/store"
)

const (
	anthropicAPI  = "https://api.anthropic.com/v1/messages"
	chatMaxTokens = 4096
	maxToolRounds = 10
)

const chatSystemPrompt = `You are a research analyst with access to a personal CRM containing
people, conversation transcripts, takeaways, and follow-up items. Answer the
user's questions by calling the available tools to look up data. Ground every
claim in what the tools return; if the data does not support an answer, say
so. Be concise.`

// chatRequest is the request body for POST /api/chat.
type chatRequest struct {
	Message string `json:"message"`
}

// chat answers a free-form question about the rolodex. The response is
// streamed as server-sent events: text_delta chunks followed by a done event.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		writeError(w, http.StatusInternalServerError, "ANTHROPIC_API_KEY not set")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	answer, err := s.runToolLoop(apiKey, req.Message)
	if err != nil {
		sendEvent(w, flusher, map[string]string{"type": "error", "error": err.Error()})
		return
	}

	// Stream the answer in small chunks so the frontend can render
	// progressively.
	for _, chunk := range chunked(answer, 48) {
		sendEvent(w, flusher, map[string]string{"type": "text_delta", "text": chunk})
	}
	sendEvent(w, flusher, map[string]string{"type": "done"})
}

func sendEvent(w http.ResponseWriter, flusher http.Flusher, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

func chunked(s string, size int) []string {
	runes := []rune(s)
	var chunks []string
	for len(runes) > 0 {
		n := size
		if n > len(runes) {
			n = len(runes)
		}
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return chunks
}

// Anthropic messages API wire types, tool-use variant.

type chatAPIRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Tools     []toolSpec    `json:"tools,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type toolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type toolResultBlock struct {
	Type      string `json:"type"`
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
}

type chatAPIResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// runToolLoop drives the Anthropic conversation, executing tool calls
// against the store until the model produces a final text answer.
func (s *Server) runToolLoop(apiKey, message string) (string, error) {
	messages := []chatMessage{{Role: "user", Content: message}}

	for round := 0; round < maxToolRounds; round++ {
		resp, err := callChatAPI(apiKey, chatAPIRequest{
			Model:     s.model,
			MaxTokens: chatMaxTokens,
			System:    chatSystemPrompt,
			Tools:     chatTools(),
			Messages:  messages,
		})
		if err != nil {
			return "", err
		}

		if resp.StopReason != "tool_use" {
			var text strings.Builder
			for _, block := range resp.Content {
				if block.Type == "text" {
					text.WriteString(block.Text)
				}
			}
			return text.String(), nil
		}

		messages = append(messages, chatMessage{Role: "assistant", Content: resp.Content})

		var results []toolResultBlock
		for _, block := range resp.Content {
			if block.Type != "tool_use" {
				continue
			}
			results = append(results, toolResultBlock{
				Type:      "tool_result",
				ToolUseID: block.ID,
				Content:   s.executeTool(block.Name, block.Input),
			})
		}
		messages = append(messages, chatMessage{Role: "user", Content: results})
	}

	return "", fmt.Errorf("chat: tool loop exceeded %d rounds", maxToolRounds)
}

func callChatAPI(apiKey string, reqBody chatAPIRequest) (*chatAPIResponse, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequest("POST", anthropicAPI, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var apiResp chatAPIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("api error: %s", apiResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api returned status %d", resp.StatusCode)
	}
	return &apiResp, nil
}

// chatTools describes the read-only tools the assistant may call.
func chatTools() []toolSpec {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	obj := func(props map[string]any, required ...string) map[string]any {
		schema := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			schema["required"] = required
		}
		return schema
	}

	return []toolSpec{
		{
			Name:        "list_persons",
			Description: "List all persons in the rolodex, optionally filtered by type (customer, investor, competitor).",
			InputSchema: obj(map[string]any{"type": str("person type filter, empty for all")}),
		},
		{
			Name:        "get_person",
			Description: "Get full details for one person: background, state of play, last delta, connections, interaction ids.",
			InputSchema: obj(map[string]any{"name": str("person full name")}, "name"),
		},
		{
			Name:        "get_interactions",
			Description: "List all interactions for a person with dates, takeaways and tags.",
			InputSchema: obj(map[string]any{"name": str("person full name")}, "name"),
		},
		{
			Name:        "get_interaction",
			Description: "Get one interaction by id, including the full transcript.",
			InputSchema: obj(map[string]any{"id": map[string]any{"type": "integer", "description": "interaction id"}}, "id"),
		},
		{
			Name:        "search_text",
			Description: "Full-text search across transcripts and takeaways.",
			InputSchema: obj(map[string]any{"query": str("text to search for")}, "query"),
		},
		{
			Name:        "search_interactions",
			Description: "Search interactions with filters: tag, person type, company, person name, date range (YYYY-MM-DD).",
			InputSchema: obj(map[string]any{
				"tag":         str("tag filter"),
				"person_type": str("person type filter"),
				"company":     str("company name substring"),
				"person_name": str("person name substring"),
				"date_from":   str("start date inclusive"),
				"date_to":     str("end date inclusive"),
			}),
		},
		{
			Name:        "aggregate_tags",
			Description: "Count interactions per tag, optionally filtered by person type or company.",
			InputSchema: obj(map[string]any{
				"person_type": str("person type filter"),
				"company":     str("company name substring"),
			}),
		},
		{
			Name:        "get_open_followups",
			Description: "List the open follow-up items for a person.",
			InputSchema: obj(map[string]any{"name": str("person full name")}, "name"),
		},
	}
}

// executeTool runs one tool call and returns its result as a JSON string.
// Errors are returned in-band so the model can recover.
func (s *Server) executeTool(name string, input json.RawMessage) string {
	result, err := s.dispatchTool(name, input)
	if err != nil {
		return toolJSON(map[string]string{"error": err.Error()})
	}
	return toolJSON(result)
}

func toolJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return `{"error":"failed to encode tool result"}`
	}
	return string(data)
}

func (s *Server) dispatchTool(name string, input json.RawMessage) (any, error) {
	var args struct {
		Name       string `json:"name"`
		Type       string `json:"type"`
		ID         int64  `json:"id"`
		Query      string `json:"query"`
		Tag        string `json:"tag"`
		PersonType string `json:"person_type"`
		Company    string `json:"company"`
		PersonName string `json:"person_name"`
		DateFrom   string `json:"date_from"`
		DateTo     string `json:"date_to"`
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return nil, fmt.Errorf("parse tool input: %w", err)
		}
	}

	switch name {
	case "list_persons":
		ptype, err := domain.ParsePersonType(args.Type)
		if err != nil {
			return nil, err
		}
		persons, err := s.store.ListPersons(ptype)
		if err != nil {
			return nil, err
		}
		summaries := make([]personSummary, 0, len(persons))
		for _, p := range persons {
			summaries = append(summaries, summarize(p))
		}
		return summaries, nil

	case "get_person":
		person, err := s.store.GetPerson(args.Name)
		if err != nil {
			return nil, err
		}
		if person == nil {
			return nil, fmt.Errorf("person %q: %w", args.Name, domain.ErrNotFound)
		}
		return person, nil

	case "get_interactions":
		return s.store.ListInteractions(args.Name)

	case "get_interaction":
		interaction, err := s.store.GetInteraction(args.ID)
		if err != nil {
			return nil, err
		}
		if interaction == nil {
			return nil, fmt.Errorf("interaction %d: %w", args.ID, domain.ErrNotFound)
		}
		return interaction, nil

	case "search_text":
		return s.store.SearchText(args.Query)

	case "search_interactions":
		ptype, err := domain.ParsePersonType(args.PersonType)
		if err != nil {
			return nil, err
		}
		filter := store.SearchFilter{
			PersonType: ptype,
			Company:    args.Company,
			PersonName: args.PersonName,
			DateFrom:   args.DateFrom,
			DateTo:     args.DateTo,
		}
		if args.Tag != "" {
			tag, err := domain.ParseTag(args.Tag)
			if err != nil {
				return nil, err
			}
			filter.Tag = tag
		}
		return s.store.SearchInteractions(filter)

	case "aggregate_tags":
		ptype, err := domain.ParsePersonType(args.PersonType)
		if err != nil {
			return nil, err
		}
		return s.store.AggregateTags(ptype, args.Company)

	case "get_open_followups":
		return s.store.OpenFollowups(args.Name)

	default:
		return nil, fmt.Errorf("unknown tool %q", name)
	}
}
