// Package ai talks to the external model providers: Anthropic for analysis
// and AssemblyAI for diarized transcription. All calls are synchronous
// request/response; failures propagate to the caller untouched.
package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/pbaille/rolodex/internal/domain"
)

const anthropicAPI = "https://api.anthropic.com/v1/messages"

// Per-call output budgets.
const (
	speakerIDMaxTokens   = 1024
	diarizationMaxTokens = 8192
	analysisMaxTokens    = 16384
	rollingMaxTokens     = 4096
	followupMaxTokens    = 2048
	backgroundMaxTokens  = 1024
)

// Client handles LLM calls via the Anthropic messages API.
type Client struct {
	apiKey         string
	model          string
	temperature    float64
	analysisTokens int
	http           *http.Client
}

// New creates a Client using ANTHROPIC_API_KEY from the environment.
// temperature applies to every call; analysisTokens overrides the output
// budget of the analysis call. Zero values fall back to the defaults.
func New(model string, temperature float64, analysisTokens int) (*Client, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	if analysisTokens <= 0 {
		analysisTokens = analysisMaxTokens
	}
	return &Client{
		apiKey:         apiKey,
		model:          model,
		temperature:    temperature,
		analysisTokens: analysisTokens,
		http:           http.DefaultClient,
	}, nil
}

// The analysis prompt is selected per person type. All variants currently
// resolve to the same template; the mapping is the extension point for
// type-specific prompts.
var analysisPromptByType = map[domain.PersonType]string{
	domain.PersonCustomer:   analysisPrompt,
	domain.PersonInvestor:   analysisPrompt,
	domain.PersonCompetitor: analysisPrompt,
}

func promptForType(t domain.PersonType) string {
	if p, ok := analysisPromptByType[t]; ok {
		return p
	}
	return analysisPrompt
}

// IdentifySubject determines which speaker letter in a diarized transcript
// is the person being interviewed.
func (c *Client) IdentifySubject(transcript domain.Transcript, subjectName string) (string, error) {
	prompt := fmt.Sprintf(speakerIdentificationPrompt, subjectName, formatTranscript(transcript))

	var result struct {
		SubjectSpeaker string `json:"subject_speaker"`
		Reasoning      string `json:"reasoning"`
	}
	if err := c.call(prompt, speakerIDMaxTokens, &result); err != nil {
		return "", fmt.Errorf("identify subject: %w", err)
	}
	if result.SubjectSpeaker == "" {
		return "", fmt.Errorf("identify subject: empty speaker in response")
	}
	return result.SubjectSpeaker, nil
}

// DiarizeText assigns speaker letters to a raw unlabeled transcript and
// identifies the subject, in a single call. The model sees numbered lines
// and answers with line ranges; utterances are reconstructed from the
// original text so nothing is paraphrased.
func (c *Client) DiarizeText(rawText, subjectName, context string) (domain.Transcript, string, error) {
	lines := strings.Split(rawText, "\n")
	var numbered strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&numbered, "%d: %s\n", i+1, line)
	}

	if context == "" {
		context = "No additional context provided."
	}
	prompt := fmt.Sprintf(diarizationPrompt, subjectName, context, numbered.String())

	var result struct {
		Segments []struct {
			Speaker   string `json:"speaker"`
			StartLine int    `json:"start_line"`
			EndLine   int    `json:"end_line"`
		} `json:"segments"`
		SubjectSpeaker string `json:"subject_speaker"`
		Reasoning      string `json:"reasoning"`
	}
	if err := c.call(prompt, diarizationMaxTokens, &result); err != nil {
		return domain.Transcript{}, "", fmt.Errorf("diarize transcript: %w", err)
	}
	if result.SubjectSpeaker == "" || len(result.Segments) == 0 {
		return domain.Transcript{}, "", fmt.Errorf("diarize transcript: incomplete response")
	}

	var utterances []domain.Utterance
	for _, seg := range result.Segments {
		start := seg.StartLine - 1
		if start < 0 {
			start = 0
		}
		end := seg.EndLine
		if end > len(lines) {
			end = len(lines)
		}
		if start >= end {
			continue
		}
		text := strings.TrimSpace(strings.Join(lines[start:end], "\n"))
		if text != "" {
			utterances = append(utterances, domain.Utterance{Speaker: seg.Speaker, Text: text})
		}
	}

	return domain.Transcript{Text: rawText, Utterances: utterances}, result.SubjectSpeaker, nil
}

// Analyze extracts 3-7 takeaways and 1-3 tags from a relabeled transcript,
// attributing content to the subject's statements only.
func (c *Client) Analyze(transcript domain.Transcript, personType domain.PersonType, subjectName string) ([]string, []domain.Tag, error) {
	prompt := fmt.Sprintf(promptForType(personType), subjectName, formatTranscript(transcript))

	var result struct {
		Takeaways []string `json:"takeaways"`
		Tags      []string `json:"tags"`
	}
	if err := c.call(prompt, c.analysisTokens, &result); err != nil {
		return nil, nil, fmt.Errorf("analyze interaction: %w", err)
	}
	if len(result.Takeaways) == 0 {
		return nil, nil, fmt.Errorf("analyze interaction: no takeaways in response")
	}

	var tags []domain.Tag
	for _, t := range result.Tags {
		tag, err := domain.ParseTag(t)
		if err != nil {
			return nil, nil, fmt.Errorf("analyze interaction: model returned %w", err)
		}
		tags = append(tags, tag)
	}
	return result.Takeaways, tags, nil
}

// Summarize produces the rolling delta and updated state of play from the
// previous state plus the new takeaways.
func (c *Client) Summarize(oldState string, takeaways []string) (delta, updatedState string, err error) {
	if oldState == "" {
		oldState = "No previous state - this is the first interaction."
	}
	prompt := fmt.Sprintf(rollingUpdatePrompt, oldState, bulleted(takeaways))

	var result struct {
		Delta        string `json:"delta"`
		UpdatedState string `json:"updated_state"`
	}
	if err := c.call(prompt, rollingMaxTokens, &result); err != nil {
		return "", "", fmt.Errorf("rolling update: %w", err)
	}
	if result.UpdatedState == "" {
		return "", "", fmt.Errorf("rolling update: empty state in response")
	}
	return result.Delta, result.UpdatedState, nil
}

// ExtractFollowups pulls open action items out of a relabeled transcript.
// An empty list is a valid outcome.
func (c *Client) ExtractFollowups(transcript domain.Transcript, subjectName string) ([]string, error) {
	prompt := fmt.Sprintf(followupExtractionPrompt, subjectName, formatTranscript(transcript))

	var result struct {
		Items []string `json:"items"`
	}
	if err := c.call(prompt, followupMaxTokens, &result); err != nil {
		return nil, fmt.Errorf("extract followups: %w", err)
	}
	return result.Items, nil
}

// GenerateBackground writes a short bio from a person's name, company, and
// first-interaction takeaways.
func (c *Client) GenerateBackground(personName, company string, takeaways []string) (string, error) {
	prompt := fmt.Sprintf(backgroundPrompt, personName, company, bulleted(takeaways))

	var result struct {
		Background string `json:"background"`
	}
	if err := c.call(prompt, backgroundMaxTokens, &result); err != nil {
		return "", fmt.Errorf("generate background: %w", err)
	}
	if result.Background == "" {
		return "", fmt.Errorf("generate background: empty response")
	}
	return result.Background, nil
}

// ── Wire plumbing ────────────────────────────────────────────────

type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float64      `json:"temperature,omitempty"`
	Messages    []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// call sends one prompt and unmarshals the JSON reply into out.
func (c *Client) call(prompt string, maxTokens int, out any) error {
	text, err := c.callAPI(prompt, maxTokens)
	if err != nil {
		return err
	}
	cleaned := stripFences(text)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("parse json: %w (response: %s)", err, truncate(cleaned, 200))
	}
	return nil
}

func (c *Client) callAPI(prompt string, maxTokens int) (string, error) {
	reqBody := apiRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: c.temperature,
		Messages:    []apiMessage{{Role: "user", Content: prompt}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", anthropicAPI, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("api error: %s", apiResp.Error.Message)
	}
	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response")
	}
	return apiResp.Content[0].Text, nil
}

// stripFences removes markdown code blocks the model sometimes wraps JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func formatTranscript(t domain.Transcript) string {
	if len(t.Utterances) == 0 {
		return t.Text
	}
	lines := make([]string, len(t.Utterances))
	for i, u := range t.Utterances {
		lines[i] = fmt.Sprintf("%s: %s", u.Speaker, u.Text)
	}
	return strings.Join(lines, "\n")
}

func bulleted(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
