package ai

import (
	"testing"

	"github.com/pbaille/rolodex/internal/domain"
)

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		`{"a": 1}`:                        `{"a": 1}`,
		"```json\n{\"a\": 1}\n```":        `{"a": 1}`,
		"```\n{\"a\": 1}\n```":            `{"a": 1}`,
		"  \n```json\n{\"a\": 1}\n```  ":  `{"a": 1}`,
	}
	for input, want := range cases {
		if got := stripFences(input); got != want {
			t.Errorf("stripFences(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatTranscript(t *testing.T) {
	withUtterances := domain.Transcript{
		Text: "ignored when utterances exist",
		Utterances: []domain.Utterance{
			{Speaker: "A", Text: "Hello."},
			{Speaker: "B", Text: "Hi there."},
		},
	}
	if got := formatTranscript(withUtterances); got != "A: Hello.\nB: Hi there." {
		t.Errorf("formatTranscript = %q", got)
	}

	bare := domain.Transcript{Text: "just raw text"}
	if got := formatTranscript(bare); got != "just raw text" {
		t.Errorf("formatTranscript bare = %q", got)
	}
}

func TestBulleted(t *testing.T) {
	got := bulleted([]string{"one", "two"})
	if got != "- one\n- two" {
		t.Errorf("bulleted = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	long := truncate("0123456789abcdef", 10)
	if len(long) > 13 { // max plus ellipsis
		t.Errorf("truncate too long: %q", long)
	}
}

func TestNewAppliesTuning(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	c, err := New("test-model", 0.7, 2048)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if c.temperature != 0.7 {
		t.Errorf("temperature = %v", c.temperature)
	}
	if c.analysisTokens != 2048 {
		t.Errorf("analysisTokens = %d", c.analysisTokens)
	}

	// Zero values fall back to the defaults.
	c, err = New("", 0, 0)
	if err != nil {
		t.Fatalf("new defaults: %v", err)
	}
	if c.analysisTokens != analysisMaxTokens {
		t.Errorf("default analysisTokens = %d, want %d", c.analysisTokens, analysisMaxTokens)
	}
	if c.temperature != 0 {
		t.Errorf("default temperature = %v", c.temperature)
	}
}

func TestPromptForTypeCoversAllTypes(t *testing.T) {
	for _, pt := range []domain.PersonType{
		domain.PersonCustomer, domain.PersonInvestor,
		domain.PersonCompetitor, domain.PersonUntyped,
	} {
		if promptForType(pt) == "" {
			t.Errorf("no analysis prompt for type %q", pt)
		}
	}
}
