// Package ingest orchestrates the interaction-ingestion pipeline: raw
// recording or transcript in, persisted interaction + updated person profile
// + derived followups out.
//
// Stages run in a fixed order and each write commits independently. A
// failure aborts the remaining stages but does not roll back earlier writes:
// if updating the person state fails after the interaction was stored, the
// interaction stays stored.
package ingest

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pbaille/rolodex/internal/domain"
	"github.com/pbaille/rolodex/internal/vfs"
)

// Storage is the subset of the store the pipeline writes through.
type Storage interface {
	GetPerson(name string) (*domain.Person, error)
	ListInteractions(personName string) ([]domain.Interaction, error)
	CreateInteraction(personName string, date time.Time, transcript domain.Transcript, takeaways []string, tags []domain.Tag) (*domain.Interaction, error)
	CreateFollowups(personName string, interactionID int64, dateSlug string, items []string) ([]domain.Followup, error)
	UpdatePersonState(name, stateOfPlay, lastDelta string) error
	UpdatePersonBackground(name, background string) error
}

// Analyzer covers the LLM calls the pipeline makes.
type Analyzer interface {
	DiarizeText(rawText, subjectName, context string) (domain.Transcript, string, error)
	IdentifySubject(transcript domain.Transcript, subjectName string) (string, error)
	Analyze(transcript domain.Transcript, personType domain.PersonType, subjectName string) ([]string, []domain.Tag, error)
	Summarize(oldState string, takeaways []string) (delta, updatedState string, err error)
	ExtractFollowups(transcript domain.Transcript, subjectName string) ([]string, error)
	GenerateBackground(personName, company string, takeaways []string) (string, error)
}

// Transcriber converts a media file into a diarized transcript.
type Transcriber interface {
	Transcribe(mediaPath string) (domain.Transcript, error)
}

// Pipeline drives the ingestion stages.
type Pipeline struct {
	store       Storage
	llm         Analyzer
	transcriber Transcriber
	out         io.Writer
}

// New creates a Pipeline. out receives the human-readable progress lines;
// pass nil to discard them.
func New(store Storage, llm Analyzer, transcriber Transcriber, out io.Writer) *Pipeline {
	if out == nil {
		out = io.Discard
	}
	return &Pipeline{store: store, llm: llm, transcriber: transcriber, out: out}
}

const totalSteps = 7

func (p *Pipeline) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// IngestRecording runs the full pipeline over a media file: extract audio,
// transcribe with diarization, identify the subject speaker, then the shared
// analysis and persistence stages.
func (p *Pipeline) IngestRecording(mediaPath, personName string, date time.Time, context string) (*domain.Interaction, error) {
	if p.transcriber == nil {
		return nil, fmt.Errorf("transcription unavailable: %w", domain.ErrInvalidInput)
	}
	person, err := p.lookupPerson(personName)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(mediaPath); err != nil {
		return nil, fmt.Errorf("file %s: %w", mediaPath, domain.ErrNotFound)
	}
	if date.IsZero() {
		date = time.Now()
	}

	p.printf("[1/%d] Extracting audio and transcribing...", totalSteps)
	transcript, err := p.transcriber.Transcribe(mediaPath)
	if err != nil {
		return nil, err
	}

	p.printf("[2/%d] Identifying subject speaker...", totalSteps)
	subjectSpeaker, err := p.llm.IdentifySubject(transcript, personName)
	if err != nil {
		return nil, err
	}

	return p.run(transcript, subjectSpeaker, person, date)
}

// IngestTranscript runs the pipeline over a plain-text transcript file. The
// file must be non-empty after whitespace trimming; this is checked before
// any model call.
func (p *Pipeline) IngestTranscript(filePath, personName string, date time.Time, context string) (*domain.Interaction, error) {
	person, err := p.lookupPerson(personName)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file %s: %w", filePath, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	p.printf("[1/%d] Reading transcript file...", totalSteps)
	return p.ingestText(string(data), person, date, context, filePath)
}

// IngestText runs the pipeline over transcript text already in memory (for
// example fetched from a URL).
func (p *Pipeline) IngestText(rawText, personName string, date time.Time, context string) (*domain.Interaction, error) {
	person, err := p.lookupPerson(personName)
	if err != nil {
		return nil, err
	}
	p.printf("[1/%d] Reading transcript...", totalSteps)
	return p.ingestText(rawText, person, date, context, "input")
}

func (p *Pipeline) ingestText(rawText string, person *domain.Person, date time.Time, context, source string) (*domain.Interaction, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("%w: transcript %s is empty", domain.ErrInvalidInput, source)
	}
	if date.IsZero() {
		date = time.Now()
	}

	p.printf("[2/%d] Diarizing transcript and identifying subject speaker...", totalSteps)
	transcript, subjectSpeaker, err := p.llm.DiarizeText(rawText, person.Name, context)
	if err != nil {
		return nil, err
	}

	return p.run(transcript, subjectSpeaker, person, date)
}

// run executes the shared stages. person is the snapshot taken before any
// write: the background auto-fill gate is evaluated against it, not against
// post-insert state.
func (p *Pipeline) run(transcript domain.Transcript, subjectSpeaker string, person *domain.Person, date time.Time) (*domain.Interaction, error) {
	firstInteraction := len(person.InteractionIDs) == 0
	needsBackground := firstInteraction && strings.TrimSpace(person.Background) == ""

	transcript = relabelSpeakers(transcript, subjectSpeaker, person.Name)

	p.printf("[3/%d] Analyzing interaction (focusing on %s's statements)...", totalSteps, person.Name)
	takeaways, tags, err := p.llm.Analyze(transcript, person.Type, person.Name)
	if err != nil {
		return nil, err
	}

	p.printf("[4/%d] Generating rolling update...", totalSteps)
	delta, updatedState, err := p.llm.Summarize(person.StateOfPlay, takeaways)
	if err != nil {
		return nil, err
	}

	p.printf("[5/%d] Storing interaction...", totalSteps)
	interaction, err := p.store.CreateInteraction(person.Name, date, transcript, takeaways, tags)
	if err != nil {
		return nil, err
	}

	p.printf("[6/%d] Extracting follow-ups...", totalSteps)
	items, err := p.llm.ExtractFollowups(transcript, person.Name)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		interactions, err := p.store.ListInteractions(person.Name)
		if err != nil {
			return nil, err
		}
		slug, ok := vfs.SlugFor(interactions, interaction.ID)
		if !ok {
			return nil, fmt.Errorf("interaction %d missing from slug map", interaction.ID)
		}
		if _, err := p.store.CreateFollowups(person.Name, interaction.ID, slug, items); err != nil {
			return nil, err
		}
		for _, item := range items {
			p.printf("    - %s", item)
		}
	} else {
		p.printf("    (no action items found)")
	}

	p.printf("[7/%d] Updating person state...", totalSteps)
	if err := p.store.UpdatePersonState(person.Name, updatedState, delta); err != nil {
		return nil, err
	}

	if needsBackground {
		p.printf("    Generating background from first interaction...")
		background, err := p.llm.GenerateBackground(person.Name, person.CurrentCompany, takeaways)
		if err != nil {
			return nil, err
		}
		if err := p.store.UpdatePersonBackground(person.Name, background); err != nil {
			return nil, err
		}
		p.printf("    Background set: %s", background)
	}

	p.printf("Done! Created interaction #%d", interaction.ID)
	return interaction, nil
}

// BackfillFollowups runs follow-up extraction over interactions that are
// already stored, without re-running the rest of the pipeline. slugs names
// the date slugs to process; nil means every interaction. Returns the number
// of follow-up items created.
func (p *Pipeline) BackfillFollowups(personName string, slugs []string) (int, error) {
	person, err := p.lookupPerson(personName)
	if err != nil {
		return 0, err
	}

	interactions, err := p.store.ListInteractions(person.Name)
	if err != nil {
		return 0, err
	}
	if len(interactions) == 0 {
		return 0, fmt.Errorf("%w: no interactions for %s", domain.ErrNotFound, person.Name)
	}

	slugMap := vfs.DateSlugs(interactions)
	if slugs == nil {
		for slug := range slugMap {
			slugs = append(slugs, slug)
		}
		sort.Strings(slugs)
	} else {
		for _, slug := range slugs {
			if _, ok := slugMap[slug]; !ok {
				return 0, fmt.Errorf("interaction %s/%s: %w", person.Name, slug, domain.ErrNotFound)
			}
		}
	}

	total := 0
	for _, slug := range slugs {
		ix := slugMap[slug]
		p.printf("Extracting follow-ups from %s...", slug)
		items, err := p.llm.ExtractFollowups(ix.Transcript, person.Name)
		if err != nil {
			return total, err
		}
		if len(items) == 0 {
			p.printf("    (no action items found)")
			continue
		}
		if _, err := p.store.CreateFollowups(person.Name, ix.ID, slug, items); err != nil {
			return total, err
		}
		for _, item := range items {
			p.printf("    - %s", item)
		}
		total += len(items)
	}
	return total, nil
}

func (p *Pipeline) lookupPerson(name string) (*domain.Person, error) {
	person, err := p.store.GetPerson(name)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, fmt.Errorf("person %q: %w (create them first with 'person create')", name, domain.ErrNotFound)
	}
	return person, nil
}

// relabelSpeakers maps the subject's speaker letter to the person's real
// name and every other letter to "Interviewer N", numbered in first-seen
// order. A letter always maps to the same label.
func relabelSpeakers(t domain.Transcript, subjectSpeaker, personName string) domain.Transcript {
	labels := make(map[string]string)
	interviewers := 0

	relabeled := make([]domain.Utterance, len(t.Utterances))
	for i, u := range t.Utterances {
		label, ok := labels[u.Speaker]
		if !ok {
			if u.Speaker == subjectSpeaker {
				label = personName
			} else {
				interviewers++
				label = fmt.Sprintf("Interviewer %d", interviewers)
			}
			labels[u.Speaker] = label
		}
		u.Speaker = label
		relabeled[i] = u
	}

	t.Utterances = relabeled
	return t
}
