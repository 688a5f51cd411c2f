package domain

import (
	"fmt"
	"time"
)

// PersonType categorizes why a person is being tracked.
type PersonType string

const (
	PersonCustomer   PersonType = "customer"
	PersonInvestor   PersonType = "investor"
	PersonCompetitor PersonType = "competitor"
	PersonUntyped    PersonType = ""
)

// ParsePersonType validates a person type string. The empty string is the
// untyped variant and is always accepted.
func ParsePersonType(s string) (PersonType, error) {
	switch PersonType(s) {
	case PersonCustomer, PersonInvestor, PersonCompetitor, PersonUntyped:
		return PersonType(s), nil
	}
	return "", fmt.Errorf("%w: person type %q (must be customer, investor, or competitor)", ErrInvalidInput, s)
}

// Tag is one of the fixed thematic tags assigned to interactions.
type Tag string

const (
	TagPricing     Tag = "pricing"
	TagProduct     Tag = "product"
	TagGTM         Tag = "gtm"
	TagCompetitors Tag = "competitors"
	TagMarket      Tag = "market"
)

// Tags lists every valid tag in display order.
var Tags = []Tag{TagPricing, TagProduct, TagGTM, TagCompetitors, TagMarket}

// TagDescriptions maps each tag to its one-line meaning.
var TagDescriptions = map[Tag]string{
	TagPricing:     "Pricing models, willingness to pay, cost concerns",
	TagProduct:     "Features, UX, functionality, bugs, requests",
	TagGTM:         "Go-to-market strategy, sales, distribution, channels",
	TagCompetitors: "Competitive landscape, alternatives, switching",
	TagMarket:      "Industry trends, market size, timing, macro factors",
}

// ParseTag validates a tag string against the fixed taxonomy.
func ParseTag(s string) (Tag, error) {
	switch Tag(s) {
	case TagPricing, TagProduct, TagGTM, TagCompetitors, TagMarket:
		return Tag(s), nil
	}
	return "", fmt.Errorf("%w: tag %q (must be one of pricing, product, gtm, competitors, market)", ErrInvalidInput, s)
}

// Utterance is one speaker turn in a transcript. Start and End are
// millisecond offsets when the transcript came from audio, zero otherwise.
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Start   int    `json:"start,omitempty"`
	End     int    `json:"end,omitempty"`
}

// Transcript holds the full text of a conversation plus its speaker-tagged
// utterances. Utterances may be empty for raw text imported without
// diarization.
type Transcript struct {
	Text       string      `json:"text"`
	Utterances []Utterance `json:"utterances"`
}

// Person is a tracked individual. Name is the primary key used everywhere.
type Person struct {
	Name             string     `json:"name"`
	CurrentCompany   string     `json:"current_company"`
	Type             PersonType `json:"type"`
	Background       string     `json:"background"`
	LinkedInURL      string     `json:"linkedin_url,omitempty"`
	CompanyIndustry  string     `json:"company_industry,omitempty"`
	CompanyRevenue   string     `json:"company_revenue,omitempty"`
	CompanyHeadcount string     `json:"company_headcount,omitempty"`
	StateOfPlay      string     `json:"state_of_play"`
	LastDelta        string     `json:"last_delta"`
	InteractionIDs   []int64    `json:"interaction_ids"`
	Connections      []string   `json:"connections"`
}

// Interaction is one recorded conversation with a person. Immutable once
// created, except for deletion.
type Interaction struct {
	ID         int64      `json:"id"`
	PersonName string     `json:"person_name"`
	Date       time.Time  `json:"date"`
	Transcript Transcript `json:"transcript"`
	Takeaways  []string   `json:"takeaways"`
	Tags       []Tag      `json:"tags"`
}

// Followup statuses.
const (
	FollowupOpen     = "open"
	FollowupComplete = "complete"
)

// Followup is an open action item derived from one interaction. DateSlug is
// a snapshot of the interaction's slug at creation time and is not recomputed
// if sibling interactions are later added or deleted.
type Followup struct {
	ID            int64  `json:"id"`
	PersonName    string `json:"person_name"`
	InteractionID int64  `json:"interaction_id"`
	DateSlug      string `json:"date_slug"`
	Item          string `json:"item"`
	Status        string `json:"status"`
}
