// Package store is the SQLite storage layer for the rolodex.
package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pbaille/rolodex/internal/domain"
)

//go:embed schema.sql
var schema string

// Store handles database operations.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

var memDBSeq atomic.Int64

// NewMemory creates an in-memory Store, used by tests.
func NewMemory() (*Store, error) {
	// Each pooled connection to a plain ":memory:" DSN gets its own empty
	// database; a uniquely named shared-cache DSN makes every connection in
	// this store's pool see the same tables without sharing across stores.
	name := fmt.Sprintf("file:rolodex-mem-%d?mode=memory&cache=shared", memDBSeq.Add(1))
	return New(name)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ── Persons ──────────────────────────────────────────────────────

// CreatePerson inserts a person with optional connections to existing
// persons. Names may not contain underscores: the virtual filesystem maps
// spaces to underscores in path slugs and the mapping must stay reversible.
func (s *Store) CreatePerson(p domain.Person) (*domain.Person, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: person name is empty", domain.ErrInvalidInput)
	}
	if strings.Contains(p.Name, "_") {
		return nil, fmt.Errorf("%w: person name %q may not contain underscores", domain.ErrInvalidInput, p.Name)
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO persons
		 (name, current_company, type, background, linkedin_url, company_industry, company_revenue, company_headcount)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.CurrentCompany, string(p.Type), p.Background,
		p.LinkedInURL, p.CompanyIndustry, p.CompanyRevenue, p.CompanyHeadcount,
	)
	if err != nil {
		return nil, fmt.Errorf("insert person: %w", err)
	}

	for _, other := range p.Connections {
		if err := s.AddConnection(p.Name, other); err != nil {
			return nil, err
		}
	}

	return s.GetPerson(p.Name)
}

// DeletePerson removes a person and cascades to their interactions,
// followups, and connection edges.
func (s *Store) DeletePerson(name string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM followups WHERE person_name = ?", name); err != nil {
		return fmt.Errorf("delete followups: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM connections WHERE person_a = ? OR person_b = ?", name, name); err != nil {
		return fmt.Errorf("delete connections: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM interactions WHERE person_name = ?", name); err != nil {
		return fmt.Errorf("delete interactions: %w", err)
	}
	res, err := tx.Exec("DELETE FROM persons WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("person %q: %w", name, domain.ErrNotFound)
	}

	return tx.Commit()
}

// GetPerson returns a person by name, or (nil, nil) if they do not exist.
func (s *Store) GetPerson(name string) (*domain.Person, error) {
	row := s.db.QueryRow(
		`SELECT name, current_company, type, background, linkedin_url,
		        company_industry, company_revenue, company_headcount,
		        state_of_play, last_delta
		 FROM persons WHERE name = ?`, name)

	p, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get person: %w", err)
	}

	if err := s.attachRelations(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPersons returns all persons, optionally filtered by type. Passing
// PersonUntyped returns everyone.
func (s *Store) ListPersons(typeFilter domain.PersonType) ([]domain.Person, error) {
	var (
		rows *sql.Rows
		err  error
	)
	const cols = `SELECT name, current_company, type, background, linkedin_url,
	              company_industry, company_revenue, company_headcount,
	              state_of_play, last_delta FROM persons`
	if typeFilter != domain.PersonUntyped {
		rows, err = s.db.Query(cols+" WHERE type = ? ORDER BY name", string(typeFilter))
	} else {
		rows, err = s.db.Query(cols + " ORDER BY name")
	}
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var persons []domain.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		if err := s.attachRelations(p); err != nil {
			return nil, err
		}
		persons = append(persons, *p)
	}
	return persons, rows.Err()
}

// PersonFilter narrows SearchPersons. Zero values are ignored.
type PersonFilter struct {
	Type     domain.PersonType
	Company  string // substring
	Industry string // substring
	Text     string // substring across state_of_play and background
}

// SearchPersons returns persons matching every set filter field, ordered by
// name.
func (s *Store) SearchPersons(f PersonFilter) ([]domain.Person, error) {
	query := `SELECT name, current_company, type, background, linkedin_url,
	          company_industry, company_revenue, company_headcount,
	          state_of_play, last_delta FROM persons WHERE 1=1`
	var args []any

	if f.Type != domain.PersonUntyped {
		query += " AND type = ?"
		args = append(args, string(f.Type))
	}
	if f.Company != "" {
		query += " AND current_company LIKE ?"
		args = append(args, "%"+f.Company+"%")
	}
	if f.Industry != "" {
		query += " AND company_industry LIKE ?"
		args = append(args, "%"+f.Industry+"%")
	}
	if f.Text != "" {
		query += " AND (state_of_play LIKE ? OR background LIKE ?)"
		args = append(args, "%"+f.Text+"%", "%"+f.Text+"%")
	}
	query += " ORDER BY name"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search persons: %w", err)
	}
	defer rows.Close()

	var persons []domain.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		if err := s.attachRelations(p); err != nil {
			return nil, err
		}
		persons = append(persons, *p)
	}
	return persons, rows.Err()
}

// UpdatePersonState sets a person's rolling state_of_play and last_delta.
func (s *Store) UpdatePersonState(name, stateOfPlay, lastDelta string) error {
	_, err := s.db.Exec(
		"UPDATE persons SET state_of_play = ?, last_delta = ? WHERE name = ?",
		stateOfPlay, lastDelta, name,
	)
	if err != nil {
		return fmt.Errorf("update person state: %w", err)
	}
	return nil
}

// UpdatePersonBackground sets a person's background text.
func (s *Store) UpdatePersonBackground(name, background string) error {
	_, err := s.db.Exec("UPDATE persons SET background = ? WHERE name = ?", background, name)
	if err != nil {
		return fmt.Errorf("update person background: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(row scanner) (*domain.Person, error) {
	var p domain.Person
	var typ string
	err := row.Scan(&p.Name, &p.CurrentCompany, &typ, &p.Background,
		&p.LinkedInURL, &p.CompanyIndustry, &p.CompanyRevenue, &p.CompanyHeadcount,
		&p.StateOfPlay, &p.LastDelta)
	if err != nil {
		return nil, err
	}
	p.Type = domain.PersonType(typ)
	return &p, nil
}

// attachRelations fills interaction ids (ordered by date, ties by id) and
// sorted connection names.
func (s *Store) attachRelations(p *domain.Person) error {
	rows, err := s.db.Query(
		"SELECT id FROM interactions WHERE person_name = ? ORDER BY date, id", p.Name)
	if err != nil {
		return fmt.Errorf("list interaction ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan interaction id: %w", err)
		}
		p.InteractionIDs = append(p.InteractionIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	conns, err := s.Connections(p.Name)
	if err != nil {
		return err
	}
	p.Connections = conns
	return nil
}

// ── Connections ──────────────────────────────────────────────────

// AddConnection records an undirected edge between two persons. The edge is
// stored once, smaller name first.
func (s *Store) AddConnection(nameA, nameB string) error {
	if nameA == nameB {
		return fmt.Errorf("%w: cannot connect a person to themselves", domain.ErrInvalidInput)
	}
	a, b := orderPair(nameA, nameB)
	_, err := s.db.Exec("INSERT OR IGNORE INTO connections (person_a, person_b) VALUES (?, ?)", a, b)
	if err != nil {
		return fmt.Errorf("add connection: %w", err)
	}
	return nil
}

// RemoveConnection deletes the edge between two persons.
func (s *Store) RemoveConnection(nameA, nameB string) error {
	a, b := orderPair(nameA, nameB)
	res, err := s.db.Exec("DELETE FROM connections WHERE person_a = ? AND person_b = ?", a, b)
	if err != nil {
		return fmt.Errorf("remove connection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("connection %s <-> %s: %w", nameA, nameB, domain.ErrNotFound)
	}
	return nil
}

// Connections returns the sorted names connected to a person.
func (s *Store) Connections(name string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT person_a, person_b FROM connections WHERE person_a = ? OR person_b = ?",
		name, name,
	)
	if err != nil {
		return nil, fmt.Errorf("get connections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		if a == name {
			names = append(names, b)
		} else {
			names = append(names, a)
		}
	}
	sort.Strings(names)
	return names, rows.Err()
}

func orderPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// ── Interactions ─────────────────────────────────────────────────

// CreateInteraction inserts an interaction and returns it with its assigned id.
func (s *Store) CreateInteraction(personName string, date time.Time, transcript domain.Transcript, takeaways []string, tags []domain.Tag) (*domain.Interaction, error) {
	transcriptJSON, err := json.Marshal(transcript)
	if err != nil {
		return nil, fmt.Errorf("marshal transcript: %w", err)
	}
	takeawaysJSON, err := json.Marshal(takeaways)
	if err != nil {
		return nil, fmt.Errorf("marshal takeaways: %w", err)
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}

	res, err := s.db.Exec(
		"INSERT INTO interactions (person_name, date, transcript, takeaways, tags) VALUES (?, ?, ?, ?, ?)",
		personName, date.Format(time.RFC3339), string(transcriptJSON), string(takeawaysJSON), string(tagsJSON),
	)
	if err != nil {
		return nil, fmt.Errorf("insert interaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("interaction id: %w", err)
	}

	return &domain.Interaction{
		ID:         id,
		PersonName: personName,
		Date:       date,
		Transcript: transcript,
		Takeaways:  takeaways,
		Tags:       tags,
	}, nil
}

// GetInteraction returns an interaction by id, or (nil, nil) if absent.
func (s *Store) GetInteraction(id int64) (*domain.Interaction, error) {
	row := s.db.QueryRow(
		"SELECT id, person_name, date, transcript, takeaways, tags FROM interactions WHERE id = ?", id)
	ix, err := scanInteraction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get interaction: %w", err)
	}
	return ix, nil
}

// DeleteInteraction removes an interaction and its followups.
func (s *Store) DeleteInteraction(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM followups WHERE interaction_id = ?", id); err != nil {
		return fmt.Errorf("delete followups: %w", err)
	}
	res, err := tx.Exec("DELETE FROM interactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete interaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("interaction %d: %w", id, domain.ErrNotFound)
	}
	return tx.Commit()
}

// ListInteractions returns a person's interactions ordered by date, then id.
func (s *Store) ListInteractions(personName string) ([]domain.Interaction, error) {
	rows, err := s.db.Query(
		"SELECT id, person_name, date, transcript, takeaways, tags FROM interactions WHERE person_name = ? ORDER BY date, id",
		personName,
	)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()
	return collectInteractions(rows)
}

// InteractionsByTag returns every interaction carrying the given tag,
// ordered by date.
func (s *Store) InteractionsByTag(tag domain.Tag) ([]domain.Interaction, error) {
	rows, err := s.db.Query(
		"SELECT id, person_name, date, transcript, takeaways, tags FROM interactions ORDER BY date, id")
	if err != nil {
		return nil, fmt.Errorf("interactions by tag: %w", err)
	}
	defer rows.Close()

	all, err := collectInteractions(rows)
	if err != nil {
		return nil, err
	}

	var matched []domain.Interaction
	for _, ix := range all {
		for _, t := range ix.Tags {
			if t == tag {
				matched = append(matched, ix)
				break
			}
		}
	}
	return matched, nil
}

// SearchFilter narrows SearchInteractions. Zero values are ignored.
type SearchFilter struct {
	Tag        domain.Tag
	PersonType domain.PersonType
	Company    string
	PersonName string
	Text       string
	DateFrom   string // YYYY-MM-DD inclusive
	DateTo     string // YYYY-MM-DD inclusive
}

// SearchInteractions returns interactions matching every set filter field,
// ordered by date.
func (s *Store) SearchInteractions(f SearchFilter) ([]domain.Interaction, error) {
	query := `SELECT i.id, i.person_name, i.date, i.transcript, i.takeaways, i.tags
	          FROM interactions i JOIN persons p ON p.name = i.person_name WHERE 1=1`
	var args []any

	if f.PersonType != domain.PersonUntyped {
		query += " AND p.type = ?"
		args = append(args, string(f.PersonType))
	}
	if f.Company != "" {
		query += " AND p.current_company LIKE ?"
		args = append(args, "%"+f.Company+"%")
	}
	if f.PersonName != "" {
		query += " AND i.person_name LIKE ?"
		args = append(args, "%"+f.PersonName+"%")
	}
	if f.Text != "" {
		query += " AND (i.transcript LIKE ? OR i.takeaways LIKE ?)"
		args = append(args, "%"+f.Text+"%", "%"+f.Text+"%")
	}
	if f.DateFrom != "" {
		query += " AND i.date >= ?"
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		// RFC3339 dates sort lexicographically; bump the upper bound past
		// any time-of-day suffix on the final day.
		query += " AND i.date <= ?"
		args = append(args, f.DateTo+"T23:59:59Z")
	}
	query += " ORDER BY i.date, i.id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search interactions: %w", err)
	}
	defer rows.Close()

	all, err := collectInteractions(rows)
	if err != nil {
		return nil, err
	}
	if f.Tag == "" {
		return all, nil
	}

	var matched []domain.Interaction
	for _, ix := range all {
		for _, t := range ix.Tags {
			if t == f.Tag {
				matched = append(matched, ix)
				break
			}
		}
	}
	return matched, nil
}

// SearchText performs a full-text LIKE search across transcripts and
// takeaways.
func (s *Store) SearchText(query string) ([]domain.Interaction, error) {
	return s.SearchInteractions(SearchFilter{Text: query})
}

// AggregateTags returns tag frequencies across interactions, optionally
// restricted by person type or company substring.
func (s *Store) AggregateTags(personType domain.PersonType, company string) (map[domain.Tag]int, error) {
	interactions, err := s.SearchInteractions(SearchFilter{PersonType: personType, Company: company})
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.Tag]int)
	for _, ix := range interactions {
		for _, t := range ix.Tags {
			counts[t]++
		}
	}
	return counts, nil
}

// Segment is one row of an AggregateSegments rollup.
type Segment struct {
	Value        string
	People       int
	Interactions int
}

// segmentColumns maps the AggregateSegments grouping field to its column.
var segmentColumns = map[string]string{
	"type":     "p.type",
	"industry": "p.company_industry",
	"company":  "p.current_company",
}

// AggregateSegments groups persons by type, industry, or company and counts
// people and interactions per group, optionally restricted by person type.
// Groups are ordered by interaction count, largest first.
func (s *Store) AggregateSegments(by string, personType domain.PersonType) ([]Segment, error) {
	col, ok := segmentColumns[by]
	if !ok {
		return nil, fmt.Errorf("%w: unknown segment field %q (want type, industry, or company)", domain.ErrInvalidInput, by)
	}

	query := fmt.Sprintf(
		`SELECT %s, COUNT(DISTINCT p.name), COUNT(i.id)
		 FROM persons p LEFT JOIN interactions i ON i.person_name = p.name`, col)
	var args []any
	if personType != domain.PersonUntyped {
		query += " WHERE p.type = ?"
		args = append(args, string(personType))
	}
	query += fmt.Sprintf(" GROUP BY %s ORDER BY COUNT(i.id) DESC, %s", col, col)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate segments: %w", err)
	}
	defer rows.Close()

	var segments []Segment
	for rows.Next() {
		var seg Segment
		if err := rows.Scan(&seg.Value, &seg.People, &seg.Interactions); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

func scanInteraction(row scanner) (*domain.Interaction, error) {
	var ix domain.Interaction
	var dateStr, transcriptJSON, takeawaysJSON, tagsJSON string
	if err := row.Scan(&ix.ID, &ix.PersonName, &dateStr, &transcriptJSON, &takeawaysJSON, &tagsJSON); err != nil {
		return nil, err
	}

	date, err := time.Parse(time.RFC3339, dateStr)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", dateStr, err)
	}
	ix.Date = date

	if err := json.Unmarshal([]byte(transcriptJSON), &ix.Transcript); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	if err := json.Unmarshal([]byte(takeawaysJSON), &ix.Takeaways); err != nil {
		return nil, fmt.Errorf("parse takeaways: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &ix.Tags); err != nil {
		return nil, fmt.Errorf("parse tags: %w", err)
	}
	return &ix, nil
}

func collectInteractions(rows *sql.Rows) ([]domain.Interaction, error) {
	var interactions []domain.Interaction
	for rows.Next() {
		ix, err := scanInteraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		interactions = append(interactions, *ix)
	}
	return interactions, rows.Err()
}

// ── Followups ────────────────────────────────────────────────────

// CreateFollowups bulk-inserts open followup items for an interaction.
func (s *Store) CreateFollowups(personName string, interactionID int64, dateSlug string, items []string) ([]domain.Followup, error) {
	if len(items) == 0 {
		return nil, nil
	}

	var followups []domain.Followup
	for _, item := range items {
		res, err := s.db.Exec(
			"INSERT INTO followups (person_name, interaction_id, date_slug, item, status) VALUES (?, ?, ?, ?, 'open')",
			personName, interactionID, dateSlug, item,
		)
		if err != nil {
			return nil, fmt.Errorf("insert followup: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("followup id: %w", err)
		}
		followups = append(followups, domain.Followup{
			ID:            id,
			PersonName:    personName,
			InteractionID: interactionID,
			DateSlug:      dateSlug,
			Item:          item,
			Status:        domain.FollowupOpen,
		})
	}
	return followups, nil
}

// OpenFollowups returns a person's open followups, ordered by id.
func (s *Store) OpenFollowups(personName string) ([]domain.Followup, error) {
	rows, err := s.db.Query(
		"SELECT id, person_name, interaction_id, date_slug, item, status FROM followups WHERE person_name = ? AND status = 'open' ORDER BY id",
		personName,
	)
	if err != nil {
		return nil, fmt.Errorf("open followups: %w", err)
	}
	defer rows.Close()

	var followups []domain.Followup
	for rows.Next() {
		var f domain.Followup
		if err := rows.Scan(&f.ID, &f.PersonName, &f.InteractionID, &f.DateSlug, &f.Item, &f.Status); err != nil {
			return nil, fmt.Errorf("scan followup: %w", err)
		}
		followups = append(followups, f)
	}
	return followups, rows.Err()
}

// CompleteFollowup transitions a followup to complete and returns it.
func (s *Store) CompleteFollowup(id int64) (*domain.Followup, error) {
	var f domain.Followup
	err := s.db.QueryRow(
		"SELECT id, person_name, interaction_id, date_slug, item, status FROM followups WHERE id = ?", id,
	).Scan(&f.ID, &f.PersonName, &f.InteractionID, &f.DateSlug, &f.Item, &f.Status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("followup %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get followup: %w", err)
	}

	if _, err := s.db.Exec("UPDATE followups SET status = 'complete' WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("complete followup: %w", err)
	}
	f.Status = domain.FollowupComplete
	return &f, nil
}
