package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/pbaille/rolodex/internal/domain"
	"github.com/pbaille/rolodex/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s, ":0", "claude-sonnet-4-20250514"), s
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reqBody)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func seedPerson(t *testing.T, s *store.Store, name, company string, ptype domain.PersonType) {
	t.Helper()
	if _, err := s.CreatePerson(domain.Person{Name: name, CurrentCompany: company, Type: ptype}); err != nil {
		t.Fatalf("seed person: %v", err)
	}
}

func seedInteraction(t *testing.T, s *store.Store, person, dateStr string, takeaways []string, tags []domain.Tag) int64 {
	t.Helper()
	d, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	ix, err := s.CreateInteraction(person, d, domain.Transcript{Text: "transcript body"}, takeaways, tags)
	if err != nil {
		t.Fatalf("seed interaction: %v", err)
	}
	return ix.ID
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestListPersons(t *testing.T) {
	srv, s := newTestServer(t)
	seedPerson(t, s, "Alice", "Acme", domain.PersonCustomer)
	seedPerson(t, s, "Bob", "Initech", domain.PersonInvestor)

	rec := doRequest(t, srv, "GET", "/api/persons", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	persons := decodeJSON[[]personSummary](t, rec)
	if len(persons) != 2 {
		t.Fatalf("got %d persons", len(persons))
	}
	if persons[0].Name != "Alice" || persons[1].Name != "Bob" {
		t.Errorf("order = %s, %s", persons[0].Name, persons[1].Name)
	}

	rec = doRequest(t, srv, "GET", "/api/persons?type=investor", nil)
	persons = decodeJSON[[]personSummary](t, rec)
	if len(persons) != 1 || persons[0].Name != "Bob" {
		t.Errorf("filtered = %+v", persons)
	}

	rec = doRequest(t, srv, "GET", "/api/persons?type=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad type filter status = %d", rec.Code)
	}
}

func TestCreatePerson(t *testing.T) {
	srv, s := newTestServer(t)

	rec := doRequest(t, srv, "POST", "/api/persons", CreatePersonRequest{
		Name:           "Jane Doe",
		CurrentCompany: "Acme",
		Type:           "customer",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	person, err := s.GetPerson("Jane Doe")
	if err != nil || person == nil {
		t.Fatalf("person not stored: %v", err)
	}

	// Missing required fields.
	rec = doRequest(t, srv, "POST", "/api/persons", CreatePersonRequest{Name: "X"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing company status = %d", rec.Code)
	}

	// Underscores are rejected by the store.
	rec = doRequest(t, srv, "POST", "/api/persons", CreatePersonRequest{
		Name: "Jane_Doe", CurrentCompany: "Acme",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("underscore name status = %d", rec.Code)
	}
}

func TestGetPerson(t *testing.T) {
	srv, s := newTestServer(t)
	seedPerson(t, s, "Jane Doe", "Acme", domain.PersonCustomer)
	seedInteraction(t, s, "Jane Doe", "2025-09-05", []string{"Wants SSO"}, []domain.Tag{domain.TagProduct})

	rec := doRequest(t, srv, "GET", "/api/persons/Jane%20Doe", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeJSON[map[string]json.RawMessage](t, rec)
	if _, ok := body["person"]; !ok {
		t.Error("response missing person")
	}
	var summaries []map[string]any
	if err := json.Unmarshal(body["interactions"], &summaries); err != nil {
		t.Fatalf("decode interactions: %v", err)
	}
	if len(summaries) != 1 || summaries[0]["date"] != "2025-09-05" {
		t.Errorf("interactions = %+v", summaries)
	}

	rec = doRequest(t, srv, "GET", "/api/persons/Nobody", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("absent person status = %d", rec.Code)
	}
}

func TestDeletePerson(t *testing.T) {
	srv, s := newTestServer(t)
	seedPerson(t, s, "Jane Doe", "Acme", domain.PersonUntyped)

	rec := doRequest(t, srv, "DELETE", "/api/persons/Jane%20Doe", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = doRequest(t, srv, "DELETE", "/api/persons/Jane%20Doe", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", rec.Code)
	}
}

func TestGetInteraction(t *testing.T) {
	srv, s := newTestServer(t)
	seedPerson(t, s, "Jane Doe", "Acme", domain.PersonUntyped)
	id := seedInteraction(t, s, "Jane Doe", "2025-09-05", []string{"Wants SSO"}, nil)

	rec := doRequest(t, srv, "GET", "/api/interactions/"+itoa(id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	ix := decodeJSON[domain.Interaction](t, rec)
	if ix.ID != id || ix.PersonName != "Jane Doe" {
		t.Errorf("interaction = %+v", ix)
	}

	rec = doRequest(t, srv, "GET", "/api/interactions/9999", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("absent status = %d", rec.Code)
	}
	rec = doRequest(t, srv, "GET", "/api/interactions/notanumber", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", rec.Code)
	}
}

func TestFollowupEndpoints(t *testing.T) {
	srv, s := newTestServer(t)
	seedPerson(t, s, "Jane Doe", "Acme", domain.PersonUntyped)
	id := seedInteraction(t, s, "Jane Doe", "2025-09-05", nil, nil)
	created, err := s.CreateFollowups("Jane Doe", id, "2025-09-05", []string{"send deck"})
	if err != nil {
		t.Fatalf("seed followups: %v", err)
	}

	rec := doRequest(t, srv, "GET", "/api/followups/Jane%20Doe", nil)
	followups := decodeJSON[[]domain.Followup](t, rec)
	if len(followups) != 1 || followups[0].Item != "send deck" {
		t.Errorf("followups = %+v", followups)
	}

	rec = doRequest(t, srv, "POST", "/api/followups/"+itoa(created[0].ID)+"/complete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d", rec.Code)
	}
	done := decodeJSON[domain.Followup](t, rec)
	if done.Status != domain.FollowupComplete {
		t.Errorf("status = %q", done.Status)
	}

	rec = doRequest(t, srv, "POST", "/api/followups/9999/complete", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("absent complete status = %d", rec.Code)
	}

	// Person with no followups gets an empty list, not null.
	rec = doRequest(t, srv, "GET", "/api/followups/Jane%20Doe", nil)
	if body := rec.Body.String(); body == "null\n" {
		t.Error("expected empty array, got null")
	}
}

func TestSearchEndpoint(t *testing.T) {
	srv, s := newTestServer(t)
	seedPerson(t, s, "Jane Doe", "Acme", domain.PersonUntyped)
	seedInteraction(t, s, "Jane Doe", "2025-09-05", []string{"Budget approved"}, nil)

	rec := doRequest(t, srv, "GET", "/api/search?q=Budget", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeJSON[map[string]json.RawMessage](t, rec)
	var results []map[string]any
	if err := json.Unmarshal(body["results"], &results); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("results = %+v", results)
	}

	rec = doRequest(t, srv, "GET", "/api/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing q status = %d", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, s := newTestServer(t)
	seedPerson(t, s, "Alice", "Acme", domain.PersonCustomer)
	seedPerson(t, s, "Bob", "Initech", domain.PersonUntyped)
	id := seedInteraction(t, s, "Alice", "2025-09-05", nil, []domain.Tag{domain.TagPricing})
	if _, err := s.CreateFollowups("Alice", id, "2025-09-05", []string{"x"}); err != nil {
		t.Fatalf("seed followups: %v", err)
	}

	rec := doRequest(t, srv, "GET", "/api/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	stats := decodeJSON[map[string]any](t, rec)
	if stats["total_persons"].(float64) != 2 {
		t.Errorf("total_persons = %v", stats["total_persons"])
	}
	if stats["total_interactions"].(float64) != 1 {
		t.Errorf("total_interactions = %v", stats["total_interactions"])
	}
	if stats["total_open_followups"].(float64) != 1 {
		t.Errorf("total_open_followups = %v", stats["total_open_followups"])
	}
	typeCounts := stats["type_counts"].(map[string]any)
	if typeCounts["customer"].(float64) != 1 || typeCounts["untyped"].(float64) != 1 {
		t.Errorf("type_counts = %v", typeCounts)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/api/persons", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
