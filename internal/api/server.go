// Package api exposes the rolodex over HTTP, including the chat assistant.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pbaille/rolodex/internal/domain"
	"github.com/pbaille/rolodex/internal/store"
)

// Server handles HTTP requests for the rolodex API.
type Server struct {
	store *store.Store
	addr  string
	model string
}

// New creates a new API server. model is the Anthropic model used by the
// chat endpoint.
func New(s *store.Store, addr, model string) *Server {
	return &Server{store: s, addr: addr, model: model}
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	fmt.Printf("Starting server on %s\n", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

// Handler builds the routing table with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Persons
	mux.HandleFunc("GET /api/persons", s.listPersons)
	mux.HandleFunc("POST /api/persons", s.createPerson)
	mux.HandleFunc("GET /api/persons/{name}", s.getPerson)
	mux.HandleFunc("DELETE /api/persons/{name}", s.deletePerson)

	// Interactions
	mux.HandleFunc("GET /api/interactions/{id}", s.getInteraction)
	mux.HandleFunc("DELETE /api/interactions/{id}", s.deleteInteraction)

	// Followups and connections
	mux.HandleFunc("GET /api/followups/{name}", s.getFollowups)
	mux.HandleFunc("POST /api/followups/{id}/complete", s.completeFollowup)
	mux.HandleFunc("GET /api/connections/{name}", s.getConnections)

	// Search and stats
	mux.HandleFunc("GET /api/search", s.search)
	mux.HandleFunc("GET /api/stats", s.stats)

	// Chat assistant
	mux.HandleFunc("POST /api/chat", s.chat)

	// Health check
	mux.HandleFunc("GET /health", s.health)

	return withRequestID(withCORS(mux))
}

// withCORS adds CORS headers for frontend development.
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

// withRequestID tags each response so log lines can be correlated.
func withRequestID(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", uuid.New().String())
		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// personSummary is the list-view shape of a person.
type personSummary struct {
	Name             string `json:"name"`
	CurrentCompany   string `json:"current_company"`
	Type             string `json:"type"`
	InteractionCount int    `json:"interaction_count"`
}

func summarize(p domain.Person) personSummary {
	return personSummary{
		Name:             p.Name,
		CurrentCompany:   p.CurrentCompany,
		Type:             string(p.Type),
		InteractionCount: len(p.InteractionIDs),
	}
}

func (s *Server) listPersons(w http.ResponseWriter, r *http.Request) {
	typeFilter, err := domain.ParsePersonType(r.URL.Query().Get("type"))
	if err != nil {
		writeErr(w, err)
		return
	}

	persons, err := s.store.ListPersons(typeFilter)
	if err != nil {
		writeErr(w, err)
		return
	}

	results := make([]personSummary, 0, len(persons))
	for _, p := range persons {
		results = append(results, summarize(p))
	}
	writeJSON(w, http.StatusOK, results)
}

// CreatePersonRequest is the request body for creating a person.
type CreatePersonRequest struct {
	Name             string   `json:"name"`
	CurrentCompany   string   `json:"current_company"`
	Type             string   `json:"type,omitempty"`
	Background       string   `json:"background,omitempty"`
	LinkedInURL      string   `json:"linkedin_url,omitempty"`
	CompanyIndustry  string   `json:"company_industry,omitempty"`
	CompanyRevenue   string   `json:"company_revenue,omitempty"`
	CompanyHeadcount string   `json:"company_headcount,omitempty"`
	Connections      []string `json:"connections,omitempty"`
}

func (s *Server) createPerson(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.CurrentCompany) == "" {
		writeError(w, http.StatusBadRequest, "name and current_company are required")
		return
	}
	ptype, err := domain.ParsePersonType(req.Type)
	if err != nil {
		writeErr(w, err)
		return
	}

	person, err := s.store.CreatePerson(domain.Person{
		Name:             req.Name,
		CurrentCompany:   req.CurrentCompany,
		Type:             ptype,
		Background:       req.Background,
		LinkedInURL:      req.LinkedInURL,
		CompanyIndustry:  req.CompanyIndustry,
		CompanyRevenue:   req.CompanyRevenue,
		CompanyHeadcount: req.CompanyHeadcount,
		Connections:      req.Connections,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, person)
}

func (s *Server) getPerson(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	person, err := s.store.GetPerson(name)
	if err != nil {
		writeErr(w, err)
		return
	}
	if person == nil {
		writeError(w, http.StatusNotFound, "person not found")
		return
	}

	interactions, err := s.store.ListInteractions(name)
	if err != nil {
		writeErr(w, err)
		return
	}

	summaries := make([]map[string]any, 0, len(interactions))
	for _, ix := range interactions {
		summaries = append(summaries, map[string]any{
			"id":        ix.ID,
			"date":      ix.Date.Format("2006-01-02"),
			"takeaways": ix.Takeaways,
			"tags":      ix.Tags,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"person":       person,
		"interactions": summaries,
	})
}

func (s *Server) deletePerson(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePerson(r.PathValue("name")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) getInteraction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid interaction id")
		return
	}
	interaction, err := s.store.GetInteraction(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if interaction == nil {
		writeError(w, http.StatusNotFound, "interaction not found")
		return
	}
	writeJSON(w, http.StatusOK, interaction)
}

func (s *Server) deleteInteraction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid interaction id")
		return
	}
	if err := s.store.DeleteInteraction(id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) getFollowups(w http.ResponseWriter, r *http.Request) {
	followups, err := s.store.OpenFollowups(r.PathValue("name"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if followups == nil {
		followups = []domain.Followup{}
	}
	writeJSON(w, http.StatusOK, followups)
}

func (s *Server) completeFollowup(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid followup id")
		return
	}
	followup, err := s.store.CompleteFollowup(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, followup)
}

func (s *Server) getConnections(w http.ResponseWriter, r *http.Request) {
	connections, err := s.store.Connections(r.PathValue("name"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if connections == nil {
		connections = []string{}
	}
	writeJSON(w, http.StatusOK, connections)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	interactions, err := s.store.SearchText(query)
	if err != nil {
		writeErr(w, err)
		return
	}

	results := make([]map[string]any, 0, len(interactions))
	for _, ix := range interactions {
		results = append(results, map[string]any{
			"id":          ix.ID,
			"person_name": ix.PersonName,
			"date":        ix.Date.Format("2006-01-02"),
			"takeaways":   ix.Takeaways,
			"tags":        ix.Tags,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "query": query})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	persons, err := s.store.ListPersons(domain.PersonUntyped)
	if err != nil {
		writeErr(w, err)
		return
	}
	tagCounts, err := s.store.AggregateTags(domain.PersonUntyped, "")
	if err != nil {
		writeErr(w, err)
		return
	}

	totalInteractions := 0
	totalFollowups := 0
	typeCounts := map[string]int{}
	for _, p := range persons {
		totalInteractions += len(p.InteractionIDs)
		t := string(p.Type)
		if t == "" {
			t = "untyped"
		}
		typeCounts[t]++

		followups, err := s.store.OpenFollowups(p.Name)
		if err != nil {
			writeErr(w, err)
			return
		}
		totalFollowups += len(followups)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_persons":        len(persons),
		"total_interactions":   totalInteractions,
		"total_open_followups": totalFollowups,
		"type_counts":          typeCounts,
		"tag_counts":           tagCounts,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeErr maps domain errors onto HTTP statuses: NotFound -> 404,
// InvalidInput -> 400, everything else -> 500.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
