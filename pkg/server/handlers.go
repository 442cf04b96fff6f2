package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/openai/openai-go"

	"github.com/bert143-oss/email-scribe-connect/pkg/gmail"
	"github.com/bert143-oss/email-scribe-connect/pkg/types"
)

type fetchEmailsRequest struct {
	AccessToken string `json:"accessToken"`
	MaxResults  int    `json:"maxResults"`
}

type fetchEmailsResponse struct {
	Messages []types.Email `json:"messages"`
}

type analyzeEmailsRequest struct {
	AccessToken string        `json:"accessToken"`
	Emails      []types.Email `json:"emails"`
}

type analyzeEmailsResponse struct {
	PrioritizedEmails []types.PrioritizedEmail `json:"prioritizedEmails"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFetchEmails(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With("request_id", uuid.NewString())

	var req fetchEmailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AccessToken == "" {
		writeError(w, http.StatusBadRequest, "accessToken is required")
		return
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = s.fetchLimit
	}

	emails, err := s.gmail.WithLogger(logger).ListMessages(r.Context(), req.AccessToken, maxResults)
	if err != nil {
		logger.Error("Failed to fetch emails", "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	logger.Info("Fetched emails", "count", len(emails))
	writeJSON(w, http.StatusOK, fetchEmailsResponse{Messages: emails})
}

func (s *Server) handleAnalyzeEmails(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With("request_id", uuid.NewString())

	var req analyzeEmailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AccessToken == "" {
		writeError(w, http.StatusBadRequest, "accessToken is required")
		return
	}
	if len(req.Emails) == 0 {
		writeError(w, http.StatusBadRequest, "emails must not be empty")
		return
	}

	prioritized, err := s.prioritizer.Prioritize(r.Context(), req.Emails)
	if err != nil {
		logger.Error("Failed to prioritize emails", "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	logger.Info("Prioritized emails", "count", len(prioritized))
	writeJSON(w, http.StatusOK, analyzeEmailsResponse{PrioritizedEmails: prioritized})
}

// statusForError picks the response status for a pipeline failure. Upstream
// failures keep their original status code, everything else is a 500.
func statusForError(err error) int {
	if errors.Is(err, gmail.ErrMissingToken) {
		return http.StatusBadRequest
	}
	var gmailErr *gmail.APIError
	if errors.As(err, &gmailErr) {
		return gmailErr.StatusCode
	}
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return openaiErr.StatusCode
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
