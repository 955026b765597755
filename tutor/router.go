package tutor

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lessonforge/tutorkit/subscription"
)

// userIDHeader carries the authenticated user's ID, set by the
// platform's auth layer in front of this module. Authentication itself
// is a trusted-caller concern.
const userIDHeader = "X-User-ID"

type askRequest struct {
	Message string `json:"message"`
}

type askResponse struct {
	Reply     string `json:"reply"`
	Remaining int    `json:"remaining"`
}

type turnResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Router mounts the tutor gate's HTTP surface.
//
//	r.Mount("/tutor", tutor.Router(svc))
func Router(svc *Service) chi.Router {
	r := chi.NewRouter()

	r.Post("/ask", handleAsk(svc))
	r.Get("/history", handleHistory(svc))
	r.Delete("/history", handleClearHistory(svc))

	return r
}

func handleAsk(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requestUserID(w, r)
		if !ok {
			return
		}

		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		answer, err := svc.Ask(r.Context(), userID, req.Message)
		if err != nil {
			writeAskError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, askResponse{
			Reply:     answer.Reply,
			Remaining: answer.Remaining,
		})
	}
}

func handleHistory(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requestUserID(w, r)
		if !ok {
			return
		}

		turns := svc.History(userID)
		out := make([]turnResponse, 0, len(turns))
		for _, t := range turns {
			out = append(out, turnResponse{Role: string(t.Role), Content: t.Content})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleClearHistory(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requestUserID(w, r)
		if !ok {
			return
		}

		svc.ClearHistory(userID)
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeAskError(w http.ResponseWriter, err error) {
	var quotaErr *QuotaExceededError

	switch {
	case errors.Is(err, ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message must not be empty"})
	case errors.Is(err, ErrUnentitled):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "subscription does not grant tutor access"})
	case errors.As(err, &quotaErr):
		retryAfter := int(quotaErr.RetryAfter.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
	case errors.Is(err, subscription.ErrStoreFailure):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "subscription store unavailable"})
	case errors.Is(err, ErrProviderFailure):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "AI provider failure"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func requestUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get(userIDHeader)
	if raw == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user identity"})
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid user identity"})
		return uuid.Nil, false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
