package api

import (
	"errors"
	"net/http"
	"strings"
)

// handleCreateLead captures a showroom visitor. Anonymous on purpose; the
// funnel starts before sign-up.
func (a *API) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email   string         `json:"email"`
		Source  string         `json:"source"`
		Details map[string]any `json:"details"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, errors.New("a valid email is required"))
		return
	}
	if req.Details == nil {
		req.Details = map[string]any{}
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	lead, err := a.store.CreateLead(ctx, Lead{
		Email:   req.Email,
		Source:  req.Source,
		Details: req.Details,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"lead": lead})
}
