package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleResolveInvite resolves an opaque invite token to the album it grants
// access to. It is anonymous so a recipient can see the album before signing
// up. A missing or dangling token answers 404; an expired token answers 410
// so clients can tell "ask for a new invite" apart from "bad link".
func (a *API) handleResolveInvite(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if token == "" {
		respondError(w, http.StatusBadRequest, errors.New("token is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	invite, err := a.store.GetInviteByToken(ctx, token)
	switch {
	case errors.Is(err, ErrInviteNotFound):
		respondError(w, http.StatusNotFound, ErrInviteNotFound)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	if time.Now().UTC().After(invite.ExpiresAt) {
		respondError(w, http.StatusGone, ErrInviteExpired)
		return
	}

	album, err := a.store.GetAlbum(ctx, invite.AlbumID)
	switch {
	case errors.Is(err, ErrAlbumNotFound):
		// Token rows can outlive a deleted album. To the caller that is the
		// same as an unknown token.
		respondError(w, http.StatusNotFound, ErrInviteNotFound)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, http.StatusOK, AlbumInvite{
		AlbumID:   album.ID,
		Name:      album.Name,
		Type:      album.Type,
		Role:      invite.Role,
		ExpiresAt: invite.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// handleCreateInvite mints a new invite token for an album. Only the album
// owner may invite. The response includes a rendered email body the caller
// can forward as-is.
func (a *API) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	albumID, err := uuid.Parse(chi.URLParam(r, "albumID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid album id"))
		return
	}

	var req struct {
		Role     string `json:"role"`
		TTLHours int    `json:"ttl_hours"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Role == "" {
		req.Role = "member"
	}

	caller, ok := callerID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, ErrSessionInvalid)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	album, err := a.store.GetAlbum(ctx, albumID)
	switch {
	case errors.Is(err, ErrAlbumNotFound):
		respondError(w, http.StatusNotFound, ErrAlbumNotFound)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if album.OwnerID != caller {
		respondError(w, http.StatusForbidden, errors.New("only the album owner can create invites"))
		return
	}

	ttl := a.config.InviteTTL
	if req.TTLHours > 0 {
		ttl = time.Duration(req.TTLHours) * time.Hour
	}

	invite, err := a.store.CreateInvite(ctx, InviteToken{
		AlbumID:   album.ID,
		Token:     uuid.NewString(),
		Role:      req.Role,
		ExpiresAt: time.Now().UTC().Add(ttl),
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	email, err := a.renderer.Render("invite_email.tmpl", map[string]any{
		"AlbumName": album.Name,
		"Role":      invite.Role,
		"InviteURL": fmt.Sprintf("%s/v1/invite/%s", strings.TrimRight(a.config.APIBase, "/"), invite.Token),
		"ExpiresAt": invite.ExpiresAt.Format(time.RFC3339),
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	a.publishJSON(r.Context(), inviteCreatedTopic, map[string]any{
		"invite_id": invite.ID,
		"album_id":  album.ID,
		"role":      invite.Role,
	})

	respondJSON(w, http.StatusOK, map[string]any{
		"invite": invite,
		"email":  email,
	})
}
