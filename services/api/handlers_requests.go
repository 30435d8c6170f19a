package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleSubmitRequest files a join request for a class. A user holds at most
// one request per class: pending and approved requests block resubmission,
// while a rejected request is replaced in place and returns to pending.
func (a *API) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	albumID, err := uuid.Parse(chi.URLParam(r, "albumID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid album id"))
		return
	}
	classID, err := uuid.Parse(chi.URLParam(r, "classID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid class id"))
		return
	}

	var req struct {
		DisplayName string `json:"display_name"`
		Email       string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		respondError(w, http.StatusBadRequest, errors.New("display_name is required"))
		return
	}

	caller, ok := callerID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, ErrSessionInvalid)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	class, err := a.store.GetClass(ctx, classID)
	switch {
	case errors.Is(err, ErrClassNotFound):
		respondError(w, http.StatusNotFound, ErrClassNotFound)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if class.AlbumID != albumID {
		respondError(w, http.StatusNotFound, ErrClassNotFound)
		return
	}

	existing, err := a.store.GetRequestByClassAndUser(ctx, class.ID, caller)
	switch {
	case errors.Is(err, ErrRequestNotFound):
		created, err := a.store.CreateRequest(ctx, AccessRequest{
			AlbumID:     class.AlbumID,
			ClassID:     class.ID,
			UserID:      caller,
			DisplayName: req.DisplayName,
			Email:       req.Email,
			Status:      RequestStatusPending,
		})
		switch {
		case errors.Is(err, ErrDuplicateRequest):
			// Lost a race against a concurrent submission from the same user.
			respondError(w, http.StatusConflict, ErrDuplicateRequest)
			return
		case err != nil:
			respondError(w, http.StatusInternalServerError, err)
			return
		}
		a.publishJSON(r.Context(), requestSubmittedTopic, map[string]any{
			"request_id": created.ID,
			"album_id":   created.AlbumID,
			"class_id":   created.ClassID,
		})
		respondJSON(w, http.StatusOK, map[string]any{"request": created})
	case err != nil:
		respondError(w, http.StatusInternalServerError, err)
	default:
		if existing.Status != RequestStatusRejected {
			respondError(w, http.StatusConflict, ErrDuplicateRequest)
			return
		}

		existing.DisplayName = req.DisplayName
		existing.Email = req.Email
		existing.Status = RequestStatusPending
		existing.RespondedAt = nil

		updated, err := a.store.UpdateRequest(ctx, existing)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}
		a.publishJSON(r.Context(), requestSubmittedTopic, map[string]any{
			"request_id": updated.ID,
			"album_id":   updated.AlbumID,
			"class_id":   updated.ClassID,
		})
		respondJSON(w, http.StatusOK, map[string]any{"request": updated})
	}
}

// handleMyRequest returns the caller's own join request for a class, or
// {"request": null} when none exists. No request is a normal outcome for a
// first-time visitor, not an error, so the status is 200 either way.
func (a *API) handleMyRequest(w http.ResponseWriter, r *http.Request) {
	if _, err := uuid.Parse(chi.URLParam(r, "albumID")); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid album id"))
		return
	}
	classID, err := uuid.Parse(chi.URLParam(r, "classID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid class id"))
		return
	}

	caller, ok := callerID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, ErrSessionInvalid)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	req, err := a.store.GetRequestByClassAndUser(ctx, classID, caller)
	switch {
	case errors.Is(err, ErrRequestNotFound):
		respondJSON(w, http.StatusOK, map[string]any{"request": nil})
	case err != nil:
		respondError(w, http.StatusInternalServerError, err)
	default:
		respondJSON(w, http.StatusOK, map[string]any{"request": req})
	}
}

func (a *API) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	a.respondToRequest(w, r, RequestStatusApproved)
}

func (a *API) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	a.respondToRequest(w, r, RequestStatusRejected)
}

// respondToRequest applies an owner's decision to a pending request. An
// approval also records album membership. Capacity is not enforced here;
// the admission reconciler flags albums that went over their limit.
func (a *API) respondToRequest(w http.ResponseWriter, r *http.Request, status string) {
	requestID, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid request id"))
		return
	}

	caller, ok := callerID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, ErrSessionInvalid)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	req, err := a.store.GetRequest(ctx, requestID)
	switch {
	case errors.Is(err, ErrRequestNotFound):
		respondError(w, http.StatusNotFound, ErrRequestNotFound)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	album, err := a.store.GetAlbum(ctx, req.AlbumID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if album.OwnerID != caller {
		respondError(w, http.StatusForbidden, errors.New("only the album owner can respond to requests"))
		return
	}
	if req.Status != RequestStatusPending {
		respondError(w, http.StatusConflict, errors.New("request already responded to"))
		return
	}

	now := time.Now().UTC()
	req.Status = status
	req.RespondedAt = &now

	updated, err := a.store.UpdateRequest(ctx, req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	topic := requestRejectedTopic
	if status == RequestStatusApproved {
		topic = requestApprovedTopic
		if err := a.store.AddMember(ctx, Member{
			AlbumID: updated.AlbumID,
			UserID:  updated.UserID,
			Role:    "member",
		}); err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}
	}

	a.publishJSON(r.Context(), topic, map[string]any{
		"request_id": updated.ID,
		"album_id":   updated.AlbumID,
		"class_id":   updated.ClassID,
		"user_id":    updated.UserID,
	})

	respondJSON(w, http.StatusOK, map[string]any{"request": updated})
}
