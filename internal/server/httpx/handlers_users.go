package httpx

import (
	"net/http"

	"github.com/codesleeps/palmers/internal/server/models"
)

type profileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	user, err := h.users.Profile(r.Context(), id.ID)
	if err != nil {
		h.writeServiceError(r.Context(), w, "get profile", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"user": newUserResponse(user)})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req profileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), id.ID, models.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		h.writeServiceError(r.Context(), w, "update profile", err)
		return
	}
	writeSuccessMessage(w, http.StatusOK, "Profile updated successfully", map[string]any{"user": newUserResponse(user)})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req passwordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.users.ChangePassword(r.Context(), id.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeServiceError(r.Context(), w, "change password", err)
		return
	}
	writeSuccessMessage(w, http.StatusOK, "Password updated successfully", nil)
}
