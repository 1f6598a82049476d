package httpx

import (
	"net/http"

	"github.com/codesleeps/palmers/internal/server/services"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.users.Register(r.Context(), services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		h.writeServiceError(r.Context(), w, "register", err)
		return
	}

	h.cookies.Set(w, res.Token)
	writeSuccessMessage(w, http.StatusCreated, "User registered successfully",
		authResponse{User: newUserResponse(res.User), Token: res.Token})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(r.Context(), w, "login", err)
		return
	}

	h.cookies.Set(w, res.Token)
	writeSuccessMessage(w, http.StatusOK, "Login successful",
		authResponse{User: newUserResponse(res.User), Token: res.Token})
}

// logout clears the session cookie whether or not the presented token is
// still valid.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if id, ok := IdentityFromContext(r.Context()); ok {
		h.logger.Info(r.Context(), "user logged out", "user_id", id.ID)
	}
	h.cookies.Clear(w)
	writeSuccessMessage(w, http.StatusOK, "Logged out successfully", nil)
}

// me reports the caller's identity, or null for anonymous callers.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	var user any
	if id, ok := IdentityFromContext(r.Context()); ok {
		user = id
	}
	writeSuccess(w, http.StatusOK, map[string]any{"user": user})
}
