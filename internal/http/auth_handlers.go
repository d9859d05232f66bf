package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"universe/internal/apperr"
	"universe/internal/auth"
)

type registerResponse struct {
	Message    string `json:"message"`
	UserID     int64  `json:"userId"`
	EmailToken string `json:"emailToken,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	res, err := s.auth.Register(r.Context(), in)
	if err != nil {
		s.writeAppError(w, r, err, "Failed to register user")
		return
	}
	resp := registerResponse{Message: "User registered successfully", UserID: res.UserID}
	if s.cfg.ExposeEmailToken {
		resp.EmailToken = res.EmailToken
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	res, err := s.auth.Login(r.Context(), in)
	if err != nil {
		s.writeAppError(w, r, err, "Failed to login")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Login successful",
		"sessionToken": res.SessionToken,
		"expiresAt":    res.ExpiresAt.UTC(),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), bearerToken(r.Header.Get("Authorization"))); err != nil {
		s.writeAppError(w, r, err, "Failed to logout")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logout successful"})
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var in auth.VerifyEmailInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := s.auth.VerifyEmail(r.Context(), in); err != nil {
		s.writeAppError(w, r, err, "Failed to verify email")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Email verified successfully"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	user, err := s.auth.CurrentUser(r.Context(), identity.UserID)
	if err != nil {
		s.writeAppError(w, r, err, "Failed to get user info")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	token, err := s.auth.ResendVerification(r.Context(), identity.UserID)
	if err != nil {
		s.writeAppError(w, r, err, "Failed to resend verification")
		return
	}
	resp := map[string]string{"message": "Verification email sent"}
	if s.cfg.ExposeEmailToken {
		resp["emailToken"] = token
	}
	writeJSON(w, http.StatusOK, resp)
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

func (s *Server) handleSetUserActive(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil || userID <= 0 {
		fields := apperr.NewFields("Params validation error")
		fields.Add("userId", "Expected positive integer")
		s.writeAppError(w, r, fields.Err(), "")
		return
	}
	var req setActiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Active == nil {
		fields := apperr.NewFields("Validation error")
		fields.Add("active", "Required")
		s.writeAppError(w, r, fields.Err(), "")
		return
	}
	if err := s.auth.SetUserActive(r.Context(), userID, *req.Active); err != nil {
		s.writeAppError(w, r, err, "Failed to update user")
		return
	}
	msg := "User deactivated successfully"
	if *req.Active {
		msg = "User activated successfully"
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}
