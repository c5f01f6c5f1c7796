package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/medportal/libs/httpx"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/medapi"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginResponse struct {
	SessionID string      `json:"session_id"`
	TokenType string      `json:"token_type"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      medapi.User `json:"user"`
}

func (h *PortalHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password required", http.StatusBadRequest)
		return
	}

	res, err := h.api.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if medapi.IsRejection(err) || errors.Is(err, medapi.ErrUnauthorized) || errors.Is(err, medapi.ErrNotFound) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.writeUpstreamError(w, r, "login", err)
		return
	}

	sess, err := session.New(res.Token, res.User, h.now(), h.maxTTL)
	if err != nil {
		http.Error(w, "token already expired", http.StatusUnauthorized)
		return
	}
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.logger.Error("session save failed", "err", err)
		http.Error(w, "failed to start session", http.StatusServiceUnavailable)
		return
	}
	h.logger.Info("session started", "session_id", sess.ID, "user_id", sess.User.ID)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		SessionID: sess.ID,
		TokenType: "Bearer",
		ExpiresAt: sess.ExpiresAt,
		User:      sess.User,
	})
}

func (h *PortalHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "name, email and password required", http.StatusBadRequest)
		return
	}

	err := h.api.Register(r.Context(), medapi.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     strings.TrimSpace(req.Role),
	})
	if err != nil {
		if errors.Is(err, medapi.ErrConflict) {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		h.writeUpstreamError(w, r, "register", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}

func (h *PortalHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	sess := sessionFrom(r.Context())
	h.endSession(r, sess)
	w.WriteHeader(http.StatusNoContent)
}

// Me refreshes the cached user. A token the medical API no longer accepts ends the session.
func (h *PortalHandler) Me(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	sess := sessionFrom(r.Context())
	user, err := h.api.Me(r.Context(), sess.Token)
	if err != nil {
		if errors.Is(err, medapi.ErrUnauthorized) {
			h.endSession(r, sess)
			http.Error(w, "session expired", http.StatusUnauthorized)
			return
		}
		h.writeUpstreamError(w, r, "me", err)
		return
	}
	sess.User = user
	h.saveSession(r, sess)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *PortalHandler) endSession(r *http.Request, sess session.Session) {
	if err := h.sessions.Delete(r.Context(), sess.ID); err != nil {
		h.logger.Warn("session delete failed", "session_id", sess.ID, "err", err)
	}
	h.tracker.Forget(sess.ID)
}

// saveSession keeps the cached user fresh. The remaining lifetime is unchanged.
func (h *PortalHandler) saveSession(r *http.Request, sess session.Session) {
	if sess.Expired(h.now()) {
		return
	}
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.logger.Warn("session refresh failed", "session_id", sess.ID, "err", err)
	}
}
