package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/medportal/libs/httpx"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/directory"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/medapi"
)

func (h *PortalHandler) Profile(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	switch r.Method {
	case http.MethodGet:
		user, err := h.api.GetUser(r.Context(), sess.Token, sess.User.ID)
		if err != nil {
			h.writeUpstreamError(w, r, "get profile", err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, user)

	case http.MethodPut:
		var update medapi.ProfileUpdate
		if err := httpx.DecodeJSON(r, &update); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		if err := h.api.UpdateUser(r.Context(), sess.Token, sess.User.ID, update); err != nil {
			h.writeUpstreamError(w, r, "update profile", err)
			return
		}
		user, err := h.api.GetUser(r.Context(), sess.Token, sess.User.ID)
		if err != nil {
			h.writeUpstreamError(w, r, "get profile", err)
			return
		}
		sess.User = user
		h.saveSession(r, sess)
		httpx.WriteJSON(w, http.StatusOK, user)

	case http.MethodDelete:
		if err := h.api.DeleteUser(r.Context(), sess.Token, sess.User.ID); err != nil {
			h.writeUpstreamError(w, r, "delete profile", err)
			return
		}
		h.endSession(r, sess)
		h.logger.Info("account deleted", "user_id", sess.User.ID)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Services is public: the catalog carries no patient data.
func (h *PortalHandler) Services(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	httpx.WriteJSON(w, http.StatusOK, directory.Services(q.Get("specialty"), q.Get("q")))
}
