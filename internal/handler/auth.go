package handler

import (
	"net/http"
)

// authLogin redirects the browser to the vendor's OAuth consent page.
func (h *Handler) authLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.auth.AuthorizeURL(r.URL.Query().Get("state")), http.StatusTemporaryRedirect)
}

// authLoginURL returns the consent URL for frontends that open it themselves.
func (h *Handler) authLoginURL(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"url": h.auth.AuthorizeURL(r.URL.Query().Get("state")),
	})
}

// authCallback exchanges the authorization code the vendor redirected back
// with. Tokens are persisted by the client; none of them appear in the
// response.
func (h *Handler) authCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		respondMessage(w, http.StatusBadRequest, "missing authorization code", nil)
		return
	}

	if _, err := h.auth.ExchangeCode(r.Context(), code); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "mall connected", nil)
}

// authRefresh forces a token refresh. Normally unnecessary, requests refresh
// on 401 by themselves; exposed for operational recovery.
func (h *Handler) authRefresh(w http.ResponseWriter, r *http.Request) {
	if _, err := h.auth.Refresh(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "token refreshed", nil)
}
