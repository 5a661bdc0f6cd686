package handlers

import (
	"net/http"

	"github.com/abrezinsky/jeopardy/internal/auth"
)

// LoginPageData holds data for the login template
type LoginPageData struct {
	Error string
}

// handleLoginPage renders the login form
func (h *Handlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if h.Auth.GetSessionFromRequest(r) {
		http.Redirect(w, r, "/admin", http.StatusFound)
		return
	}

	h.render(w, http.StatusOK, h.templates.AdminLogin, "", LoginPageData{})
}

// handleLogin processes login form submission
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	token, ok := h.Auth.Login(r.FormValue("password"))
	if !ok {
		h.Log.Warn("Admin login failed", "remote", r.RemoteAddr)
		h.render(w, http.StatusUnauthorized, h.templates.AdminLogin, "", LoginPageData{Error: "Invalid password"})
		return
	}

	auth.SetSessionCookie(w, token)
	http.Redirect(w, r, "/admin", http.StatusFound)
}

// handleLogout clears the session and redirects to login
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		h.Auth.Logout(cookie.Value)
	}

	auth.ClearSessionCookie(w)
	http.Redirect(w, r, "/admin/login", http.StatusFound)
}
