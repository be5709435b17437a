package api

import (
	"context"
	"errors"
	"net/http"

	"luigui/internal/backend"
	"luigui/internal/core"
	"luigui/internal/logger"
	"luigui/internal/service"
)

type AuthHandler struct {
	client   *backend.Client
	sessions *SessionManager
}

func NewAuthHandler(client *backend.Client, sessions *SessionManager) *AuthHandler {
	return &AuthHandler{client: client, sessions: sessions}
}

// requestState is the per-request session established by Guard.
type requestState struct {
	store   *CookieSession
	session *service.Session
}

type stateKey struct{}

func stateFrom(ctx context.Context) *requestState {
	st, _ := ctx.Value(stateKey{}).(*requestState)
	return st
}

// Guard initializes the session and applies the routing decision: auth
// pages for anonymous users, the shell for signed-in users, redirects
// otherwise.
func (h *AuthHandler) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := h.sessions.Open(w, r)
		sess := service.NewSession(h.client, store)
		if err := sess.Init(r.Context()); err != nil {
			logger.Error.Printf("Session init failed: %v", err)
		}

		decision := service.Decide(r.URL.Path, sess.State())
		switch decision.Rendering {
		case service.RenderLoading:
			renderHTML(w, http.StatusOK, loadingPage())
			return
		case service.RenderRedirect:
			http.Redirect(w, r, decision.Target, http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), stateKey{}, &requestState{store: store, session: sess})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, http.StatusOK, loginPage(r, "", ""))
}

func (h *AuthHandler) DoLogin(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	st := stateFrom(r.Context())
	if err := st.session.Login(r.Context(), email, password); err != nil {
		logger.Info.Printf("Login failed for %s: %v", email, err)
		renderHTML(w, http.StatusOK, loginPage(r, email, loginError(err)))
		return
	}

	logger.Info.Printf("User %s signed in", email)
	http.Redirect(w, r, service.HomePath, http.StatusSeeOther)
}

func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, http.StatusOK, registerPage(r, "", "", ""))
}

func (h *AuthHandler) DoRegister(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	email := r.FormValue("email")
	password := r.FormValue("password")

	if password != r.FormValue("confirm") {
		renderHTML(w, http.StatusOK, registerPage(r, name, email, "Passwords do not match."))
		return
	}

	st := stateFrom(r.Context())
	if err := st.session.Register(r.Context(), name, email, password); err != nil {
		logger.Info.Printf("Registration failed for %s: %v", email, err)
		renderHTML(w, http.StatusOK, registerPage(r, name, email, loginError(err)))
		return
	}

	logger.Info.Printf("User %s registered", email)
	http.Redirect(w, r, service.HomePath, http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	st.session.Logout(r.Context())
	http.Redirect(w, r, service.LoginPath, http.StatusSeeOther)
}

// loginError renders a login or registration failure.
func loginError(err error) string {
	msg := core.UserMessage(err)
	if msg == "" || msg == core.GenericFailure || errors.Is(err, core.ErrNoToken) {
		return "Sign-in failed. Check your e-mail and password."
	}
	return msg
}
