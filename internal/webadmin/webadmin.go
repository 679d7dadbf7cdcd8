// ABOUTME: Admin web UI for lead management and conversation review
// ABOUTME: Password login with JWT session cookie, leads dashboard, users and transcripts

package webadmin

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/2389/parley/internal/auth"
	"github.com/2389/parley/internal/store"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "parley_admin_session"

	// SessionDuration is how long login sessions last
	SessionDuration = 24 * time.Hour

	// leadsPerPage is the dashboard page size
	leadsPerPage = 20

	// usersPerPage is the users list page size
	usersPerPage = 50
)

// Config holds admin UI configuration
type Config struct {
	// Password is the shared admin password, hashed at startup
	Password string
	// JWTSecret signs session cookies
	JWTSecret string
}

// Admin handles admin UI routes and authentication
type Admin struct {
	store        store.Store
	verifier     *auth.JWTVerifier
	passwordHash []byte
	logger       *slog.Logger
}

// New creates a new Admin handler. The configured password is bcrypt-hashed
// immediately so the plaintext is not retained.
func New(st store.Store, cfg Config) (*Admin, error) {
	if cfg.Password == "" {
		return nil, errors.New("admin password is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing admin password: %w", err)
	}

	return &Admin{
		store:        st,
		verifier:     auth.NewJWTVerifier([]byte(cfg.JWTSecret)),
		passwordHash: hash,
		logger:       slog.Default().With("component", "admin"),
	}, nil
}

// RegisterRoutes registers all admin routes on the given mux
func (a *Admin) RegisterRoutes(mux *http.ServeMux) {
	// Public routes (no auth required)
	mux.HandleFunc("GET /login", a.handleLoginPage)
	mux.HandleFunc("POST /login", a.handleLogin)
	mux.HandleFunc("GET /healthz", a.handleHealthz)

	// Protected routes (auth required)
	mux.HandleFunc("GET /", a.requireAuth(a.handleDashboard))
	mux.HandleFunc("POST /logout", a.requireAuth(a.handleLogout))
	mux.HandleFunc("POST /leads/{id}/status", a.requireAuth(a.handleLeadStatus))
	mux.HandleFunc("GET /users", a.requireAuth(a.handleUsersList))
	mux.HandleFunc("GET /users/{id}/transcript", a.requireAuth(a.handleTranscript))

	a.logger.Info("admin routes registered")
}

// requireAuth wraps a handler to require a valid session cookie
func (a *Admin) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if _, err := a.verifier.Verify(cookie.Value); err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next(w, r)
	}
}

func (a *Admin) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (a *Admin) handleLoginPage(w http.ResponseWriter, _ *http.Request) {
	a.renderLoginPage(w, "")
}

func (a *Admin) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.renderLoginPage(w, "Invalid form submission")
		return
	}

	password := r.PostFormValue("password")
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		a.logger.Warn("failed login attempt", "remote", r.RemoteAddr)
		a.renderLoginPage(w, "Invalid password")
		return
	}

	token, err := a.verifier.Generate("admin", SessionDuration)
	if err != nil {
		a.logger.Error("failed to generate session token", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionDuration.Seconds()),
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *Admin) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (a *Admin) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	filter := store.LeadFilter{
		Status: q.Get("status"),
		Search: q.Get("q"),
		Page:   page,
		Limit:  leadsPerPage,
	}

	result, err := a.store.ListLeads(r.Context(), filter)
	if err != nil {
		a.logger.Error("failed to list leads", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	a.renderDashboard(w, result, filter)
}

func (a *Admin) handleLeadStatus(w http.ResponseWriter, r *http.Request) {
	leadID := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	status := r.PostFormValue("status")
	if !store.ValidLeadStatus(status) {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	if err := a.store.UpdateLeadStatus(r.Context(), leadID, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		a.logger.Error("failed to update lead status", "error", err, "lead_id", leadID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	a.logger.Info("lead status updated", "lead_id", leadID, "status", status)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *Admin) handleUsersList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	users, err := a.store.ListUsers(r.Context(), usersPerPage, (page-1)*usersPerPage)
	if err != nil {
		a.logger.Error("failed to list users", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	total, err := a.store.CountUsers(r.Context())
	if err != nil {
		a.logger.Error("failed to count users", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	a.renderUsers(w, users, total, page)
}

func (a *Admin) handleTranscript(w http.ResponseWriter, r *http.Request) {
	telegramID := r.PathValue("id")

	user, err := a.store.GetUser(r.Context(), telegramID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		a.logger.Error("failed to load user", "error", err, "telegram_id", telegramID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	interactions, err := a.store.ListInteractionsByUser(r.Context(), telegramID, 100)
	if err != nil {
		a.logger.Error("failed to load interactions", "error", err, "telegram_id", telegramID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	a.renderTranscript(w, user, interactions)
}
