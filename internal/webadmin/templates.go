// ABOUTME: Template rendering functions for the admin UI
// ABOUTME: Loads templates from embedded filesystem and renders them

package webadmin

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/2389/parley/internal/store"
)

// Template data types
type loginData struct {
	Title string
	Error string
}

type dashboardData struct {
	Title    string
	Leads    []*store.Lead
	Total    int
	Page     int
	Pages    int
	PrevPage int
	NextPage int
	Status   string
	Search   string
	Statuses []string
}

type usersData struct {
	Title string
	Users []*store.User
	Total int
	Page  int
}

type transcriptEntry struct {
	UserText      string
	AssistantHTML template.HTML
	CreatedAt     string
}

type transcriptData struct {
	Title   string
	User    *store.User
	Entries []transcriptEntry
}

// renderLoginPage renders the login page
func (a *Admin) renderLoginPage(w http.ResponseWriter, errorMsg string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/login.html"))

	data := loginData{
		Title: "Login",
		Error: errorMsg,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		a.logger.Error("failed to render login page", "error", err)
	}
}

// renderDashboard renders the leads dashboard
func (a *Admin) renderDashboard(w http.ResponseWriter, page *store.LeadPage, filter store.LeadFilter) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/dashboard.html"))

	data := dashboardData{
		Title:    "Leads",
		Leads:    page.Leads,
		Total:    page.Total,
		Page:     filter.Page,
		Pages:    page.Pages,
		PrevPage: filter.Page - 1,
		NextPage: filter.Page + 1,
		Status:   filter.Status,
		Search:   filter.Search,
		Statuses: []string{
			store.LeadStatusNew,
			store.LeadStatusContacted,
			store.LeadStatusCallback,
			store.LeadStatusCompleted,
			store.LeadStatusNotInterested,
		},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		a.logger.Error("failed to render dashboard", "error", err)
	}
}

// renderUsers renders the users list page
func (a *Admin) renderUsers(w http.ResponseWriter, users []*store.User, total, page int) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/users.html"))

	data := usersData{
		Title: "Users",
		Users: users,
		Total: total,
		Page:  page,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		a.logger.Error("failed to render users page", "error", err)
	}
}

// renderTranscript renders one user's interaction log, with assistant
// replies converted from Markdown to HTML.
func (a *Admin) renderTranscript(w http.ResponseWriter, user *store.User, interactions []*store.Interaction) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/transcript.html"))

	entries := make([]transcriptEntry, 0, len(interactions))
	for _, in := range interactions {
		entries = append(entries, transcriptEntry{
			UserText:      in.UserText,
			AssistantHTML: renderMarkdown(in.AssistantText),
			CreatedAt:     in.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	data := transcriptData{
		Title:   "Transcript",
		User:    user,
		Entries: entries,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		a.logger.Error("failed to render transcript", "error", err)
	}
}

// renderMarkdown converts assistant Markdown to HTML, falling back to the
// escaped source text when conversion fails.
func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		escaped := template.HTMLEscapeString(src)
		return template.HTML("<pre>" + escaped + "</pre>")
	}
	return template.HTML(buf.String())
}
