package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/campusfound/campusfound/internal/auth"
	"github.com/campusfound/campusfound/internal/contact"
	"github.com/campusfound/campusfound/internal/model"
	"github.com/campusfound/campusfound/internal/store"
	webembed "github.com/campusfound/campusfound/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"categories":  func() []string { return model.Categories },
		"typeName": func(t string) string {
			switch t {
			case model.ItemTypeLost:
				return "Lost"
			case model.ItemTypeFound:
				return "Found"
			default:
				return t
			}
		},
		"statusName": func(status string) string {
			switch status {
			case model.ItemStatusActive:
				return "Active"
			case model.ItemStatusClaimed:
				return "Claimed"
			case model.ItemStatusReturned:
				return "Returned"
			default:
				return status
			}
		},
		"prefName": func(pref string) string {
			switch pref {
			case model.ContactPrefEmail:
				return "Email"
			case model.ContactPrefPhone:
				return "Phone / WhatsApp"
			case model.ContactPrefChat:
				return "In-app chat"
			default:
				return pref
			}
		},
		"whatsappLink": contact.WhatsAppLink,
		"stars": func(rating int) string {
			if rating < 0 {
				rating = 0
			}
			if rating > 5 {
				rating = 5
			}
			return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
		},
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	// Read layout.
	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"login.html",
		"register.html",
		"home.html",
		"item_detail.html",
		"item_form.html",
		"dashboard.html",
		"inbox.html",
		"conversation.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	Error   string
	Success string
	Unread  int
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Templates *Templates
	JWTSecret string
}

// pageData builds the base page data for the current request, including the
// unread message badge for signed-in users.
func (s *Server) pageData(r *http.Request, title string) PageData {
	data := PageData{Title: title, User: GetWebClaims(r.Context())}
	if data.User != nil {
		unread, err := store.CountUnreadMessages(r.Context(), s.DB, data.User.UserID)
		if err != nil {
			slog.Error("failed to count unread messages", "error", err)
		}
		data.Unread = unread
	}
	return data
}
