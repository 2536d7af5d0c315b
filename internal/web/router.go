package web

import (
	"database/sql"
	"net/http"

	webembed "github.com/campusfound/campusfound/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, jwtSecret string) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Templates: templates,
		JWTSecret: jwtSecret,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(jwtSecret, db)
	optionalAuth := OptionalAuthMiddleware(jwtSecret, db)

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes. Browsing works without an account.
	mux.Handle("GET /{$}", optionalAuth(http.HandlerFunc(s.HomePage)))
	mux.Handle("GET /items/{id}", optionalAuth(http.HandlerFunc(s.ItemDetailPage)))
	mux.HandleFunc("GET /items/{id}/photo", s.ItemPhotoGet)

	mux.Handle("GET /login", optionalAuth(http.HandlerFunc(s.LoginPage)))
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.Handle("GET /register", optionalAuth(http.HandlerFunc(s.RegisterPage)))
	mux.HandleFunc("POST /register", s.RegisterSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /dashboard", cookieAuth(http.HandlerFunc(s.Dashboard)))

	mux.Handle("GET /items/new", cookieAuth(http.HandlerFunc(s.PostItemPage)))
	mux.Handle("POST /items", cookieAuth(http.HandlerFunc(s.PostItemSubmit)))
	mux.Handle("GET /items/{id}/edit", cookieAuth(http.HandlerFunc(s.ItemEditPage)))
	mux.Handle("POST /items/{id}", cookieAuth(http.HandlerFunc(s.ItemUpdateSubmit)))
	mux.Handle("POST /items/{id}/delete", cookieAuth(http.HandlerFunc(s.ItemDeleteSubmit)))
	mux.Handle("POST /items/{id}/claim", cookieAuth(http.HandlerFunc(s.ItemClaimSubmit)))
	mux.Handle("POST /items/{id}/return", cookieAuth(http.HandlerFunc(s.ItemReturnSubmit)))
	mux.Handle("POST /items/{id}/review", cookieAuth(http.HandlerFunc(s.ReviewSubmit)))
	mux.Handle("POST /items/{id}/message", cookieAuth(http.HandlerFunc(s.StartConversationSubmit)))

	mux.Handle("GET /messages", cookieAuth(http.HandlerFunc(s.InboxPage)))
	mux.Handle("GET /messages/{id}", cookieAuth(http.HandlerFunc(s.ConversationPage)))
	mux.Handle("POST /messages/{id}", cookieAuth(http.HandlerFunc(s.MessageSubmit)))

	return mux, nil
}
