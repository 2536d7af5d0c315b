package api

import (
	"database/sql"
	"net/http"

	"github.com/campusfound/campusfound/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	reviewsHandler := &ReviewsHandler{DB: db}
	convsHandler := &ConversationsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	optionalAuthMW := OptionalAuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: registration, login, and the browse surface. The listing
	// endpoint takes optional auth so mine=true can resolve the caller.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("GET /api/items", optionalAuthMW(http.HandlerFunc(itemsHandler.List)))
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("GET /api/items/{id}/photo", itemsHandler.GetPhoto)
	mux.HandleFunc("GET /api/items/{id}/reviews", reviewsHandler.List)

	// Authenticated.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("GET /api/users/me", authMW(http.HandlerFunc(usersHandler.Me)))

	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("PUT /api/items/{id}/photo", authMW(http.HandlerFunc(itemsHandler.UploadPhoto)))
	mux.Handle("POST /api/items/{id}/claim", authMW(http.HandlerFunc(itemsHandler.Claim)))
	mux.Handle("POST /api/items/{id}/return", authMW(http.HandlerFunc(itemsHandler.Return)))
	mux.Handle("POST /api/items/{id}/reviews", authMW(http.HandlerFunc(reviewsHandler.Create)))

	mux.Handle("GET /api/conversations", authMW(http.HandlerFunc(convsHandler.List)))
	mux.Handle("POST /api/items/{id}/conversations", authMW(http.HandlerFunc(convsHandler.Start)))
	mux.Handle("GET /api/conversations/{id}", authMW(http.HandlerFunc(convsHandler.Get)))
	mux.Handle("POST /api/conversations/{id}/messages", authMW(http.HandlerFunc(convsHandler.SendMessage)))

	// Admin.
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("PUT /api/users/{id}/verify", authMW(requireAdmin(http.HandlerFunc(usersHandler.Verify))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	return mux
}
