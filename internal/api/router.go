package api

import (
	"database/sql"
	"net/http"

	"github.com/reclaim-dev/reclaim/internal/claims"
	"github.com/reclaim-dev/reclaim/internal/matching"
	"github.com/reclaim-dev/reclaim/internal/vault"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, cipher *vault.Cipher, ledger *matching.Ledger, claimsSvc *claims.Service) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	itemsHandler := &ItemsHandler{DB: db, Cipher: cipher, Ledger: ledger}
	matchesHandler := &MatchesHandler{DB: db}
	claimsHandler := &ClaimsHandler{DB: db, Service: claimsSvc}
	imagesHandler := &ImagesHandler{DB: db, Cipher: cipher}
	notificationsHandler := &NotificationsHandler{DB: db}
	chatHandler := &ChatHandler{DB: db, Cipher: cipher}
	usersHandler := &UsersHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)

	// Public: account creation and login.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Account.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Lost items.
	mux.Handle("POST /api/lost-items", authMW(http.HandlerFunc(itemsHandler.CreateLost)))
	mux.Handle("GET /api/lost-items", authMW(http.HandlerFunc(itemsHandler.ListLost)))

	// Found items. The plain image route serves the blur-masked public copy;
	// the original sits behind the privacy gate.
	mux.Handle("POST /api/found-items", authMW(http.HandlerFunc(itemsHandler.CreateFound)))
	mux.Handle("GET /api/found-items", authMW(http.HandlerFunc(itemsHandler.ListFound)))
	mux.Handle("GET /api/found-items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetMaskedImage)))
	mux.Handle("GET /api/found-items/{id}/image/original", authMW(http.HandlerFunc(imagesHandler.GetOriginal)))

	// Matches.
	mux.Handle("GET /api/matches", authMW(http.HandlerFunc(matchesHandler.List)))
	mux.Handle("GET /api/matches/{id}", authMW(http.HandlerFunc(matchesHandler.Get)))

	// Claims and the per-claim chat.
	mux.Handle("POST /api/claims", authMW(http.HandlerFunc(claimsHandler.Initiate)))
	mux.Handle("GET /api/claims", authMW(http.HandlerFunc(claimsHandler.ListMine)))
	mux.Handle("GET /api/claims/{id}", authMW(http.HandlerFunc(claimsHandler.Get)))
	mux.Handle("POST /api/claims/{id}/verify", authMW(http.HandlerFunc(claimsHandler.Verify)))
	mux.Handle("POST /api/claims/{id}/complete", authMW(http.HandlerFunc(claimsHandler.Complete)))
	mux.Handle("POST /api/claims/{id}/messages", authMW(http.HandlerFunc(chatHandler.Send)))
	mux.Handle("GET /api/claims/{id}/messages", authMW(http.HandlerFunc(chatHandler.List)))

	// Notifications.
	mux.Handle("GET /api/notifications", authMW(http.HandlerFunc(notificationsHandler.List)))
	mux.Handle("GET /api/notifications/unread-count", authMW(http.HandlerFunc(notificationsHandler.UnreadCount)))
	mux.Handle("POST /api/notifications/read-all", authMW(http.HandlerFunc(notificationsHandler.MarkAllRead)))
	mux.Handle("POST /api/notifications/{id}/read", authMW(http.HandlerFunc(notificationsHandler.MarkRead)))

	// Admin.
	mux.Handle("POST /api/claims/{id}/decision", authMW(RequireAdmin(http.HandlerFunc(claimsHandler.AdminDecide))))
	mux.Handle("GET /api/admin/claims", authMW(RequireAdmin(http.HandlerFunc(claimsHandler.ListReview))))
	mux.Handle("GET /api/admin/users", authMW(RequireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("PUT /api/admin/users/{id}/role", authMW(RequireAdmin(http.HandlerFunc(usersHandler.UpdateRole))))
	mux.Handle("DELETE /api/admin/users/{id}", authMW(RequireAdmin(http.HandlerFunc(usersHandler.Delete))))

	return mux
}
