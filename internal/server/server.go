package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mpavliv/respectled/internal/backup"
	"github.com/mpavliv/respectled/internal/config"
	"github.com/mpavliv/respectled/internal/handler"
	"github.com/mpavliv/respectled/internal/imagehost"
	"github.com/mpavliv/respectled/internal/ledger"
	"github.com/mpavliv/respectled/internal/middleware"
	"github.com/mpavliv/respectled/internal/push"
	"github.com/mpavliv/respectled/internal/store"
	ws "github.com/mpavliv/respectled/internal/websocket"
)

type Server struct {
	db     *sql.DB
	hub    *ws.Hub
	ledger *ledger.Service

	authH         *handler.AuthHandler
	actionH       *handler.ActionHandler
	questH        *handler.QuestHandler
	shopH         *handler.ShopHandler
	notificationH *handler.NotificationHandler
	dashboardH    *handler.DashboardHandler
	userH         *handler.UserHandler
	pushH         *handler.PushHandler
	backupH       *handler.BackupHandler

	sessionStore  *store.SessionStore
	userStore     *store.UserStore
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	questStore := store.NewQuestStore(db)
	shopStore := store.NewShopStore(db)
	transactionStore := store.NewTransactionStore(db)
	notificationStore := store.NewNotificationStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	pushSvc := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	notifier := push.NewAdminNotifier(pushSvc, pushStore, logger.With("component", "push"))

	ledgerSvc := ledger.New(db, notifier, logger.With("component", "ledger"))

	images := imagehost.NewClient(cfg.ImageHostURL, cfg.ImageHostKey)

	backupMgr := backup.NewManager(backup.Config{
		Endpoint:      cfg.BackupEndpoint,
		Bucket:        cfg.BackupBucket,
		Region:        cfg.BackupRegion,
		AccessKey:     cfg.BackupAccessKey,
		SecretKey:     cfg.BackupSecretKey,
		Passphrase:    cfg.BackupPassphrase,
		DBPath:        cfg.DBPath,
		Interval:      cfg.BackupInterval,
		RetentionDays: cfg.BackupRetention,
	}, db, backupStore, logger.With("component", "backup"))

	return &Server{
		db:     db,
		hub:    hub,
		ledger: ledgerSvc,

		authH:         handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		actionH:       handler.NewActionHandler(ledgerSvc, hub, logger.With("component", "action")),
		questH:        handler.NewQuestHandler(ledgerSvc, questStore, userStore, hub, logger.With("component", "quest")),
		shopH:         handler.NewShopHandler(ledgerSvc, shopStore, userStore, images, hub, logger.With("component", "shop")),
		notificationH: handler.NewNotificationHandler(notificationStore, logger.With("component", "notification")),
		dashboardH:    handler.NewDashboardHandler(userStore, transactionStore, questStore, shopStore, logger.With("component", "dashboard")),
		userH:         handler.NewUserHandler(userStore, ledgerSvc, hub, logger.With("component", "user")),
		pushH:         handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler")),
		backupH:       handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup_handler")),

		sessionStore:  sessionStore,
		userStore:     userStore,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		logger:        logger,
	}
}

// Ledger returns the ledger service for startup tasks.
func (s *Server) Ledger() *ledger.Service {
	return s.ledger
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /api/auth/users", s.authH.LoginUsers)
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes wrapped with RequireAuth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Live updates
	mux.Handle("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	// Dashboard
	mux.HandleFunc("GET /api/leaderboard", s.dashboardH.Leaderboard)
	mux.HandleFunc("GET /api/activity", s.dashboardH.RecentActivity)

	// Quests
	mux.HandleFunc("GET /api/quests", s.questH.List)
	mux.HandleFunc("POST /api/quests/{id}/submit", s.questH.Submit)

	// Shop
	mux.HandleFunc("GET /api/shop/items", s.shopH.ListItems)
	mux.HandleFunc("POST /api/shop/items/{id}/buy", s.shopH.Buy)
	mux.HandleFunc("GET /api/shop/purchases", s.shopH.MyPurchases)

	// Notifications
	mux.HandleFunc("GET /api/notifications", s.notificationH.List)
	mux.HandleFunc("GET /api/notifications/unread", s.notificationH.UnreadCount)
	mux.HandleFunc("POST /api/notifications/{id}/read", s.notificationH.MarkRead)
	mux.HandleFunc("POST /api/notifications/read-all", s.notificationH.MarkAllRead)

	// Push subscriptions
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)

	// Admin routes
	admin := http.NewServeMux()
	admin.HandleFunc("POST /api/admin/respect", s.actionH.Respect)
	admin.HandleFunc("POST /api/admin/disrespect", s.actionH.Disrespect)

	admin.HandleFunc("GET /api/admin/users", s.userH.List)
	admin.HandleFunc("POST /api/admin/users", s.userH.Create)
	admin.HandleFunc("POST /api/admin/users/{id}/recalculate", s.userH.Recalculate)

	admin.HandleFunc("GET /api/admin/quests", s.questH.ListAll)
	admin.HandleFunc("POST /api/admin/quests", s.questH.Create)
	admin.HandleFunc("PUT /api/admin/quests/{id}/active", s.questH.SetActive)
	admin.HandleFunc("DELETE /api/admin/quests/{id}", s.questH.Delete)
	admin.HandleFunc("GET /api/admin/quests/pending", s.questH.Pending)
	admin.HandleFunc("POST /api/admin/completions/{id}/approve", s.questH.Approve)
	admin.HandleFunc("POST /api/admin/completions/{id}/reject", s.questH.Reject)

	admin.HandleFunc("POST /api/admin/shop/items", s.shopH.CreateItem)
	admin.HandleFunc("DELETE /api/admin/shop/items/{id}", s.shopH.DeleteItem)
	admin.HandleFunc("GET /api/admin/shop/pending", s.shopH.Pending)
	admin.HandleFunc("POST /api/admin/purchases/{id}/approve", s.shopH.Approve)
	admin.HandleFunc("POST /api/admin/purchases/{id}/reject", s.shopH.Reject)

	admin.HandleFunc("GET /api/admin/pending-counts", s.dashboardH.PendingCounts)

	admin.HandleFunc("GET /api/admin/backups", s.backupH.List)
	admin.HandleFunc("POST /api/admin/backups", s.backupH.RunNow)
	admin.HandleFunc("GET /api/admin/backups/{id}/download", s.backupH.Download)

	mux.Handle("/api/admin/", middleware.RequireAdmin(admin))
}
