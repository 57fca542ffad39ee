package server

import (
	"net/http"
	"time"

	"manualdesk/internal/accounts"
	"manualdesk/internal/config"
	"manualdesk/internal/handlers"
	"manualdesk/internal/manuals"
	"manualdesk/internal/middleware"
	"manualdesk/internal/models"
	"manualdesk/internal/reviews"
	"manualdesk/internal/taxonomy"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const sessionCookie = "manualdesk_session"

// Deps are the connections the router wires into the services.
// Redis is optional.
type Deps struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.CSRFHeader, "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-Session-Remaining", "X-Session-Warning", "X-Session-Expired", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookie, store))

	users := accounts.NewService(deps.DB)
	h := handlers.New(handlers.Settings{
		SessionTTL:     cfg.SessionTTL,
		SessionWarning: cfg.SessionWarning,
		SecureCookies:  cfg.SecureCookies,
	}, users, manuals.NewService(deps.DB), reviews.NewService(deps.DB), taxonomy.NewService(deps.DB))

	r.GET("/health", handlers.Health(deps.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api",
		middleware.SessionTimeout(middleware.SessionTimeoutConfig{
			TTL:     cfg.SessionTTL,
			Warning: cfg.SessionWarning,
			Passive: []string{"/api/auth/session"},
			Public:  []string{"/api/auth/login", "/api/auth/register", "/api/auth/logout", "/api/auth/csrf"},
		}),
		middleware.InjectUser(users),
		middleware.CSRF(cfg.CSRFEnabled),
		middleware.PasswordChangeGate("/api/auth"),
	)

	// AUTH
	auth := api.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", middleware.LoginThrottle(deps.Redis, cfg.LoginMaxFailures, cfg.LoginLockout), h.Login)
	auth.POST("/logout", h.Logout)
	auth.GET("/csrf", h.CSRF)

	session := auth.Group("", middleware.RequireAuth())
	session.GET("/me", h.Me)
	session.GET("/profile", h.Profile)
	session.PATCH("/profile", h.UpdateProfile)
	session.POST("/password/change", h.ChangePassword)
	session.GET("/first-login", h.FirstLoginStatus)
	session.POST("/first-login", h.FirstLogin)
	session.POST("/extend-session", h.ExtendSession)
	session.GET("/session", h.SessionStatus)

	authed := api.Group("", middleware.RequireAuth())

	// ПОЛЬЗОВАТЕЛИ
	authed.GET("/users", h.ListUsers)
	authed.POST("/users", middleware.RequireRole(models.RoleAdmin), h.CreateUser)
	authed.PATCH("/users/:id/role", middleware.RequireRole(models.RoleAdmin), h.SetUserRole)

	// КАТЕГОРИИ И ТЕГИ: менять и удалять может только админ, это проверяет сервис
	for path, routes := range map[string]handlers.TaxonomyRoutes{
		"/categories": h.Categories(),
		"/tags":       h.Tags(),
	} {
		authed.GET(path, routes.List)
		authed.POST(path, routes.Create)
		authed.GET(path+"/:id", routes.Get)
		authed.PATCH(path+"/:id", routes.Update)
		authed.DELETE(path+"/:id", routes.Delete)
	}

	// РУКОВОДСТВА
	authed.GET("/manuals", h.ListManuals)
	authed.POST("/manuals", h.CreateManual)
	authed.GET("/manuals/:slug", h.GetManual)
	authed.PATCH("/manuals/:slug", h.UpdateManual)
	authed.DELETE("/manuals/:slug", h.DeleteManual)
	authed.POST("/manuals/:slug/submit", h.SubmitManual)
	authed.POST("/manuals/:slug/rollback", h.RollbackManual)
	authed.GET("/manuals/:slug/versions", h.ListVersions)
	authed.POST("/manuals/:slug/versions", h.CreateVersion)
	authed.GET("/manuals/:slug/collaborators", h.ListCollaborators)
	authed.POST("/manuals/:slug/collaborators", h.AddCollaborator)
	authed.DELETE("/manuals/:slug/collaborators/:id", h.RemoveCollaborator)

	// ВЕРСИИ И БЛОКИ
	authed.GET("/versions/:id", h.GetVersion)
	authed.GET("/versions/:id/preview", h.PreviewVersion)
	authed.GET("/versions/:id/blocks", h.ListBlocks)
	authed.POST("/versions/:id/blocks", h.CreateBlock)
	authed.GET("/blocks/:id", h.GetBlock)
	authed.PATCH("/blocks/:id", h.UpdateBlock)
	authed.DELETE("/blocks/:id", h.DeleteBlock)

	// РЕВЬЮ
	authed.GET("/reviews", h.ListReviews)
	authed.GET("/reviews/:id", h.GetReview)
	authed.GET("/reviews/:id/content", h.ReviewContent)
	authed.POST("/reviews/:id/approve", h.ApproveReview)
	authed.POST("/reviews/:id/reject", h.RejectReview)

	// АУДИТ
	authed.GET("/audit", h.ListAudit)
	authed.GET("/audit/:id", h.GetAudit)

	return r
}
