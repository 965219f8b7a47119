package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campusfind/campusfind-backend/api/controllers"
	"github.com/campusfind/campusfind-backend/api/middleware"
	"github.com/campusfind/campusfind-backend/internal/auth"
	"github.com/campusfind/campusfind-backend/internal/dashboard"
	"github.com/campusfind/campusfind-backend/internal/items"
	"github.com/campusfind/campusfind-backend/internal/matches"
	"github.com/campusfind/campusfind-backend/internal/notifications"
	"github.com/campusfind/campusfind-backend/internal/users"
	"github.com/campusfind/campusfind-backend/pkg/bigquery"
	"github.com/campusfind/campusfind-backend/pkg/config"
	"github.com/campusfind/campusfind-backend/pkg/db"
	"github.com/campusfind/campusfind-backend/pkg/logger"
	"github.com/campusfind/campusfind-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	bigqueryClient bigquery.Pinger,
	authService auth.Service,
	registerService auth.RegisterService,
	lostService items.LostService,
	foundService items.FoundService,
	matchService matches.Service,
	dashboardService dashboard.Service,
	notificationsService notifications.Service,
	usersService users.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	// A typed nil *redis.Client must not leak into middleware interfaces.
	var limiterStore middleware.RateLimiterStore
	var idempotencyStore redis.IdempotencyStore
	var redisPinger redis.Pinger
	if redisClient != nil {
		limiterStore = redisClient
		idempotencyStore = redisClient
		redisPinger = redisClient
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger, bigqueryClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiterStore, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, limiterStore, logg)).Post("/register", controllers.AuthRegister(registerService, authService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/lost-items", func(r chi.Router) {
			r.Get("/", controllers.LostItemList(lostService, logg))
			r.Post("/", controllers.LostItemCreate(lostService, logg))
			r.Get("/{itemId}", controllers.LostItemGet(lostService, logg))
			r.Delete("/{itemId}", controllers.LostItemDelete(lostService, logg))
			r.Post("/{itemId}/found", controllers.LostItemMarkFound(lostService, logg))
			r.Post("/{itemId}/close", controllers.LostItemClose(lostService, logg))
			r.Get("/{itemId}/matches", controllers.LostItemMatches(matchService, logg))
		})

		r.Route("/v1/found-items", func(r chi.Router) {
			r.Get("/", controllers.FoundItemList(foundService, logg))
			r.Post("/", controllers.FoundItemCreate(foundService, logg))
			r.Get("/{itemId}", controllers.FoundItemGet(foundService, logg))
			r.Delete("/{itemId}", controllers.FoundItemDelete(foundService, logg))
			r.Post("/{itemId}/returned", controllers.FoundItemMarkReturned(foundService, logg))
			r.Post("/{itemId}/close", controllers.FoundItemClose(foundService, logg))
			r.Post("/{itemId}/claim", controllers.FoundItemClaim(matchService, logg))
			r.Get("/{itemId}/matches", controllers.FoundItemMatches(matchService, logg))
		})

		r.Route("/v1/matches", func(r chi.Router) {
			r.Get("/", controllers.MatchList(matchService, logg))
			r.Get("/{matchId}", controllers.MatchGet(matchService, logg))
			r.Post("/{matchId}/approve", controllers.MatchApprove(matchService, logg))
			r.Post("/{matchId}/reject", controllers.MatchReject(matchService, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})

		r.Get("/v1/dashboard", controllers.DashboardSummary(dashboardService, logg))
		r.Get("/v1/users/me", controllers.UserProfile(usersService, logg))
	})

	return r
}
