package server

import (
	"fmt"
	"net/http"
	"time"

	"loyalty-points/internal/config"
	"loyalty-points/internal/database"
	custommiddleware "loyalty-points/internal/middleware"
	"loyalty-points/internal/repository"
	"loyalty-points/internal/service"
	"loyalty-points/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// NewServer wires repositories, services and handlers. redisClient may be nil,
// in which case checkout is not rate limited.
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) *Server {
	server := &Server{
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	server.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      server.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}

func (s *Server) routes() http.Handler {
	cfg := s.config
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(s.logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(s.logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.IsDevelopment()))

	router.Get("/health", s.health)

	// Initialize repositories
	sqlDB := s.db.DB()
	repos := repository.NewRepositories(sqlDB)
	txManager := repository.NewTxManager(sqlDB)

	// Initialize services
	clock := service.Clock(time.Now)
	checkoutService := service.NewCheckoutService(txManager, clock, s.logger)
	sessionService := service.NewSessionService(repos.Customers, cfg.JWT.Secret, cfg.SessionExpiry())
	loyaltyService := service.NewLoyaltyService(repos.Accounts)
	cartService := service.NewCartService(repos.Carts, repos.Products)
	customerService := service.NewCustomerService(txManager, repos.Customers, s.logger)
	catalogService := service.NewCatalogService(repos.Products, repos.Categories)
	ruleService := service.NewRuleService(repos.Rules, repos.Categories)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, s.logger)

	var checkoutLimit func(http.Handler) http.Handler
	if s.redis != nil {
		checkoutLimit = custommiddleware.RateLimitMiddleware(s.redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimitWindow(),
			KeyPrefix:         "ratelimit:checkout",
		}, s.logger)
	}

	// Register routes
	transport.NewSessionHandler(sessionService, cfg.SessionExpiry(), !cfg.IsDevelopment(), s.logger).RegisterRoutes(router)
	transport.NewCheckoutHandler(checkoutService, s.logger).RegisterRoutes(router, authMiddleware, checkoutLimit)
	transport.NewLoyaltyHandler(loyaltyService, s.logger).RegisterRoutes(router, authMiddleware)
	transport.NewCartHandler(cartService, s.logger).RegisterRoutes(router, authMiddleware)
	transport.NewCustomerHandler(customerService, s.logger).RegisterRoutes(router, authMiddleware)
	transport.NewCatalogHandler(catalogService, s.logger).RegisterRoutes(router, authMiddleware)
	transport.NewRuleHandler(ruleService, clock, s.logger).RegisterRoutes(router, authMiddleware)

	return router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	stats := s.db.Health(r.Context())

	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}

	if s.redis != nil {
		if err := s.redis.Ping(r.Context()).Err(); err != nil {
			stats["redis"] = "down"
		} else {
			stats["redis"] = "up"
		}
	}

	custommiddleware.RespondWithJSON(w, status, stats)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
