package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"pizza-shop/internal/config"
	"pizza-shop/internal/domain"
	"pizza-shop/internal/mailer"
	custommiddleware "pizza-shop/internal/middleware"
	"pizza-shop/internal/payment"
	"pizza-shop/internal/repository"
	"pizza-shop/internal/service"
	"pizza-shop/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB) (*Server, error) {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware([]string{cfg.Frontend.URL}, cfg.Server.Env == "development"))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Redis client for rate limiting
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Initialize external collaborators
	gateway := payment.NewRazorpayGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	mail, err := mailer.NewSMTPMailer(cfg.SMTP, cfg.Frontend.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	// Initialize services
	userService := service.NewUserService(userRepo, mail, cfg.JWT.Secret, cfg.JWT.Expiry, logger)
	inventoryService := service.NewInventoryService(catalogRepo, mail, logger)
	orderService := service.NewOrderService(orderRepo, catalogRepo, userRepo, gateway, mail, cfg.Razorpay.Currency, logger)

	// Initialize handlers
	authHandler := transport.NewAuthHandler(userService, logger)
	userHandler := transport.NewUserHandler(userService, logger)
	catalogHandler := transport.NewCatalogHandler(inventoryService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)
	inventoryHandler := transport.NewInventoryHandler(inventoryService, logger)
	adminHandler := transport.NewAdminHandler(userService, orderService, inventoryService, logger)

	// Middleware used by route groups
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminOnly := custommiddleware.RequireAdmin(logger)
	authRateLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 10,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:auth",
	}, logger)

	router.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authRateLimit)
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/forgot-password", authHandler.ForgotPassword)
			})
			r.Post("/logout", authHandler.Logout)
			r.Get("/verify-email/{token}", authHandler.VerifyEmail)
			r.Put("/reset-password/{token}", authHandler.ResetPassword)
			r.With(authMiddleware).Get("/me", authHandler.Me)
		})

		api.Route("/user", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/profile", userHandler.GetProfile)
			r.Put("/profile", userHandler.UpdateProfile)
			r.Delete("/profile", userHandler.DeleteAccount)
			r.Put("/change-password", userHandler.ChangePassword)
		})

		api.Route("/pizza", func(r chi.Router) {
			r.Get("/bases", catalogHandler.ListCategory(domain.CategoryBase))
			r.Get("/sauces", catalogHandler.ListCategory(domain.CategorySauce))
			r.Get("/cheeses", catalogHandler.ListCategory(domain.CategoryCheese))
			r.Get("/veggies", catalogHandler.ListCategory(domain.CategoryVeggie))
			r.Get("/meats", catalogHandler.ListCategory(domain.CategoryMeat))
			r.Get("/all", catalogHandler.ListAll)
			r.Get("/item/{category}/{id}", catalogHandler.GetItem)
		})

		api.Route("/order", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/create", orderHandler.Create)
			r.Post("/payment/verify", orderHandler.VerifyPayment)
			r.Get("/my-orders", orderHandler.MyOrders)
			r.Get("/{id}", orderHandler.GetOrder)
			r.Put("/{id}/cancel", orderHandler.Cancel)
			r.With(adminOnly).Put("/{id}/status", orderHandler.UpdateStatus)
		})

		api.Route("/inventory", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(adminOnly)
			r.Patch("/bulk-stock-update", inventoryHandler.BulkStockUpdate)
			r.Get("/low-stock/{category}", inventoryHandler.LowStock)
			r.Get("/{category}", inventoryHandler.List)
			r.Post("/{category}", inventoryHandler.Create)
			r.Get("/{category}/{id}", inventoryHandler.Get)
			r.Put("/{category}/{id}", inventoryHandler.Update)
			r.Delete("/{category}/{id}", inventoryHandler.Delete)
			r.Patch("/{category}/{id}/stock", inventoryHandler.UpdateStock)
			r.Patch("/{category}/{id}/toggle", inventoryHandler.Toggle)
		})

		api.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(adminOnly)
			r.Get("/dashboard", adminHandler.Dashboard)
			r.Get("/orders", adminHandler.Orders)
			r.Get("/users", adminHandler.Users)
			r.Post("/create-admin", adminHandler.CreateAdmin)
			r.Get("/inventory", adminHandler.Inventory)
			r.Post("/check-low-stock", adminHandler.CheckLowStock)
		})
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server, nil
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
