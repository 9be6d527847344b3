package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"flipduel/internal/auth"
	"flipduel/internal/config"
	"flipduel/internal/database"
	"flipduel/internal/feeds"
	"flipduel/internal/handlers"
	"flipduel/internal/jobs"
	"flipduel/internal/repository"
	"flipduel/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repository
	repo := repository.NewRepository(database.GetDB())

	// Initialize services
	authService := services.NewAuthService(database.GetDB(), cfg.App.AdminWallet)
	treasuryService := services.NewTreasuryService(repo)
	tradingService := services.NewTradingService(repo, cfg.App.RegistryIdentity)
	duelService := services.NewDuelService(
		repo,
		treasuryService,
		tradingService,
		cfg.App.RegistryIdentity,
		cfg.App.TreasuryWallet,
	)
	priceService := services.NewPriceService(repo, cfg.Oracle.OwnerWallet, cfg.Oracle.MinUpdateInterval)

	if err := priceService.EnsureInitialized(context.Background()); err != nil {
		log.Fatalf("Failed to initialize oracle state: %v", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	duelHandler := handlers.NewDuelHandler(duelService)
	tradingHandler := handlers.NewTradingHandler(tradingService, treasuryService)
	priceHandler := handlers.NewPriceHandler(priceService)
	adminHandler := handlers.NewAdminHandler(authService, duelService, priceService)

	// Start duel closer job
	closerJob := jobs.NewDuelCloser(duelService, 10*time.Second)
	go closerJob.Start()
	log.Println("Duel closer job started")

	// Start marketplace price feed job (optional)
	var feedJob *jobs.PriceFeedJob
	if cfg.Feed.Enabled {
		feedJob = jobs.NewPriceFeedJob(
			feeds.NewClient(cfg.Feed.BaseURL),
			priceService,
			cfg.Oracle.OwnerWallet,
			cfg.Feed.Collections,
			cfg.Feed.PollInterval,
		)
		go feedJob.Start()
		log.Println("Price feed job started")
	}

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/wallet", authHandler.WalletLogin)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// Public read routes
	router.GET("/api/duels/active", duelHandler.GetActiveDuels)
	router.GET("/api/duels/:id", duelHandler.GetDuel)
	router.GET("/api/duels/:id/leaderboard", duelHandler.GetLeaderboard)
	router.GET("/api/duels/:id/events", duelHandler.GetDuelEvents)
	router.GET("/api/duels/:id/trades/:wallet", tradingHandler.GetTradeHistory)
	router.GET("/api/stats", duelHandler.GetPlatformStats)
	router.GET("/api/prices", priceHandler.GetPrices)
	router.GET("/api/prices/:asset_id", priceHandler.GetPrice)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// Duel registry endpoints
		api.POST("/duels", duelHandler.CreateDuel)
		api.GET("/duels", duelHandler.GetMyDuels)
		api.GET("/duels/user/:wallet", duelHandler.GetUserDuels)
		api.POST("/duels/:id/join", duelHandler.JoinDuel)
		api.POST("/duels/:id/start", duelHandler.StartDuel)
		api.POST("/duels/:id/close", duelHandler.CloseDuel)
		api.POST("/duels/:id/claim", duelHandler.ClaimRewards)
		api.POST("/duels/:id/cancel", duelHandler.CancelDuel)

		// Settlement engine endpoints
		api.POST("/duels/:id/buy", tradingHandler.Buy)
		api.POST("/duels/:id/sell", tradingHandler.Sell)
		api.GET("/duels/:id/portfolio", tradingHandler.GetMyPortfolio)

		// Ledger endpoints
		api.POST("/wallet/deposit", tradingHandler.Deposit)
		api.GET("/wallet/balance", tradingHandler.GetBalance)

		// Oracle ingestion (service enforces the updater set)
		api.POST("/prices", priceHandler.UpdatePrice)
		api.POST("/prices/batch", priceHandler.BatchUpdatePrices)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(adminHandler.AdminMiddleware())
	{
		admin.POST("/fee", adminHandler.SetPlatformFee)
		admin.POST("/fees/withdraw", adminHandler.WithdrawFees)
		admin.GET("/oracle/updaters", adminHandler.ListOracleUpdaters)
		admin.POST("/oracle/updaters", adminHandler.AddOracleUpdater)
		admin.DELETE("/oracle/updaters/:wallet", adminHandler.RemoveOracleUpdater)
		admin.POST("/oracle/interval", adminHandler.SetOracleInterval)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	closerJob.Stop()
	if feedJob != nil {
		feedJob.Stop()
	}

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
