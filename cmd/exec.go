package cmd

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v5"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"

	"ticket-ledger/config"
	"ticket-ledger/handlers"
	_ "ticket-ledger/migrations"
	"ticket-ledger/models"
	"ticket-ledger/security"
	"ticket-ledger/services"
	"ticket-ledger/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" {
		pn = pubnub.NewPubNub(pnConfig)
	}
	notifier := services.NewNotifier(pn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the ledger environment and the admin identity
	env := services.NewLedger()
	admin, err := adminAccount(env, cfg.AdminPublicKey)
	if err != nil {
		return err
	}
	log.Printf("Admin account: %s", admin)

	// Initialize services
	ticketService := services.NewTicketService(env, admin, cfg.ContractName, cfg.ContractSymbol, notifier)
	resaleService := services.NewResaleService(env, admin, cfg.DefaultListingLimit, notifier)
	registerService := services.NewRegisterService(env, admin)

	// One-time wiring between the three services
	if err := ticketService.SetResaleAddress(admin, resaleService.Address()); err != nil {
		return err
	}
	if err := ticketService.SetRegisterAddress(admin, registerService.Address()); err != nil {
		return err
	}
	if err := resaleService.SetTicketService(admin, ticketService); err != nil {
		return err
	}
	if err := registerService.SetTicketService(admin, ticketService); err != nil {
		return err
	}

	// Restore persisted state and keep snapshotting
	snapshots := services.NewSnapshotStore(redisClient, cfg.SnapshotKey)
	if err := snapshots.Restore(ctx, ticketService, resaleService); err != nil {
		log.Printf("Error restoring snapshot: %v", err)
	}
	go snapshots.Run(ctx, cfg.SnapshotInterval, ticketService, resaleService)

	// Initialize handlers
	ticketHandler := handlers.NewTicketHandler(app, env, ticketService)
	eventHandler := handlers.NewEventHandler(app, ticketService)
	resaleHandler := handlers.NewResaleHandler(app, resaleService)
	registerHandler := handlers.NewRegisterHandler(app, registerService)
	adminHandler := handlers.NewAdminHandler(app, ticketService, resaleService)

	rateLimiter := security.NewRateLimiter(redisClient, cfg.RateLimitRequests, cfg.RateLimitWindow)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Setup graceful shutdown
	go handleShutdown(cancel)

	if cfg.EnableMetrics {
		go startOpsServer(cfg, redisClient)
	}

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		logAuditCounts(app)

		// Contract info
		e.Router.GET("/api/v1/info", func(e *core.RequestEvent) error {
			return e.JSON(200, map[string]any{
				"name":   ticketService.Name(),
				"symbol": ticketService.Symbol(),
				"admin":  ticketService.Admin(),
			})
		})

		// Account endpoints
		e.Router.POST("/api/v1/accounts/register", ticketHandler.RegisterAccount)
		e.Router.POST("/api/v1/accounts/approve-agents", ticketHandler.ApproveAgents)
		e.Router.GET("/api/v1/accounts/approval", ticketHandler.GetApproval)
		e.Router.GET("/api/v1/accounts/balance", ticketHandler.Balance)

		// Event endpoints
		e.Router.POST("/api/v1/events", eventHandler.CreateEvent)
		e.Router.GET("/api/v1/events", eventHandler.GetEvents)
		e.Router.GET("/api/v1/events/{eventId}", eventHandler.GetEvent)
		e.Router.GET("/api/v1/events/{eventId}/seats", eventHandler.GetSeatsSold)
		e.Router.GET("/api/v1/events/{eventId}/seats/{seat}/owner", eventHandler.GetSeatOwner)

		// Ticket endpoints
		e.Router.POST("/api/v1/tickets/purchase", ticketHandler.Purchase).BindFunc(rateLimiter.PurchaseRateLimit())
		e.Router.GET("/api/v1/tickets/mine", ticketHandler.MyTickets)
		e.Router.GET("/api/v1/tickets/seats", ticketHandler.MySeats)
		e.Router.GET("/api/v1/tickets/{tokenId}/used", ticketHandler.UsedStatus)

		// Resale endpoints
		e.Router.POST("/api/v1/resale/list", resaleHandler.List)
		e.Router.POST("/api/v1/resale/withdraw", resaleHandler.Withdraw)
		e.Router.POST("/api/v1/resale/purchase", resaleHandler.Purchase).BindFunc(rateLimiter.PurchaseRateLimit())
		e.Router.GET("/api/v1/resale/active", resaleHandler.Active)
		e.Router.GET("/api/v1/resale/mine", resaleHandler.Mine)

		// Check-in endpoints
		e.Router.GET("/api/v1/register/challenge", registerHandler.Challenge)
		e.Router.POST("/api/v1/register/redeem", registerHandler.Redeem)

		// Admin endpoints
		e.Router.POST("/api/v1/admin/promote", adminHandler.Promote)
		e.Router.POST("/api/v1/admin/venue-owner", adminHandler.SetVenueOwner)
		e.Router.POST("/api/v1/admin/withdraw", adminHandler.Withdraw)
		e.Router.POST("/api/v1/admin/listing-limit", adminHandler.SetListingLimit)
		e.Router.GET("/api/v1/admin/listing-limit", adminHandler.GetListingLimit)
		e.Router.GET("/api/v1/admin/contract-balance", adminHandler.ContractBalance)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// adminAccount registers the configured admin key with the ledger. An
// unset key gets an ephemeral one so development setups boot without
// configuration.
func adminAccount(env *services.Ledger, encodedKey string) (models.Address, error) {
	if encodedKey == "" {
		pub, _, err := ed25519.GenerateKey(nil)
		if err != nil {
			return models.ZeroAddress, err
		}
		log.Printf("ADMIN_PUBLIC_KEY not set, generated ephemeral admin key %s", hex.EncodeToString(pub))
		return env.RegisterAccount(pub)
	}

	pub, err := hex.DecodeString(encodedKey)
	if err != nil {
		return models.ZeroAddress, fmt.Errorf("decoding ADMIN_PUBLIC_KEY: %w", err)
	}
	return env.RegisterAccount(pub)
}

// logAuditCounts reports how many audit rows the admin UI collections
// hold. Useful to spot a wiped database after a restore.
func logAuditCounts(app *pocketbase.PocketBase) {
	for _, name := range []string{"ledger_events", "ledger_tickets", "ledger_listings"} {
		var records []dbx.NullStringMap
		if err := app.DB().NewQuery(
			fmt.Sprintf("SELECT id FROM %s", name),
		).All(&records); err != nil {
			log.Printf("Error counting %s: %v", name, err)
			continue
		}
		log.Printf("Audit collection %s holds %d records", name, len(records))
	}
}

// startOpsServer exposes Prometheus metrics and a Redis health probe on
// a separate port.
func startOpsServer(cfg *config.Config, redisClient *redis.Client) {
	e := echo.New()

	metricsHandler := promhttp.Handler()
	e.GET("/metrics", func(c echo.Context) error {
		metricsHandler.ServeHTTP(c.Response(), c.Request())
		return nil
	})
	e.GET("/healthz", func(c echo.Context) error {
		if err := utils.RedisHealthCheck(redisClient); err != nil {
			return c.JSON(503, map[string]string{"status": "unhealthy", "error": err.Error()})
		}
		return c.JSON(200, map[string]string{"status": "healthy"})
	})

	server := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: e,
	}
	log.Printf("Ops server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("Ops server stopped: %v", err)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
