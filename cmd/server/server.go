package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lalfaro-lab/sms-platform/internal/config"
	"github.com/lalfaro-lab/sms-platform/internal/gateway"
	"github.com/lalfaro-lab/sms-platform/internal/handlers"
	"github.com/lalfaro-lab/sms-platform/internal/services"
	"github.com/lalfaro-lab/sms-platform/internal/store"
	"github.com/lalfaro-lab/sms-platform/pkg/logger"
	"github.com/lalfaro-lab/sms-platform/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const version = "1.0.0"

// maxRequestBody bounds incoming payloads; SMS bodies and webhook
// payloads are small.
const maxRequestBody = 1 << 20

// SetupServer initializes the store, services and routes and returns
// a configured HTTP server alongside the opened store. The caller
// owns the store and must close it on shutdown.
func SetupServer(cfg *config.Config) (*http.Server, store.Store, error) {
	if cfg == nil {
		return nil, nil, errors.New("configuration is required")
	}

	if cfg.Server.Port <= 0 {
		return nil, nil, errors.New("invalid server port")
	}

	// Initialize the persistence backend
	st, err := store.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	// Initialize the gateway client and services
	gatewayClient := gateway.NewClient(cfg.Gateway.URL, cfg.Gateway.Username, cfg.Gateway.Password)
	messageService := services.NewMessageService(st, gatewayClient)
	contactService := services.NewContactService(st)

	// Initialize router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestSizeLimitMiddleware(maxRequestBody))
	router.Use(middleware.RequestLogMiddleware())

	setupRoutes(router, messageService, contactService)

	logger.Info("Server configured",
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("gateway_url", cfg.Gateway.URL),
		zap.Int("port", cfg.Server.Port),
	)

	// Create server with security timeouts
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv, st, nil
}

// setupRoutes configures all the HTTP routes
func setupRoutes(
	router *gin.Engine,
	messageService *services.MessageService,
	contactService *services.ContactService,
) {
	smsHandler := handlers.NewSMSHandler(messageService)
	contactHandler := handlers.NewContactHandler(contactService)
	webhookHandler := handlers.NewWebhookHandler(messageService)

	// Health check is served bare and under the API prefix; deployments
	// differ on which one they probe.
	router.GET("/health", handleHealthCheck)

	api := router.Group("/api")
	{
		api.GET("/health", handleHealthCheck)

		api.POST("/send-sms", smsHandler.SendSMS)
		api.GET("/messages", smsHandler.ListMessages)
		api.GET("/stats", smsHandler.Stats)

		api.GET("/contacts", contactHandler.ListContacts)
		api.POST("/contacts", contactHandler.CreateContact)
		api.DELETE("/contacts/:id", contactHandler.DeleteContact)

		api.POST("/webhook", webhookHandler.Receive)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Not found"})
	})
}

// handleHealthCheck handles the health check endpoint
func handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "sms-platform API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version,
	})
}

// StartServer starts the HTTP server and handles graceful shutdown.
// The store is closed after the server has drained.
func StartServer(srv *http.Server, st store.Store) error {
	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a timeout context for shutdown
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if err := st.Close(); err != nil {
		logger.Warn("Failed to close store", zap.Error(err))
	}

	return nil
}
