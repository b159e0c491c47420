// Command main is the entry point for the Yatube server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yatube/internal/config"
	"yatube/internal/observability"
	"yatube/internal/server"
)

// @title Yatube API
// @version 1.0
// @description Blog platform API with groups, posts, comments and follows
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@yatube.local

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(context.Background(), observability.TracingConfig{
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplerRatio: cfg.TracingSamplerRatio,
		Environment:  cfg.Env,
		Version:      "1.0",
	})
	if err != nil {
		log.Printf("Tracing disabled: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if shutdownTracing != nil {
			if err := shutdownTracing(ctx); err != nil {
				log.Printf("Tracing shutdown error: %v", err)
			}
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatal(err)
	}
}
