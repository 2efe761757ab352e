package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecell-portal/internal/config"
	"github.com/ecell-portal/internal/infrastructure/dynamo"
	jwtinfra "github.com/ecell-portal/internal/infrastructure/jwt"
	"github.com/ecell-portal/internal/infrastructure/otpstore"
	"github.com/ecell-portal/internal/infrastructure/smtp"
	"github.com/ecell-portal/internal/pkg/signature"
	transporthttp "github.com/ecell-portal/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// The ticket signing key has no fallback: without it every issued payload
	// would be forgeable, so refuse to start.
	codec, err := signature.NewCodec(cfg.TicketSigningKey)
	if err != nil {
		log.Fatalf("TICKET_SIGNING_KEY: %v", err)
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	codeStore := otpstore.New()
	defer codeStore.Close()

	deps := &transporthttp.Deps{
		MemberRepo:  dynamo.NewMemberRepo(dynamoClient, cfg.DynamoTables.Members),
		TicketRepo:  dynamo.NewTicketRepo(dynamoClient, cfg.DynamoTables.Tickets),
		EventRepo:   dynamo.NewEventRepo(dynamoClient, cfg.DynamoTables.Events),
		CodeStore:   codeStore,
		Codec:       codec,
		Mailer:      smtp.NewMailer(cfg),
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
