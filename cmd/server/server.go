package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/clearbid/tenderspace/internal/api"
	"github.com/clearbid/tenderspace/internal/assessment"
	"github.com/clearbid/tenderspace/internal/auth"
	"github.com/clearbid/tenderspace/internal/fanout"
	"github.com/clearbid/tenderspace/internal/platform/config"
	"github.com/clearbid/tenderspace/internal/platform/otel"
	"github.com/clearbid/tenderspace/internal/procurement/service"
	"github.com/clearbid/tenderspace/internal/storage/sqlite"
)

// Config holds server process configuration.
type Config struct {
	HTTPAddr          string        `env:"TENDERSPACE_HTTP_ADDR"           envDefault:":8080"`
	DBPath            string        `env:"TENDERSPACE_DB_PATH"             envDefault:"tenderspace.db"`
	OracleURL         string        `env:"TENDERSPACE_ORACLE_URL"`
	OracleModel       string        `env:"TENDERSPACE_ORACLE_MODEL"        envDefault:"gpt-4o-mini"`
	OracleAPIKey      string        `env:"TENDERSPACE_ORACLE_API_KEY"`
	ReadHeaderTimeout time.Duration `env:"TENDERSPACE_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"TENDERSPACE_SHUTDOWN_TIMEOUT"    envDefault:"10s"`
}

// parseConfig reads process configuration from the environment.
func parseConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse server env: %w", err)
	}
	return cfg, nil
}

// run composes the store, services, auth, and transports, then serves until
// the context ends.
func run(ctx context.Context, cfg Config) error {
	shutdownTracer, err := otel.Setup(ctx, "tenderspace")
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("shutdown tracer: %v", err)
		}
	}()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	verifierCfg, err := auth.LoadVerifierConfigFromEnv(nil)
	if err != nil {
		return fmt.Errorf("load access token config: %w", err)
	}
	verifier, err := auth.NewVerifier(verifierCfg)
	if err != nil {
		return fmt.Errorf("build access token verifier: %w", err)
	}

	hub := fanout.NewHub()
	stores := service.Stores{Solicitations: store, Proposals: store, Scores: store}
	if err := stores.Validate(); err != nil {
		return fmt.Errorf("validate stores: %w", err)
	}

	var assessor api.Assessor
	if cfg.OracleAPIKey != "" {
		oracle := assessment.NewOpenAIOracle(assessment.OpenAIOracleConfig{
			ResponsesURL:     cfg.OracleURL,
			Model:            cfg.OracleModel,
			CredentialSecret: cfg.OracleAPIKey,
		})
		assessor = assessment.NewService(store, store, oracle)
	} else {
		log.Printf("scoring oracle not configured, assessment route disabled")
	}

	apiHandler, err := api.NewHandler(api.Config{
		Solicitations: service.NewSolicitationService(stores, hub),
		Proposals:     service.NewProposalService(stores, hub),
		Evaluations:   service.NewEvaluationService(stores, hub),
		Assessor:      assessor,
		Authorizer:    verifier,
	})
	if err != nil {
		return fmt.Errorf("build api handler: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/v1/", apiHandler)
	mux.Handle("/", fanout.NewHandlerWithAuthorizer(hub, verifier))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	log.Printf("tenderspace server listening on %s", cfg.HTTPAddr)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		err := httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
