package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/metalworks/quoter/internal/config"
	"github.com/metalworks/quoter/internal/db"
	"github.com/metalworks/quoter/internal/migrations"
	"github.com/metalworks/quoter/internal/quote"
	"github.com/metalworks/quoter/internal/seed"
)

type server struct {
	db     *sql.DB
	auth   *authService
	store  *quote.Store
	logger zerolog.Logger
}

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)
	log.Logger = logger

	secret, err := sessionSecret(cfg.SessionSecret, cfg.IsDev())
	if err != nil {
		logger.Fatal().Err(err).Msg("refusing to start without a session secret")
	}
	if cfg.SessionSecret == "" {
		logger.Info().Msg("using a random session secret for this process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath, cfg.DBConnectAttempts)
	if err != nil {
		logger.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("failed to open database")
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(ctx, database, "migrations"); err != nil {
			logger.Fatal().Err(err).Msg("failed to run database migrations")
		}
	}

	stats, err := seed.Run(ctx, database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed database")
	}
	logger.Info().Int("inserts", stats.Inserts).Msg("seed complete")

	store := quote.NewStore(database)
	if err := store.EnsureSettings(ctx, quote.DefaultSettings(cfg.DefaultHourlyRate, cfg.RoundingUnit)); err != nil {
		logger.Fatal().Err(err).Msg("failed to create company settings")
	}

	srv := &server{
		db:     database,
		auth:   newAuthService(database, secret),
		store:  store,
		logger: logger,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	logger.Info().Str("addr", httpServer.Addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.authMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)
		r.Get("/discount-policy", s.handleGetDiscountPolicy)
		r.Put("/discount-policy", s.handleUpdateDiscountPolicy)
		r.Get("/materials", s.handleListMaterials)
		r.Post("/materials", s.handleCreateMaterial)
		r.Put("/materials/{id}", s.handleUpdateMaterial)
		r.Get("/surcharges", s.handleListSurcharges)
		r.Post("/surcharges", s.handleCreateSurcharge)
		r.Put("/surcharges/{id}", s.handleUpdateSurcharge)
	})

	r.Route("/quotes", func(r chi.Router) {
		r.Get("/", s.handleQuotesList)
		r.Post("/", s.handleCreateQuote)
		r.Post("/calc", s.handleQuoteCalc)
		r.Get("/{id}", s.handleQuoteDetail)
		r.Get("/{id}/text", s.handleQuoteText)
		r.Post("/{id}/reprice", s.handleRepriceQuote)
		r.Post("/{id}/lines", s.handleAddLine)
		r.Patch("/{id}/lines/{lineID}", s.handleUpdateLine)
		r.Delete("/{id}/lines/{lineID}", s.handleDeleteLine)
	})

	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" || r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		if !isAuthenticated(r, s.auth) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

type healthResponse struct {
	Status        string `json:"status"`
	SchemaVersion int64  `json:"schema_version"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	version, err := migrations.Version(r.Context(), s.db)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", SchemaVersion: version})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	valid, err := s.auth.validateCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !valid {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}

	if err := s.auth.setSessionCookie(w, req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": req.Email})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
