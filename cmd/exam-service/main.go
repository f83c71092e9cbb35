package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mock-exam/internal/auth"
	"mock-exam/internal/cache"
	"mock-exam/internal/config"
	"mock-exam/internal/events"
	"mock-exam/internal/exam"
	"mock-exam/internal/exam/sqlite"
	"mock-exam/internal/httpapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	dbPath := flag.String("db", cfg.DatabasePath, "SQLite database path")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.NewSQLiteStore(*dbPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	var (
		serviceOpts = []exam.Option{}
		routerOpts  = []httpapi.Option{httpapi.WithExamDuration(cfg.ExamDuration)}
	)

	if cfg.AdminEnabled() {
		admin, err := newAdmin(cfg)
		if err != nil {
			log.Fatalf("configure admin: %v", err)
		}
		serviceOpts = append(serviceOpts, exam.WithAuthenticator(admin))
		routerOpts = append(routerOpts, httpapi.WithTokenVerifier(admin))
	} else {
		log.Println("Warning: admin credentials are not configured, admin routes are disabled")
	}

	publisher, err := events.NewRabbitPublisher(cfg.RabbitMQURI, cfg.RabbitMQExchange)
	if err != nil {
		log.Fatalf("connect event publisher: %v", err)
	}
	defer publisher.Close()
	if publisher.Enabled() {
		serviceOpts = append(serviceOpts, exam.WithPublisher(publisher))
	}

	if cfg.RedisAddr != "" {
		statsCache, err := cache.NewRedisStatsCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.StatsCacheTTL)
		if err != nil {
			log.Printf("Warning: redis unavailable, stats are computed per request: %v", err)
		} else {
			defer statsCache.Close()
			serviceOpts = append(serviceOpts, exam.WithStatsCache(statsCache))
		}
	}

	service := exam.NewService(store, exam.NewCatalog(cfg.ExtraCategories...), serviceOpts...)
	if err := service.SeedDefaults(ctx, cfg.SeedSampleQuestions); err != nil {
		log.Fatalf("seed defaults: %v", err)
	}

	server := &http.Server{
		Addr:              *addr,
		Handler:           httpapi.NewRouter(service, routerOpts...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("exam-service listening on %s (db=%s)", *addr, *dbPath)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
	log.Println("exam-service stopped")
}

func newAdmin(cfg *config.Config) (*auth.Admin, error) {
	hash := cfg.AdminPasswordHash
	if hash == "" {
		log.Println("Warning: ADMIN_PASSWORD is set in plain text, prefer ADMIN_PASSWORD_HASH")
		var err error
		if hash, err = auth.HashPassword(cfg.AdminPassword); err != nil {
			return nil, err
		}
	}
	return auth.NewAdmin(cfg.AdminUsername, hash, cfg.JWTSecret, cfg.AdminTokenTTL)
}
