package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/shelfwise/bookstore/internal/http/handlers"
	mw "github.com/shelfwise/bookstore/internal/http/middleware"
	"github.com/shelfwise/bookstore/internal/mailer"
	"github.com/shelfwise/bookstore/internal/otp"
	"github.com/shelfwise/bookstore/internal/repo/postgres"
	"github.com/shelfwise/bookstore/internal/service"
	"github.com/shelfwise/bookstore/internal/storage"
	"github.com/shelfwise/bookstore/pkg/config"
	"github.com/shelfwise/bookstore/pkg/events"
	"github.com/shelfwise/bookstore/pkg/logger"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if err := postgres.Migrate(ctx, cfg.Database.URL); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	pool, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// The in-memory registry pins the deployment to a single instance and
	// loses pending resets on restart; configure Redis to lift both.
	var codes, tickets otp.Registry
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		if cfg.Redis.Password != "" {
			opts.Password = cfg.Redis.Password
		}
		opts.DB = cfg.Redis.DB
		client := redis.NewClient(opts)
		defer client.Close()
		codes = otp.NewRedisRegistry(client, "otp")
		tickets = otp.NewRedisRegistry(client, "reset-ticket")
	} else {
		codes = otp.NewMemoryRegistry()
		tickets = otp.NewMemoryRegistry()
	}

	var bus events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		natsBus, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsBus.Close()
		bus = natsBus
	}

	var mail mailer.Service
	switch {
	case cfg.Email.DevMode:
		mail = mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		mail = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	default:
		mail = mailer.NewSMTPMailer(
			cfg.Email.SMTPHost, cfg.Email.SMTPPort,
			cfg.Email.SMTPFrom, cfg.Email.SMTPUser, cfg.Email.SMTPPass,
			cfg.Email.SMTPUseTLS,
		)
	}

	files, err := storage.NewLocalStore(cfg.Uploads.Dir, cfg.Uploads.MaxSizeBytes)
	if err != nil {
		logger.Error("failed to prepare uploads dir", "error", err)
		os.Exit(1)
	}

	userRepo := postgres.NewUserRepository(pool)
	bookRepo := postgres.NewBookRepository(pool)

	authService := service.NewAuthService(userRepo, codes, tickets, mail, bus, cfg)
	bookService := service.NewBookService(bookRepo, files, bus)

	h := handlers.New(authService, bookService, cfg)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/registration", h.Register)
		r.Post("/login", h.Login)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/verify-otp", h.VerifyOTP)
		r.Post("/reset-password", h.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth(cfg.Auth.JWTSecret))
			r.Get("/profile", h.Profile)
		})

		r.Route("/books", func(r chi.Router) {
			r.Use(mw.RequireAuth(cfg.Auth.JWTSecret))
			r.Get("/", h.ListBooks)
			r.Get("/{id}", h.GetBook)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireAdmin)
				r.Post("/add", h.AddBook)
				r.Put("/edit/{id}", h.EditBook)
				r.Delete("/delete/{id}", h.DeleteBook)
			})
		})
	})

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Uploads.Dir))))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("starting bookstore api", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
