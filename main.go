// This is the main entry point of the BlogHub backend.
// It loads configuration, opens the database pool, applies migrations, wires
// stores, caches, event publishers and services together, mounts the HTTP routes
// and runs the server until SIGINT/SIGTERM, then shuts everything down in order.
//
// @title BlogHub API
// @version 1.0
// @description REST API for BlogHub: accounts, posts, feeds, likes and saves, follows and search.
// @contact.name API Support
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/urfave/cli/v2"

	"github.com/user/bloghub-go/apperror"
	"github.com/user/bloghub-go/auth"
	"github.com/user/bloghub-go/cache"
	"github.com/user/bloghub-go/config"
	"github.com/user/bloghub-go/db"
	_ "github.com/user/bloghub-go/docs" // Swagger spec registration
	"github.com/user/bloghub-go/events"
	"github.com/user/bloghub-go/live"
	"github.com/user/bloghub-go/notify"
	"github.com/user/bloghub-go/posts"
	"github.com/user/bloghub-go/users"
)

func main() {
	// Load .env file. In production variables are usually set directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading it: %v", err)
	}

	app := &cli.App{
		Name:  "bloghub",
		Usage: "BlogHub REST backend",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run migrations and start the HTTP server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "skip-migrations", Usage: "start without applying pending migrations"},
				},
			},
			{
				Name:  "migrate",
				Usage: "manage the database schema",
				Subcommands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "apply all pending migrations",
						Action: migrateUpCommand,
					},
					{
						Name:   "down",
						Usage:  "roll back migrations",
						Action: migrateDownCommand,
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
						},
					},
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("bloghub: %v", err)
	}
}

func migrateUpCommand(_ *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	return db.RunMigrations(cfg.Database)
}

func migrateDownCommand(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := db.RollbackMigrations(cfg.Database, c.Int("steps")); err != nil {
		return err
	}
	log.Printf("[db] rolled back %d migration(s)", c.Int("steps"))
	return nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !c.Bool("skip-migrations") {
		if err := db.RunMigrations(cfg.Database); err != nil {
			return err
		}
	}

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	usersStore := users.NewPGStore(pool)

	// Avatars go through redis when it is configured and reachable; otherwise
	// straight to the users table.
	var (
		avatars     posts.AvatarResolver = usersStore
		invalidator users.AvatarInvalidator
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Printf("[cache] %v; continuing without avatar cache", err)
		} else {
			avatarCache := cache.NewAvatarCache(redisClient, usersStore, cfg.Redis.TTL)
			avatars, invalidator = avatarCache, avatarCache
		}
	}

	hub := live.NewHub(32)
	postEvents := events.Multi{hub}
	var natsConn *nats.Conn
	if cfg.NATS.Enabled() {
		natsConn, err = events.Connect(cfg.NATS.URL)
		if err != nil {
			log.Printf("[events] %v; continuing without NATS", err)
		} else {
			postEvents = append(postEvents, events.NewPublisher(natsConn))
		}
	}

	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.SMTP.Enabled() {
		mailer = notify.NewSMTPMailer(cfg.SMTP)
	}
	dispatcher := notify.NewDispatcher(mailer, usersStore, notify.Options{
		Workers:       cfg.Notify.Workers,
		QueueSize:     cfg.Notify.QueueSize,
		FrontendURL:   cfg.Server.FrontendURL,
		ResetValidFor: cfg.Auth.ResetTokenDuration,
	})
	dispatcher.Start()

	postService := posts.NewService(posts.Deps{
		Store:    posts.NewPGStore(pool),
		Avatars:  avatars,
		Users:    usersStore,
		Notifier: dispatcher,
		Events:   postEvents,
	})
	userService := users.NewService(users.Deps{
		Store:       usersStore,
		Posts:       postService,
		Avatars:     avatars,
		Invalidator: invalidator,
	})
	authService := auth.NewService(auth.NewPGUserStore(pool), *cfg.Auth, cfg.Server.FrontendURL, dispatcher)

	r := newRouter(cfg, auth.NewHandlers(authService), users.NewHandlers(userService), posts.NewHandlers(postService), hub)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays zero so /api/posts/live streams are not cut off.
		IdleTimeout: 60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
	// Notices accepted before shutdown are still delivered.
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Printf("[notify] %v", err)
	}
	if natsConn != nil {
		if err := natsConn.Drain(); err != nil {
			log.Printf("[events] NATS drain failed: %v", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("[cache] redis close failed: %v", err)
		}
	}
	log.Println("Server stopped gracefully")
	return nil
}

func newRouter(cfg *config.AppConfig, authHandlers *auth.Handlers, userHandlers *users.Handlers, postHandlers *posts.Handlers, hub *live.Hub) chi.Router {
	r := chi.NewRouter()

	// Chi requires all middleware to be registered before any routes.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		auth.WriteJSON(w, http.StatusOK, map[string]any{
			"status":       "ok",
			"live_clients": hub.Clients(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		authHandlers.RegisterRoutes(r)
		userHandlers.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.JWTMiddleware(cfg.Auth))
			userHandlers.RegisterRoutes(r)
			hub.RegisterRoutes(r)
			postHandlers.RegisterRoutes(r)
		})
	})

	return r
}

// recoverer turns handler panics into the standard JSON 500 response.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				log.Printf("Panic: %+v", rvr)
				auth.WriteError(w, r, apperror.NewInternalError("internal server error", nil))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
