package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/kalp9197/luxe-ecommerce-site/config"
	"github.com/kalp9197/luxe-ecommerce-site/database"
	"github.com/kalp9197/luxe-ecommerce-site/middleware"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
	"github.com/kalp9197/luxe-ecommerce-site/seed"
	"github.com/kalp9197/luxe-ecommerce-site/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] luxe server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	pkg.SetDebugErrors(!cfg.IsProduction())
	log.Printf("[main] config loaded (env=%s, port=%d)", cfg.Environment, cfg.Server.Port)

	// ─── 2. Database ───
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Repositories ───
	repos := initRepositories(db.Conn)

	// ─── 4. WebSocket Hub ───
	hub := ws.NewHub()
	go hub.Run()

	// ─── 5. Services ───
	svcs, limiters := initServices(db.Conn, repos, hub, cfg)
	defer svcs.Catalog.Close()
	defer limiters.Login.Stop()

	// ─── 6. Identity ───
	var identities middleware.IdentityResolver = middleware.NewRepositoryResolver(repos.User)
	if cfg.Auth.DemoMode {
		identities = demoIdentities(db)
	}
	authMw := middleware.NewAuthMiddleware(svcs.Tokens, identities)

	// ─── 7. Handlers + Routes ───
	h := initHandlers(svcs, limiters, hub, cfg)
	mux := http.NewServeMux()
	initRoutes(mux, h, authMw)

	// ─── 8. CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: true,
		Debug:            false,
	})

	handler := middleware.Recover(corsHandler.Handler(mux))

	// ─── 9. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 10. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	// Close sockets first so open tabs see the close frame before the
	// listener goes away.
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[main] forced shutdown: %v", err)
		return
	}

	log.Println("[main] server stopped gracefully")
}

// demoIdentities seeds the demo fixtures and serves their users from
// memory. Only reachable with AUTH_DEMO_MODE=true, which config.Load
// refuses in production.
func demoIdentities(db *database.DB) middleware.IdentityResolver {
	log.Println("[main] ************************************************************")
	log.Println("[main] AUTH_DEMO_MODE is ON: identities come from demo fixtures")
	log.Println("[main] do NOT run this configuration with real customers")
	log.Println("[main] ************************************************************")

	fixtures, err := seed.Default()
	if err != nil {
		log.Fatalf("[main] failed to load demo fixtures: %v", err)
	}
	result, err := seed.Apply(context.Background(), db.Conn, fixtures)
	if err != nil {
		log.Fatalf("[main] failed to apply demo fixtures: %v", err)
	}
	for _, u := range result.Users {
		log.Printf("[main] demo identity %s (%s)", u.Email, u.Role)
	}
	return middleware.NewFixtureResolver(result.Users)
}
