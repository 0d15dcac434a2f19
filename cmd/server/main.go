package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"crosswalk.app/api/common/id"
	"crosswalk.app/api/common/llm"
	"crosswalk.app/api/common/logger"
	"crosswalk.app/api/common/otel"
	"crosswalk.app/api/core/config"
	"crosswalk.app/api/core/db"
	"crosswalk.app/api/internal/auth"
	"crosswalk.app/api/internal/deploy"
	"crosswalk.app/api/internal/http/handler"
	"crosswalk.app/api/internal/http/middleware"
	httprouter "crosswalk.app/api/internal/http/router"
	"crosswalk.app/api/internal/metrics"
	"crosswalk.app/api/internal/realtime"
	"crosswalk.app/api/internal/scm"
	"crosswalk.app/api/internal/service"
	"crosswalk.app/api/internal/store"
	"crosswalk.app/api/internal/vibe"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "crosswalk starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "redis connected")

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
	}

	stores := store.NewStores(database.Queries())

	deps, err := buildDeps(ctx, cfg, stores, redisClient, collector)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize dependencies", "error", err)
		os.Exit(1)
	}

	services := service.NewServices(stores, service.NewTxRunner(database), deps)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	routerCfg := httprouter.RouterConfig{
		Metrics:    collector,
		Subscriber: realtime.NewSubscriber(redisClient, 25*time.Second),
		Ready: map[string]handler.HealthCheck{
			"postgres": database.Ping,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	}
	router, err := setupRouter(cfg, services, collector, routerCfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set up routes", "error", err)
		os.Exit(1)
	}

	// No WriteTimeout: chat and realtime responses are long-lived streams.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func buildDeps(ctx context.Context, cfg config.Config, stores *store.Stores, redisClient *redis.Client, collector *metrics.Collector) (service.Deps, error) {
	apple, err := auth.NewAppleVerifier(cfg.Auth)
	if err != nil {
		return service.Deps{}, fmt.Errorf("apple verifier: %w", err)
	}
	verifiers := map[auth.Provider]auth.IdentityVerifier{auth.ProviderApple: apple}
	if cfg.Auth.WorkOS.Enabled() {
		workos, err := auth.NewWorkOSVerifier(cfg.Auth.WorkOS)
		if err != nil {
			return service.Deps{}, fmt.Errorf("workos verifier: %w", err)
		}
		verifiers[auth.ProviderWorkOS] = workos
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	if err != nil {
		return service.Deps{}, fmt.Errorf("session tokens: %w", err)
	}

	gateway, err := scm.New(cfg.SCM)
	if err != nil {
		return service.Deps{}, fmt.Errorf("scm gateway: %w", err)
	}

	deploys, err := deploy.New(cfg.Deploy, cfg.SCM)
	if err != nil {
		return service.Deps{}, fmt.Errorf("deploy provider: %w", err)
	}
	deploys = deploy.WithBreaker(deploys, "deploy-"+cfg.Deploy.Provider)

	deps := service.Deps{
		Verifiers: verifiers,
		Tokens:    tokens,
		Gateway:   gateway,
		Deploys:   deploys,
		Publisher: realtime.NewRedisPublisher(redisClient, cfg.Redis.StreamMaxLen),
		TurnLocks: vibe.NewRedisTurnLock(redisClient, cfg.Vibe.TurnLockTTL),
	}
	if collector != nil {
		deps.DropCounter = collector
	}

	if !cfg.LLM.Enabled() {
		slog.WarnContext(ctx, "vibe chat disabled (no LLM configured)")
		return deps, nil
	}

	client, err := llm.NewAgentClient(llm.Config{
		Provider:        cfg.LLM.Provider,
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		ReasoningEffort: llm.ReasoningEffort(cfg.LLM.ReasoningEffort),
	})
	if err != nil {
		return service.Deps{}, fmt.Errorf("llm client: %w", err)
	}
	client = llm.WithBreaker(client, llm.DefaultBreakerSettings("llm-"+cfg.LLM.Provider))

	var opts []vibe.Option
	if collector != nil {
		opts = append(opts, vibe.WithRecorder(collector))
	}
	agent, err := vibe.NewAgent(client, gateway, deploys, stores.VibeMessages(), cfg.Vibe, opts...)
	if err != nil {
		return service.Deps{}, fmt.Errorf("vibe agent: %w", err)
	}
	deps.Agent = agent

	slog.InfoContext(ctx, "vibe chat enabled", "provider", cfg.LLM.Provider, "model", client.Model())
	return deps, nil
}

func setupRouter(cfg config.Config, services *service.Services, collector *metrics.Collector, routerCfg httprouter.RouterConfig) (*gin.Engine, error) {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName, otelgin.WithFilter(traced)))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	if collector != nil {
		router.Use(middleware.Metrics(collector))
	}
	router.Use(middleware.CORS(cfg.CORS))

	if err := httprouter.SetupRoutes(router, services, routerCfg); err != nil {
		return nil, err
	}
	return router, nil
}

// traced skips probes and scrapes.
func traced(r *http.Request) bool {
	switch r.URL.Path {
	case "/health", "/ready", "/metrics":
		return false
	}
	return true
}

const banner = `
 ██████╗██████╗  ██████╗ ███████╗███████╗██╗    ██╗ █████╗ ██╗     ██╗  ██╗
██╔════╝██╔══██╗██╔═══██╗██╔════╝██╔════╝██║    ██║██╔══██╗██║     ██║ ██╔╝
██║     ██████╔╝██║   ██║███████╗███████╗██║ █╗ ██║███████║██║     █████╔╝
██║     ██╔══██╗██║   ██║╚════██║╚════██║██║███╗██║██╔══██║██║     ██╔═██╗
╚██████╗██║  ██║╚██████╔╝███████║███████║╚███╔███╔╝██║  ██║███████╗██║  ██╗
 ╚═════╝╚═╝  ╚═╝ ╚═════╝ ╚══════╝╚══════╝ ╚══╝╚══╝ ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝
`
