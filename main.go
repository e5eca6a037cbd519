package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/karunyatrust/cms/handlers"
	"github.com/karunyatrust/cms/internal/blogs"
	"github.com/karunyatrust/cms/internal/config"
	"github.com/karunyatrust/cms/internal/deliveries"
	"github.com/karunyatrust/cms/internal/oidc"
	"github.com/karunyatrust/cms/internal/records"
	"github.com/karunyatrust/cms/internal/sessions"
	"github.com/karunyatrust/cms/internal/storage"
	"github.com/karunyatrust/cms/internal/tokens"
	"github.com/karunyatrust/cms/internal/users"
	"github.com/karunyatrust/cms/pkg/logger"
	"github.com/karunyatrust/cms/pkg/metrics"
	"github.com/karunyatrust/cms/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

// deps is everything the router needs.
type deps struct {
	cfg      *config.Config
	records  *records.Collections
	objects  storage.ObjectStore
	reports  storage.ObjectStore
	issuer   *tokens.Issuer
	verifier middleware.Verifier
	redis    *redis.Client
	oidc     bool
}

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	logger.Infof("config loaded: records=%s storage=%s redis=%v keycloak=%v",
		cfg.Records.Backend, cfg.Storage.Backend, cfg.Redis.Host != "", cfg.Keycloak.URL != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clients, closeClients, err := records.Dial(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to connect: %v", err)
	}
	defer closeClients()

	store, closeStore, err := records.Open(ctx, cfg, clients)
	if err != nil {
		logger.Fatalf("failed to open record store: %v", err)
	}
	defer func() { _ = closeStore() }()

	objects, err := storage.Open(ctx, cfg.Storage.Backend, &cfg.Storage.Disk, &cfg.Storage.MinIO)
	if err != nil {
		logger.Fatalf("failed to open object storage: %v", err)
	}
	// reports on disk stay outside the public directory
	reports := objects
	if _, ok := objects.(*storage.DiskStorage); ok {
		if reports, err = storage.NewDiskStorage(&storage.DiskConfig{Dir: cfg.Storage.ReportsDir, URLPrefix: "/files"}); err != nil {
			logger.Fatalf("failed to open report storage: %v", err)
		}
	}

	issuer, err := tokens.NewIssuer(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	// token revocation is available only with Redis
	sessions.SetBlacklistClient(clients.Redis)

	sso := oidcVerifier(ctx, cfg)
	d := &deps{
		cfg:      cfg,
		records:  records.NewCollections(store),
		objects:  objects,
		reports:  reports,
		issuer:   issuer,
		verifier: middleware.Chain(issuer, sso),
		redis:    clients.Redis,
		oidc:     sso != nil,
	}
	r := setupRouter(d)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("Starting CMS on %s (records=%s)", srv.Addr, d.records.Backend())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

// oidcVerifier returns a Keycloak verifier when one is configured and reachable.
func oidcVerifier(ctx context.Context, cfg *config.Config) middleware.Verifier {
	if cfg.Keycloak.URL == "" || cfg.Keycloak.ClientID == "" {
		return nil
	}
	issuer := cfg.Keycloak.URL
	if cfg.Keycloak.Realm != "" {
		issuer = oidc.IssuerURL(cfg.Keycloak.URL, cfg.Keycloak.Realm)
	}
	ver, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID)
	if err != nil {
		logger.Warnf("failed to initialize OIDC verifier: %v", err)
		return nil
	}
	logger.Infof("accepting Keycloak tokens from %s", issuer)
	return ver
}

func setupRouter(d *deps) *gin.Engine {
	cfg := d.cfg
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins...))

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && d.redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(d.redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// ready only when the record store answers
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		checks := map[string]bool{}

		_, err := d.records.Read(c.Request.Context(), cfg.Records.Collections.Users)
		checks["records"] = err == nil
		if err != nil {
			logger.Warnf("readiness: records: %v", err)
			ready = false
		}
		if cfg.Redis.Host != "" {
			checks["redis"] = d.redis != nil && d.redis.Ping(c.Request.Context()).Err() == nil
			if !checks["redis"] && (cfg.RateLimit.UseRedis || cfg.Records.Backend == "redis") {
				ready = false
			}
		}
		if cfg.Keycloak.URL != "" {
			checks["oidc"] = d.oidc
		}

		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": checks, "backend": d.records.Backend(), "uptime": time.Since(startTime).String()})
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(reg)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterSwagger(r)
	handlers.RegisterPublicConfig(r, cfg.Razorpay.KeyID)

	requireAuth := middleware.AuthMiddleware(d.verifier)
	names := cfg.Records.Collections
	root := r.Group("/")
	handlers.NewAuthHandler(users.NewService(d.records, names.Users, d.issuer)).Register(root, requireAuth)
	handlers.NewBlogHandler(blogs.NewService(d.records, names.Blogs, d.objects)).Register(root, requireAuth)
	reports := d.reports
	if reports == nil {
		reports = d.objects
	}
	files := handlers.NewFileHandler(deliveries.NewService(d.records, names.FileLogs, reports, deliveries.LogDispatcher{}))
	if disk, ok := reports.(*storage.DiskStorage); ok && reports != d.objects {
		files.ServeReportsFrom(disk.Dir())
	}
	files.Register(root, requireAuth)

	// uploads on disk are served as static files
	if cfg.Server.PublicDir != "" {
		r.Static("/public", cfg.Server.PublicDir)
	}
	if disk, ok := d.objects.(*storage.DiskStorage); ok {
		prefix := strings.TrimSuffix(cfg.Storage.Disk.URLPrefix, "/")
		if prefix != "" && !(cfg.Server.PublicDir != "" && strings.HasPrefix(prefix, "/public/")) {
			r.Static(prefix, disk.Dir())
		}
	}
	return r
}
