package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"request-governor/middleware/governor"
	"request-governor/middleware/governor/domain"
	"request-governor/middleware/governor/infra"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	// .env é opcional; variáveis já exportadas têm precedência.
	_ = godotenv.Load()

	cfg, err := readConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("gateway stopped", zap.Error(err))
	}
}

func run(cfg config, logger *zap.Logger) error {
	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		return fmt.Errorf("invalid UPSTREAM_URL: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var statsStore domain.StatsStore
	if cfg.statsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.statsRedisAddr,
			Password: cfg.statsRedisPassword,
			DB:       cfg.statsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		pingCancel()
		if err != nil {
			return fmt.Errorf("redis stats ping: %w", err)
		}

		statsStore = infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
			infra.WithStatsBucket(cfg.statsBucket),
			infra.WithStatsTrackFingerprints(cfg.statsTrackFingerprints),
		)
	}

	opts := governor.Options{
		Config:         cfg.governor,
		Stats:          statsStore,
		Logger:         logger.Named("governor"),
		Normalizers:    cfg.normalizers,
		AcquireTimeout: cfg.concurrencyTimeout,
	}
	var pacer *infra.PacerStore
	if cfg.paceRPS > 0 {
		pacer = infra.NewPacerStore(cfg.paceRPS, cfg.paceBurst)
		opts.Pacer = pacer
	}
	if cfg.concurrencyMax > 0 {
		opts.Slots = infra.NewChanPool(cfg.concurrencyMax)
	}

	transport, err := governor.NewTransport(http.DefaultTransport, opts)
	if err != nil {
		return fmt.Errorf("governor config: %w", err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = transport
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if governor.WriteError(w, err) {
			return
		}
		logger.Warn("proxy error", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           proxy,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// retries com backoff podem segurar a resposta por vários segundos
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  90 * time.Second,
	}

	logger.Info("gateway listening",
		zap.String("addr", cfg.listenAddr),
		zap.String("upstream", target.String()))
	logger.Info("governor",
		zap.Duration("cooldown", cfg.governor.CooldownDuration),
		zap.Duration("global_cooldown", cfg.governor.GlobalCooldownBase),
		zap.Int("max_retries", cfg.governor.MaxRetries),
		zap.Duration("backoff_base", cfg.governor.BackoffBase),
		zap.Duration("ledger_retention", cfg.governor.LedgerRetention),
		zap.Int("normalizers", len(cfg.normalizers)))
	logger.Info("outbound",
		zap.Float64("pace_rps", cfg.paceRPS),
		zap.Int("pace_burst", cfg.paceBurst),
		zap.Int("concurrency_max", cfg.concurrencyMax),
		zap.Duration("concurrency_timeout", cfg.concurrencyTimeout),
		zap.Bool("stats", cfg.statsEnabled))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		transport.StartJanitor(gctx)
		if pacer != nil {
			pacer.StartJanitor(gctx)
		}
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	return g.Wait()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

type config struct {
	listenAddr  string
	upstreamURL string
	logLevel    string

	governor    domain.Config
	normalizers []governor.Normalizer

	paceRPS            float64
	paceBurst          int
	concurrencyMax     int
	concurrencyTimeout time.Duration

	statsEnabled           bool
	statsRedisAddr         string
	statsRedisPassword     string
	statsRedisDB           int
	statsPrefix            string
	statsTTL               time.Duration
	statsBucket            string
	statsTrackFingerprints bool
}

func readConfig() (config, error) {
	def := domain.DefaultConfig()

	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.upstreamURL = os.Getenv("UPSTREAM_URL")
	cfg.logLevel = getenvDefault("LOG_LEVEL", "info")

	cfg.governor = domain.Config{
		CooldownDuration:   getenvDurationDefault("GOVERNOR_COOLDOWN", def.CooldownDuration),
		GlobalCooldownBase: getenvDurationDefault("GOVERNOR_GLOBAL_COOLDOWN", def.GlobalCooldownBase),
		MaxRetries:         getenvIntDefault("GOVERNOR_MAX_RETRIES", def.MaxRetries),
		BackoffBase:        getenvDurationDefault("GOVERNOR_BACKOFF_BASE", def.BackoffBase),
		LedgerRetention:    getenvDurationDefault("GOVERNOR_LEDGER_RETENTION", def.LedgerRetention),
		SweepEvery:         getenvDurationDefault("GOVERNOR_SWEEP_EVERY", def.SweepEvery),
	}

	normalizers, err := parseNormalizers(os.Getenv("GOVERNOR_NORMALIZE"))
	if err != nil {
		return config{}, err
	}
	cfg.normalizers = normalizers

	cfg.paceRPS = getenvFloatDefault("PACE_RPS", 0)
	cfg.paceBurst = getenvIntDefault("PACE_BURST", 1)
	cfg.concurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 0)
	cfg.concurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 0)

	cfg.statsEnabled = getenvBoolDefault("STATS_ENABLED", false)
	cfg.statsRedisAddr = getenvDefault("STATS_REDIS_ADDR", "")
	cfg.statsRedisPassword = os.Getenv("STATS_REDIS_PASSWORD")
	cfg.statsRedisDB = getenvIntDefault("STATS_REDIS_DB", 0)
	cfg.statsPrefix = getenvDefault("STATS_PREFIX", "governor:stats")
	cfg.statsTTL = getenvDurationDefault("STATS_TTL", 24*time.Hour)
	cfg.statsBucket = getenvDefault("STATS_BUCKET", "minute")
	cfg.statsTrackFingerprints = getenvBoolDefault("STATS_TRACK_FINGERPRINTS", false)

	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	if err := cfg.governor.Validate(); err != nil {
		return config{}, fmt.Errorf("GOVERNOR_*: %w", err)
	}
	if cfg.statsEnabled && strings.TrimSpace(cfg.statsRedisAddr) == "" {
		return config{}, errors.New("STATS_REDIS_ADDR is required when STATS_ENABLED=true")
	}
	if cfg.paceRPS < 0 {
		return config{}, errors.New("PACE_RPS must be >= 0")
	}
	if cfg.paceRPS > 0 && cfg.paceBurst <= 0 {
		return config{}, errors.New("PACE_BURST must be > 0")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	return cfg, nil
}

// parseNormalizers lê "POST /api/tasks:assignees,PUT /api/tasks:assignees".
// O método é opcional ("/api/tasks:assignees" casa com qualquer escrita).
func parseNormalizers(v string) ([]governor.Normalizer, error) {
	var out []governor.Normalizer
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		target, field, ok := strings.Cut(item, ":")
		if !ok || strings.TrimSpace(field) == "" {
			return nil, fmt.Errorf("GOVERNOR_NORMALIZE: missing field in %q", item)
		}
		n := governor.Normalizer{Field: strings.TrimSpace(field)}
		if method, path, hasMethod := strings.Cut(strings.TrimSpace(target), " "); hasMethod {
			n.Method = strings.ToUpper(method)
			n.Path = strings.TrimSpace(path)
		} else {
			n.Path = method
		}
		if !strings.HasPrefix(n.Path, "/") {
			return nil, fmt.Errorf("GOVERNOR_NORMALIZE: invalid path in %q", item)
		}
		out = append(out, n)
	}
	return out, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
