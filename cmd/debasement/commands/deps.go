package commands

import (
	"context"
	"fmt"

	"github.com/dmarks/debasement/internal/archive"
	"github.com/dmarks/debasement/internal/external/coingecko"
	"github.com/dmarks/debasement/internal/external/fred"
	"github.com/dmarks/debasement/internal/external/yahoo"
	"github.com/dmarks/debasement/internal/marketdata"
	"github.com/dmarks/debasement/internal/research"
	"github.com/dmarks/debasement/internal/returns"
	"github.com/dmarks/debasement/internal/signals"
	"github.com/dmarks/debasement/pkg/config"
	"github.com/dmarks/debasement/pkg/database"
	"github.com/dmarks/debasement/pkg/httputil"
	"github.com/dmarks/debasement/pkg/logger"
	"github.com/dmarks/debasement/pkg/redis"
)

// deps is the wired application stack shared by all commands.
type deps struct {
	cfg      *config.Config
	logger   *logger.Logger
	fetcher  *marketdata.Fetcher
	service  *research.Service
	detector *signals.Detector

	yahoo     *yahoo.Client
	coingecko *coingecko.Client

	redis   *redis.Client
	db      *database.DB        // nil when the archive is disabled
	archive *archive.Repository // nil when the archive is disabled
}

// initDeps loads config and wires providers, the fetcher, and the
// research stack. allowSynthetic controls the research frame fallback.
func initDeps(allowSynthetic bool) (*deps, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect Redis (no-op client when disabled)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	seriesCache := redis.NewCache(redisClient, "debasement")

	// 4. Create per-provider HTTP clients. The shared Redis limiter
	// guards each provider quota across processes; with Redis disabled
	// it allows everything and only the in-process pacer applies.
	limiter := redis.NewRateLimiter(redisClient, "debasement")
	fredHTTP := httputil.New(cfg, log).WithRateLimiter(limiter, redis.FREDRateLimit)
	yahooHTTP := httputil.New(cfg, log).WithRateLimiter(limiter, redis.YahooRateLimit)
	coingeckoHTTP := httputil.New(cfg, log).WithRateLimiter(limiter, redis.CoinGeckoRateLimit)

	// 5. Create external API clients
	fredClient := fred.NewClient(cfg, fredHTTP, log)
	yahooClient := yahoo.NewClient(cfg, yahooHTTP, log)
	coingeckoClient := coingecko.NewClient(cfg, coingeckoHTTP, log)

	// 6. Create fetcher
	fetcher := marketdata.NewFetcher(cfg, log, fredClient, coingeckoClient, yahooClient, seriesCache)

	// 7. Create research stack
	engine := returns.NewEngine(log)
	service := research.NewService(fetcher, engine, log, allowSynthetic)
	detector := signals.NewDetector(log, signals.DefaultThresholds())

	d := &deps{
		cfg:       cfg,
		logger:    log,
		fetcher:   fetcher,
		service:   service,
		detector:  detector,
		yahoo:     yahooClient,
		coingecko: coingeckoClient,
		redis:     redisClient,
	}

	// 8. Optional archive store
	if cfg.Database.Enabled {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		repo := archive.NewRepository(db, log)
		if err := repo.Init(context.Background()); err != nil {
			db.Close()
			return nil, fmt.Errorf("init archive: %w", err)
		}
		d.db = db
		d.archive = repo
		log.Info("Archive store connected")
	}

	return d, nil
}

// close releases held connections.
func (d *deps) close() {
	if d.db != nil {
		d.db.Close()
	}
	if d.redis != nil {
		d.redis.Close()
	}
}
