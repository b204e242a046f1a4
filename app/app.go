package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"

	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/cache"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/cart"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/catalog"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/config"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/db"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/events"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/logging"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/pricing"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/services"
)

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DB      *pgxpool.Pool
	Catalog catalog.Store
	Pricing *pricing.Validator
	Syncer  *catalog.Syncer
	Editor  *catalog.Editor
	Bulk    *catalog.BulkEditor
	Carts   cart.Store
	Cart    *services.CartService

	cacheProvider cache.Provider
	publisher     io.Closer
	logFile       io.Closer
	sentry        bool
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, logFile, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, logFile: logFile}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
		}); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize sentry: %w", err)
		}
		a.sentry = true
	}

	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	normalizer := pricing.Normalizer{
		ThousandSeparator: cfg.PriceThousandSeparator,
		DecimalSeparator:  cfg.PriceDecimalSeparator,
	}
	a.Pricing = pricing.NewValidator(pricing.ValidatorConfig{
		Normalizer: normalizer,
		Factors:    pricing.DefaultFactors(),
		Formatter: pricing.Formatter{
			CurrencySymbol:    cfg.CurrencySymbol,
			Decimals:          cfg.PriceDecimals,
			ThousandSeparator: cfg.PriceThousandSeparator,
			DecimalSeparator:  cfg.PriceDecimalSeparator,
		},
	})

	base, file, err := a.openCatalog(startupCtx, normalizer)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.cacheProvider, err = cache.NewProvider(startupCtx, cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
		MemorySize:            cfg.CacheMemorySize,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}
	a.Catalog = catalog.NewCachedStore(base, a.cacheProvider, cfg.PolicyCacheTTL, logger.With("component", "catalog_cache"))

	var publisher catalog.AggregatePublisher = events.NoopPublisher{}
	if cfg.EventsEnabled() {
		kafkaPublisher := events.NewKafkaPublisher(events.Config{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaTopic,
			BatchTimeout: cfg.KafkaBatchTimeout,
		}, logger.With("component", "events"))
		a.publisher = kafkaPublisher
		publisher = kafkaPublisher
	}

	hideOutOfStock := cfg.HideOutOfStockItems
	threshold := cfg.OutOfStockThreshold
	if file != nil {
		hideOutOfStock = hideOutOfStock || file.Settings.HideOutOfStock
		if file.Settings.OutOfStockThreshold > 0 {
			threshold = file.Settings.OutOfStockThreshold
		}
	}

	aggregator := catalog.NewAggregator(hideOutOfStock, threshold)
	a.Syncer = catalog.NewSyncer(a.Catalog, aggregator, publisher, logger.With("component", "syncer"))
	a.Editor = catalog.NewEditor(a.Catalog, a.Syncer, normalizer, logger.With("component", "editor"))
	a.Bulk = catalog.NewBulkEditor(a.Editor, logger.With("component", "bulk_editor"))

	a.Carts, err = cart.NewStore(startupCtx, cart.Config{
		Provider:              cfg.CartStoreProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize cart store: %w", err)
	}
	a.Cart = services.NewCartService(a.Catalog, a.Carts, a.Pricing, cart.NewAdapter(), cfg.CartTTL, logger.With("component", "cart_service"))

	if file != nil {
		if err := a.SyncParents(startupCtx, file); err != nil {
			a.Close()
			return nil, err
		}
	}

	return a, nil
}

// openCatalog returns the backing product store. For a file catalog it also
// returns the parsed file.
func (a *App) openCatalog(ctx context.Context, normalizer pricing.Normalizer) (catalog.Store, *catalog.CatalogFile, error) {
	switch a.Config.CatalogSource {
	case "postgres":
		pool, err := db.Connect(ctx, a.Config.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		a.DB = pool
		if err := db.Migrate(ctx, pool); err != nil {
			return nil, nil, err
		}
		return db.NewCatalogStore(pool), nil, nil

	default:
		content, err := os.ReadFile(a.Config.CatalogFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read catalog: %w", err)
		}
		store := catalog.NewMemoryStore()
		file, err := ImportCatalog(ctx, store, normalizer, content, a.Logger)
		if err != nil {
			return nil, nil, err
		}
		return store, file, nil
	}
}

// ImportCatalog parses and validates a YAML catalog and saves every product
// into store. Authoring warnings are logged, never returned.
func ImportCatalog(ctx context.Context, store catalog.Store, normalizer pricing.Normalizer, content []byte, logger *slog.Logger) (*catalog.CatalogFile, error) {
	logger = logging.FromContext(ctx, logger)

	parser := catalog.NewParser(normalizer)
	file, err := parser.Parse(content)
	if err != nil {
		return nil, err
	}
	if err := catalog.NewValidator().Validate(file); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	products, err := parser.Products(file)
	if err != nil {
		return nil, err
	}
	for _, product := range products {
		if err := store.SaveProduct(ctx, product); err != nil {
			return nil, err
		}
	}

	for id, warnings := range catalog.NewValidator().Warnings(products) {
		for _, warning := range warnings {
			logger.Warn("pricing policy warning", "product_id", id, "warning", string(warning))
		}
	}

	logger.Info("catalog imported", "products", len(products))
	return file, nil
}

// SyncParents recomputes the derived state of every variable product in file.
func (a *App) SyncParents(ctx context.Context, file *catalog.CatalogFile) error {
	for _, product := range file.Products {
		if len(product.Variants) == 0 {
			continue
		}
		if _, err := a.Syncer.SyncPrices(ctx, product.ID); err != nil {
			return fmt.Errorf("failed to sync product %d: %w", product.ID, err)
		}
	}
	return nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Carts != nil {
		closeWithLog(a.Logger, "cart store", a.Carts)
	}
	if a.cacheProvider != nil {
		closeWithLog(a.Logger, "cache provider", a.cacheProvider)
	}
	if a.publisher != nil {
		closeWithLog(a.Logger, "event publisher", a.publisher)
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.sentry {
		sentry.Flush(2 * time.Second)
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// newLogger builds the console logger on w and, when LOG_FILE is set, tees
// records into a JSON file.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, io.Closer, error) {
	var console slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.LogFormat)) {
	case "json":
		console = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel})
	default:
		console = tint.NewHandler(w, &tint.Options{Level: cfg.LogLevel})
	}

	if cfg.LogFile == "" {
		return slog.New(console), nil, nil
	}

	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: cfg.LogLevel})
	return slog.New(logging.Tee(console, fileHandler)), file, nil
}

func closeWithLog(logger *slog.Logger, name string, closer io.Closer) {
	if err := closer.Close(); err != nil && logger != nil {
		logger.Warn("failed to close "+name, "error", err)
	}
}
