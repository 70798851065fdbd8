package main

import (
	"context"
	"expvar"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shopcms/internal/catalog"
	"shopcms/internal/db"
	"shopcms/internal/mailer"
	"shopcms/internal/media"
	"shopcms/internal/ratelimiter"
	"shopcms/internal/store"
	"shopcms/internal/validate"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	// Default values
	defaultRequests := 200
	defaultEnabled := false

	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil {
			requestsPerTimeFrame = parsedVal
		} else {
			fmt.Println("Invalid RATELIMITER_REQUESTS_COUNT, defaulting to", defaultRequests)
		}
	}

	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			fmt.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            5 * time.Second,
		Enabled:              enabled,
	}
}

// NewLogger creates a new zap logger with color.
func NewLogger(level string) (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder // This adds color to log levels (INFO, WARN, ERROR)

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
		}
	}

	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), lvl)

	return zap.New(core).Sugar(), nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		fmt.Printf("Invalid %s, defaulting to %d\n", key, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		fmt.Printf("Invalid %s, defaulting to %s\n", key, fallback)
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func loadConfig() config {
	return config{
		addr:        getEnv("ADDR", ":8080"),
		env:         getEnv("ENV", "development"),
		apiURL:      getEnv("EXTERNAL_URL", "localhost:8080"),
		corsOrigins: splitList(getEnv("CORS_ORIGIN", "http://localhost:3000")),
		logLevel:    os.Getenv("LOG_LEVEL"),
		db: dbConfig{
			driver:      getEnv("DB_DRIVER", "mongo"),
			addr:        os.Getenv("DB_ADDR"),
			name:        getEnv("DB_NAME", "shopcms"),
			maxConns:    int32(getEnvInt("DB_MAX_CONNS", 30)),
			maxIdleTime: getEnv("DB_MAX_IDLE_TIME", "15m"),
		},
		media: mediaConfig{
			cloudinaryURL: os.Getenv("CLOUDINARY_URL"),
			uploadTimeout: getEnvDuration("MEDIA_UPLOAD_TIMEOUT", 20*time.Second),
			maxDimension:  getEnvInt("MEDIA_MAX_DIMENSION", 1200),
			cleanupJobs:   4,
		},
		mail: mailConfig{
			smtp: smtpConfig{
				host:     os.Getenv("SMTP_HOST"),
				port:     getEnvInt("SMTP_PORT", 587),
				username: os.Getenv("SMTP_USERNAME"),
				password: os.Getenv("SMTP_PASSWORD"),
			},
			fromEmail:  os.Getenv("MAIL_FROM"),
			adminEmail: os.Getenv("ADMIN_EMAIL"),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
		},
		rateLimiter: LoadRateLimiterConfig(),
	}
}

// openRepository connects the configured store. The returned func releases it.
func openRepository(cfg dbConfig, logger *zap.SugaredLogger) (catalog.Repository, func(), error) {
	switch cfg.driver {
	case "mongo":
		client, err := db.NewMongo(cfg.addr, cfg.maxConns, cfg.maxIdleTime)
		if err != nil {
			return nil, nil, err
		}
		repo := store.NewMongo(client.Database(cfg.name))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := repo.Migrate(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		logger.Infow("mongo connection established", "database", cfg.name)
		return repo, func() { _ = client.Disconnect(context.Background()) }, nil

	case "postgres":
		pool, err := db.New(cfg.addr, cfg.maxConns, cfg.maxIdleTime)
		if err != nil {
			return nil, nil, err
		}
		repo := store.NewPostgres(pool)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		expvar.Publish("database", expvar.Func(func() any {
			s := pool.Stat()
			return map[string]int64{
				"total_conns":    int64(s.TotalConns()),
				"idle_conns":     int64(s.IdleConns()),
				"acquired_conns": int64(s.AcquiredConns()),
				"acquire_count":  s.AcquireCount(),
			}
		}))
		logger.Info("database connection pool established")
		return repo, pool.Close, nil

	case "memory":
		logger.Warn("using the in-memory store, data is lost on restart")
		return store.NewMemory(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.driver)
	}
}

var version = "1.0.0"

//	@title			Shop CMS API
//	@description	Admin API for the shop: products, categories, blogs, banners and collaboration requests.

//	@contact.name	API Support
//	@contact.url	http://www.swagger.io/support
//	@contact.email	support@swagger.io

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@BasePath	/api/v1

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Println("Error loading .env file:", err)
	}

	cfg := loadConfig()

	logger, err := NewLogger(cfg.logLevel)
	if err != nil {
		fmt.Println("Error creating logger:", err)
		os.Exit(1)
	}

	if err := serve(cfg, logger); err != nil {
		logger.Errorw("server exited", "error", err.Error())
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// serve wires the store, media and mail clients and blocks until shutdown.
// Everything it opens is released before it returns.
func serve(cfg config, logger *zap.SugaredLogger) error {
	repo, closeRepo, err := openRepository(cfg.db, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	//cloudinary
	cld, err := media.NewCloudinary(cfg.media.cloudinaryURL)
	if err != nil {
		return err
	}
	mediaStore := media.NewResizer(cld, cfg.media.maxDimension)

	cleaner := media.NewCleaner(cld, logger, cfg.media.cleanupJobs)
	defer cleaner.Close()

	reconciler := catalog.NewReconciler(repo, mediaStore, cleaner, logger,
		catalog.WithUploadTimeout(cfg.media.uploadTimeout))

	// mail is optional; without SMTP settings collaboration requests are only stored
	var mail mailer.Client
	if cfg.mail.smtp.host != "" {
		smtp, err := mailer.NewSMTPClient(cfg.mail.smtp.host, cfg.mail.smtp.port,
			cfg.mail.smtp.username, cfg.mail.smtp.password, cfg.mail.fromEmail)
		if err != nil {
			return err
		}
		mail = smtp
	}

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)
	defer rateLimiter.Stop()

	app := &application{
		config:      cfg,
		logger:      logger,
		repo:        repo,
		catalog:     reconciler,
		validator:   validate.New(),
		mailer:      mail,
		rateLimiter: rateLimiter,
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	statsCtx, stopStats := context.WithCancel(context.Background())
	defer stopStats()
	app.refreshCatalogStatsEvery(statsCtx, 5*time.Minute)

	expvar.NewString("version").Set(version)
	expvar.Publish("catalog", expvar.Func(app.stats.snapshot))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	return app.run(mux)
}
