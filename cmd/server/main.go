package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	accounthttp "github.com/Skotchmaster/storefront/internal/account/httpserver"
	accountrepo "github.com/Skotchmaster/storefront/internal/account/repo"
	accountsvc "github.com/Skotchmaster/storefront/internal/account/service"
	adminhttp "github.com/Skotchmaster/storefront/internal/admin/httpserver"
	adminrepo "github.com/Skotchmaster/storefront/internal/admin/repo"
	adminsvc "github.com/Skotchmaster/storefront/internal/admin/service"
	carthttp "github.com/Skotchmaster/storefront/internal/cart/httpserver"
	cartrepo "github.com/Skotchmaster/storefront/internal/cart/repo"
	cartsvc "github.com/Skotchmaster/storefront/internal/cart/service"
	"github.com/Skotchmaster/storefront/internal/catalog/cache"
	cataloghttp "github.com/Skotchmaster/storefront/internal/catalog/httpserver"
	catalogrepo "github.com/Skotchmaster/storefront/internal/catalog/repo"
	"github.com/Skotchmaster/storefront/internal/catalog/search"
	catalogsvc "github.com/Skotchmaster/storefront/internal/catalog/service"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/notify"
	orderhttp "github.com/Skotchmaster/storefront/internal/order/httpserver"
	orderrepo "github.com/Skotchmaster/storefront/internal/order/repo"
	ordersvc "github.com/Skotchmaster/storefront/internal/order/service"
	"github.com/Skotchmaster/storefront/pkg/config"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/pkg/mykafka"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

func main() {
	cfg := config.Load(".env")
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustOneOf(cfg.DBDriver, "DB_DRIVER", pkgdb.DriverPostgres, pkgdb.DriverSQLite)

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var events mykafka.Publisher = mykafka.Discard{}
	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		events = producer
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS not set")
	}

	catalog := &catalogsvc.CatalogService{Repo: catalogrepo.New(db), Events: events}
	orders := &ordersvc.OrderService{Repo: orderrepo.New(db), StrictTotals: cfg.StrictTotals}

	if cfg.ESURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		es, err := search.NewClient(ctx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		cancel()
		if err != nil {
			logger.Warn("search_disabled", "reason", "elasticsearch unreachable", "error", err)
		} else {
			catalog.Index = search.NewIndex(es, cfg.ESIndex)
		}
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Warn("cache_disabled", "reason", "redis unreachable", "error", err)
			_ = rdb.Close()
			rdb = nil
		} else {
			pc := cache.NewProductCache(rdb, cfg.CacheTTL)
			catalog.Cache = pc
			orders.Cache = pc
		}
	}

	var mailer notify.Mailer = notify.LogMailer{Log: logger.With("component", "mailer")}
	if cfg.SMTPHost != "" {
		mailer = &notify.SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}
	} else {
		logger.Warn("smtp_disabled", "reason", "SMTP_HOST not set, mail is logged only")
	}
	notifier := &notify.Notifier{Mailer: mailer, StaffEmail: cfg.StaffEmail}
	dispatcher := notify.NewDispatcher(&notify.Store{DB: db}, notifier, events, logger, cfg.NotifyPollInterval, cfg.NotifyMaxAttempts)
	orders.Dispatcher = dispatcher

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.Secure())
	e.Use(echomw.CORS())

	var csrfCfg *csrf.Config
	if cfg.CSRFEnabled {
		csrfCfg = &csrf.Config{SessionCookie: tokens.AccessCookie, Secure: true}
	}

	httpserver.Register(e, &httpserver.Deps{
		Account: &accounthttp.AccountHTTP{Svc: &accountsvc.AccountService{
			Repo:      accountrepo.New(db),
			JWTSecret: cfg.JWTAccessSecret,
			AccessTTL: cfg.AccessTokenTTL,
		}},
		Catalog: &cataloghttp.CatalogHTTP{Svc: catalog},
		Cart:    &carthttp.CartHTTP{Svc: &cartsvc.CartService{Repo: cartrepo.New(db)}},
		Orders:  &orderhttp.OrderHTTP{Svc: orders},
		Admin: &adminhttp.AdminHTTP{Svc: &adminsvc.AdminService{
			Repo:              adminrepo.New(db),
			LowStockThreshold: cfg.LowStockThreshold,
		}},
		Notify:         &notify.NotifyHTTP{Notifier: notifier, Token: cfg.InternalToken},
		JWTSecret:      cfg.JWTAccessSecret,
		CSRF:           csrfCfg,
		Ready:          func(ctx context.Context) error { return pkgdb.Ping(ctx, db) },
		OrderRateLimit: rate.Limit(cfg.RateLimitRPS),
		OrderBurst:     cfg.RateLimitBurst,
	})

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		dispatcher.Run(workerCtx)
	}()

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}

	stopWorkers()
	wg.Wait()

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Warn("kafka_close_error", "error", err)
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Warn("db_close_error", "error", err)
	}

	logger.Info("server_stopped")
}
