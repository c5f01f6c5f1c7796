package main

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/md-rashed-zaman/medportal/libs/config"
	"github.com/md-rashed-zaman/medportal/libs/db"
	"github.com/md-rashed-zaman/medportal/libs/httpx"
	"github.com/md-rashed-zaman/medportal/libs/kafkax"
	otelx "github.com/md-rashed-zaman/medportal/libs/otel"
	"github.com/md-rashed-zaman/medportal/libs/runtime"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/booking"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/consumer"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/directory"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/grpcserver"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/handlers"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/medapi"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/outbox"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "portal-service")
	port, err := config.Port("PORT", "8090")
	if err != nil {
		panic(err)
	}
	grpcPort, err := config.Port("GRPC_PORT", "9090")
	if err != nil {
		panic(err)
	}
	baseURL, err := config.RequiredString("MEDAPI_BASE_URL")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext(context.Background())
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	api, err := medapi.NewClient(medapi.Config{
		BaseURL:       baseURL,
		Timeout:       config.Seconds("MEDAPI_TIMEOUT_SECONDS", 10*time.Second),
		RatePerSecond: float64(config.Int("MEDAPI_RATE_PER_SECOND", 0)),
		Burst:         config.Int("MEDAPI_BURST", 10),
	})
	if err != nil {
		panic(err)
	}

	var checks []runtime.ReadyCheck

	var rdb *redis.Client
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       redisDB(),
		})
		defer rdb.Close()
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	sessions, err := newSessionStore(rdb, logger)
	if err != nil {
		panic(err)
	}

	cacheTTL := config.Seconds("DOCTOR_CACHE_SECONDS", 5*time.Minute)
	var doctorCache directory.Cache = directory.NewMemoryCache(cacheTTL)
	if rdb != nil {
		doctorCache = directory.NewRedisCache(rdb, cacheTTL, logger)
	}
	dir := directory.New(api, doctorCache, logger)

	pool, err := db.Open(ctx, config.String("DATABASE_URL", ""), db.PoolConfig{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 5)),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	brokers := config.String("KAFKA_BROKERS", "")
	var recorder outbox.Recorder = outbox.Discard{}
	var inbox consumer.Inbox
	if pool != nil {
		outboxRepo := outbox.NewRepository(pool)
		if err := outboxRepo.EnsureSchema(ctx); err != nil {
			logger.Error("outbox schema setup failed", "err", err)
			panic(err)
		}
		recorder = outboxRepo
		inbox = outboxRepo
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   brokers,
			PollEvery: 2 * time.Second,
			BatchSize: 50,
		})
		go publisher.Run(ctx)
	}

	if brokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
		doctorEvents := consumer.New(logger, inbox, consumer.Config{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", service),
			Topic:   config.String("KAFKA_DOCTOR_TOPIC", "doctor.schedule.updated.v1"),
		}, func(ctx context.Context, msg kafka.Message) error {
			logger.Info("doctor schedule changed, dropping doctor cache", "key", string(msg.Key))
			dir.Invalidate(ctx)
			return nil
		})
		go doctorEvents.Run(ctx)
	}

	tracker := booking.NewTracker()
	go housekeeping(ctx, tracker, sessions, logger)

	portal := handlers.NewPortalHandler(handlers.Deps{
		API:           api,
		Sessions:      sessions,
		Directory:     dir,
		Orchestrator:  booking.NewOrchestrator(api, dir, config.Minutes("SLOT_LENGTH_MINUTES", 30*time.Minute), logger),
		Booker:        booking.NewBooker(api, recorder, logger),
		Tracker:       tracker,
		Logger:        logger,
		SessionMaxTTL: config.Minutes("SESSION_MAX_TTL_MINUTES", 12*time.Hour),
	})

	mux := runtime.NewBaseMuxWithReady(checks...)
	portal.Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods:   config.List("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders:   config.List("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id"),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		rateLimit(rdb, logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(config.Seconds("REQUEST_TIMEOUT_SECONDS", 15*time.Second)),
	)
	handler = otelhttp.NewHandler(handler, "portal")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+grpcPort)
	if err != nil {
		panic(err)
	}
	grpcserver.New(logger, checks...).Start(ctx, lis, 10*time.Second)

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func redisDB() int {
	n, err := strconv.Atoi(config.String("REDIS_DB", "0"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// newSessionStore keeps sessions in Redis when it is configured. Without
// SESSION_SECRET a random key is used and sessions do not survive a restart.
func newSessionStore(rdb *redis.Client, logger *slog.Logger) (session.Store, error) {
	if rdb == nil {
		logger.Warn("REDIS_ADDR not set, sessions are kept in memory")
		return session.NewMemoryStore(), nil
	}
	secret := []byte(config.String("SESSION_SECRET", ""))
	if len(secret) == 0 {
		logger.Warn("SESSION_SECRET not set, generated an ephemeral key")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
	}
	sealer, err := session.NewSealer(secret)
	if err != nil {
		return nil, err
	}
	return session.NewRedisStore(rdb, sealer), nil
}

func rateLimit(rdb *redis.Client, logger *slog.Logger) httpx.Middleware {
	limit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if rdb != nil {
		return httpx.NewRedisRateLimiter(rdb, limit, time.Minute, "").Middleware(logger, true)
	}
	return httpx.NewRateLimiter(limit, time.Minute).Middleware()
}

// housekeeping drops idle availability selections and, for the in-memory
// session store, sessions that expired without being read again.
func housekeeping(ctx context.Context, tracker *booking.Tracker, sessions session.Store, logger *slog.Logger) {
	sweeper, _ := sessions.(interface{ Sweep() int })
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := tracker.Prune(time.Hour); n > 0 {
				logger.Debug("pruned idle availability selections", "count", n)
			}
			if sweeper != nil {
				if n := sweeper.Sweep(); n > 0 {
					logger.Debug("swept expired sessions", "count", n)
				}
			}
		}
	}
}
