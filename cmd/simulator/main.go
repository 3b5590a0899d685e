package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/wyfcoding/simulatorcalc/internal/simulator/application"
	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
	"github.com/wyfcoding/simulatorcalc/internal/simulator/infrastructure/messaging"
	"github.com/wyfcoding/simulatorcalc/internal/simulator/infrastructure/persistence/mysql"
	curvecache "github.com/wyfcoding/simulatorcalc/internal/simulator/infrastructure/persistence/redis"
	"github.com/wyfcoding/simulatorcalc/internal/simulator/interfaces/consumer"
	httphandler "github.com/wyfcoding/simulatorcalc/internal/simulator/interfaces/http"
	"github.com/wyfcoding/simulatorcalc/pkg/cache"
	"github.com/wyfcoding/simulatorcalc/pkg/config"
	"github.com/wyfcoding/simulatorcalc/pkg/db"
	"github.com/wyfcoding/simulatorcalc/pkg/logger"
	"github.com/wyfcoding/simulatorcalc/pkg/metrics"
	"github.com/wyfcoding/simulatorcalc/pkg/middleware"
	"github.com/wyfcoding/simulatorcalc/pkg/mq"
	"github.com/wyfcoding/simulatorcalc/pkg/ratelimit"
)

const serviceName = "simulator"

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/simulator.toml", "path to config file")
	flag.Parse()

	if err := run(configPath); err != nil {
		slog.Error("simulator exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// 1. Config
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// 2. Logger
	log, err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log = log.With("service", serviceName, "env", cfg.Environment)

	// 3. Metrics
	m := metrics.New(serviceName)
	if cfg.Metrics.Enabled {
		if err := m.Register(nil); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
	}

	// 4. Database
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		return err
	}
	defer database.Close()

	if cfg.Database.AutoMigrate {
		if err := mysql.AutoMigrate(database.DB); err != nil {
			return fmt.Errorf("migrate db: %w", err)
		}
	}

	// 5. Redis
	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return err
		}
		defer redisCache.Close()
	}

	// 6. Kafka
	kafkaCfg := mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
	}
	var (
		publisher domain.EventPublisher = messaging.NoopEventPublisher{}
		producer  *mq.KafkaProducer
	)
	if cfg.Kafka.Enabled {
		producer, err = mq.NewProducer(kafkaCfg)
		if err != nil {
			return err
		}
		defer producer.Close()
		publisher = messaging.NewKafkaEventPublisher(producer, cfg.Kafka.TopicPrefix)
	}

	// 7. Domain & Application
	brackets := make([]domain.TaxBracket, 0, len(cfg.Simulation.TaxBrackets))
	for _, b := range cfg.Simulation.TaxBrackets {
		brackets = append(brackets, domain.TaxBracket{MaxCalendarDays: b.MaxCalendarDays, Rate: b.Rate})
	}
	taxTable, err := domain.NewTaxTable(brackets)
	if err != nil {
		return fmt.Errorf("tax brackets: %w", err)
	}
	log.Info("tax table loaded", "brackets", taxTable.Brackets())
	holidays, err := cfg.Calendar.HolidayDates()
	if err != nil {
		return err
	}

	var curveRepo domain.CurveRepository = mysql.NewCurveRepository(database)
	if cfg.CurveCache.Enabled && redisCache != nil {
		curveRepo = curvecache.NewCachedCurveRepository(curveRepo, redisCache, cfg.CurveCache.TTL(), m, log)
	}

	interpolator := domain.NewInterpolationEngine(cfg.Simulation.AnnualizationBase)
	calendarSvc := application.NewCalendarService(mysql.NewHolidayRepository(database), log,
		application.WithHolidays(holidays...),
		application.WithMaxHorizon(cfg.Simulation.MaxHorizonYears),
	)
	curveSvc := application.NewCurveService(curveRepo, interpolator, publisher, m, log)
	simulationSvc := application.NewSimulationService(
		calendarSvc,
		curveRepo,
		interpolator,
		domain.NewInvestmentSimulator(cfg.Simulation.AnnualizationBase, taxTable),
		publisher,
		m,
		log,
	)

	// 8. HTTP
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.GinRecoveryMiddleware(), middleware.GinLoggingMiddleware(m))
	if len(cfg.HTTP.AllowedOrigins) > 0 {
		r.Use(middleware.CORSMiddleware(cfg.HTTP.AllowedOrigins))
	}

	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "component": "database", "error": err.Error()})
			return
		}
		if redisCache != nil {
			if err := redisCache.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "component": "redis", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "UP", "service": serviceName, "timestamp": time.Now().Unix()})
	})

	api := r.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		if redisCache == nil {
			log.Warn("rate limit enabled but redis is disabled, skipping")
		} else {
			api.Use(middleware.RateLimitMiddleware(ratelimit.NewRedisRateLimiter(redisCache.Client()), cfg.RateLimit))
		}
	}
	var adminAuth gin.HandlerFunc
	if cfg.Auth.Enabled {
		adminAuth = middleware.JWTAuthMiddleware([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, true)
	}
	httphandler.NewHandler(simulationSvc, curveSvc).
		WithDefaultIndex(cfg.Simulation.DefaultIndex).
		RegisterRoutes(api, adminAuth)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	// 9. gRPC（健康检查与反射）
	grpcSrv := grpc.NewServer(
		grpc.MaxConcurrentStreams(uint32(cfg.GRPC.MaxConcurrentStreams)),
		grpc.ChainUnaryInterceptor(middleware.GRPCRecoveryInterceptor(), middleware.GRPCLoggingInterceptor()),
	)
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	reflection.Register(grpcSrv)

	// 10. Start
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port))
		if err != nil {
			return err
		}
		log.Info("gRPC server starting", "addr", lis.Addr().String())
		return grpcSrv.Serve(lis)
	})

	g.Go(func() error {
		log.Info("HTTP server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(cfg.Metrics.Port, cfg.Metrics.Path)
		g.Go(func() error { return metrics.ListenAndServe(metricsSrv) })
	}

	if cfg.Kafka.Enabled {
		reader, err := mq.NewConsumer(kafkaCfg, cfg.Kafka.CurveTopic)
		if err != nil {
			return err
		}
		defer reader.Close()

		handler := consumer.NewCurveHandler(curveSvc, mq.NewDeadLetterQueue(producer, cfg.Kafka.DeadLetterTopic), log).
			WithTopic(cfg.Kafka.CurveTopic).
			WithRetry(cfg.Kafka.MaxRetries, time.Duration(cfg.Kafka.RetryBackoff)*time.Millisecond, 5*time.Second)
		g.Go(func() error { return handler.Run(ctx, reader) })
	}

	// 11. Graceful Shutdown
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)
		select {
		case <-quit:
			log.Info("shutting down servers...")
		case <-ctx.Done():
			log.Info("context cancelled, shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		healthSrv.Shutdown()
		grpcSrv.GracefulStop()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP shutdown failed", "error", err)
		}
		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				log.Error("metrics shutdown failed", "error", err)
			}
		}
		return errCancelled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errCancelled) {
		return err
	}
	return nil
}

// errCancelled 取消 errgroup 的 context，让消费者等后台任务退出
var errCancelled = errors.New("shutdown requested")
