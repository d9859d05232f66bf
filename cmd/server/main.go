package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"universe/internal/auth"
	"universe/internal/config"
	"universe/internal/db"
	internalgrpc "universe/internal/grpc"
	internalhttp "universe/internal/http"
	"universe/internal/jobs"
	"universe/internal/live"
	"universe/internal/logging"
	"universe/internal/lostfound"
	"universe/internal/metrics"
	"universe/internal/notify"
	"universe/internal/repository"
	"universe/internal/rooms"
	"universe/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:            cfg.DatabaseURL,
		MaxConns:       cfg.DBMaxConns,
		MinConns:       cfg.DBMinConns,
		MaxConnIdle:    cfg.DBMaxConnIdle,
		ConnectTimeout: cfg.DBConnectTimeout,
	})
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pool, log); err != nil {
			log.Fatalf("db migration failed: %v", err)
		}
	}
	store := repository.NewStore(pool)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("redis ping failed: %v", err)
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.WithError(err).Warn("redis close error")
			}
		}()
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		log.Fatalf("notify init failed: %v", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("publisher close error")
		}
	}()

	files, err := newFileStore(cfg)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}

	m := metrics.New()
	hub := live.NewHub(log)
	authService := auth.NewService(store, auth.NewLimiter(redisClient, cfg.LoginMaxFailures, cfg.LoginLockout), publisher, m, log, auth.Options{
		SessionTTL:    cfg.SessionTTL,
		EmailTokenTTL: cfg.EmailTokenTTL,
		BcryptCost:    cfg.BcryptCost,
	})
	itemService := lostfound.NewService(store, files, hub, m, log, lostfound.Options{
		MaxFiles:     cfg.UploadMaxFiles,
		MaxBytes:     cfg.UploadMaxBytes,
		MaxDimension: cfg.ImageMaxDimension,
	})

	server := internalhttp.NewServer(cfg, internalhttp.Deps{
		Auth:    authService,
		Items:   itemService,
		Rooms:   rooms.NewService(store),
		Live:    hub,
		Metrics: m,
		Log:     log,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("universe http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	var grpcServer *internalgrpc.Server
	if cfg.GRPCAddr != "" {
		grpcServer, err = internalgrpc.NewServer(cfg.ServiceAuthToken, log)
		if err != nil {
			log.Fatalf("grpc init failed: %v", err)
		}
		go grpcServer.WatchDatabase(ctx, store, 15*time.Second)
		go func() {
			listener, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				log.Fatalf("grpc listen error: %v", err)
			}
			log.Infof("universe grpc listening on %s", cfg.GRPCAddr)
			if err := grpcServer.Serve(listener); err != nil {
				log.Fatalf("grpc server error: %v", err)
			}
		}()
	}

	jobs.StartSessionSweeper(ctx, jobs.SweepConfig{Interval: cfg.SweepInterval}, authService, log)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
	if grpcServer != nil {
		grpcServer.Shutdown()
	}
	authService.Wait()
}

func newPublisher(cfg config.Config) (notify.Publisher, error) {
	switch cfg.NotifyDriver {
	case "kafka":
		return notify.NewKafka(notify.KafkaConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaTopic,
			Username: cfg.KafkaUsername,
			Password: cfg.KafkaPassword,
		}), nil
	case "amqp":
		return notify.NewAMQP(cfg.AMQPURL, cfg.AMQPExchange)
	default:
		return notify.Noop{}, nil
	}
}

// newFileStore prefers Cloudinary when configured and falls back to the
// local upload directory served under /uploads/.
func newFileStore(cfg config.Config) (storage.Store, error) {
	if cfg.CloudinaryURL != "" {
		return storage.NewCloudinary(cfg.CloudinaryURL, cfg.CloudinaryFolder)
	}
	return storage.NewLocal(cfg.UploadDir)
}
