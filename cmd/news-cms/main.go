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
	"sync/atomic"
	"syscall"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	health "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/pribylovaa/go-news-cms/internal/cache"
	"github.com/pribylovaa/go-news-cms/internal/config"
	cmshttp "github.com/pribylovaa/go-news-cms/internal/http"
	"github.com/pribylovaa/go-news-cms/internal/metrics"
	"github.com/pribylovaa/go-news-cms/internal/service"
	"github.com/pribylovaa/go-news-cms/internal/storage"
	"github.com/pribylovaa/go-news-cms/internal/storage/disk"
	"github.com/pribylovaa/go-news-cms/internal/storage/memory"
	"github.com/pribylovaa/go-news-cms/internal/storage/minio"
	"github.com/pribylovaa/go-news-cms/internal/storage/mongo"
	"github.com/pribylovaa/go-news-cms/internal/storage/postgres"
	"github.com/pribylovaa/go-news-cms/internal/uploads"
	"github.com/pribylovaa/go-news-cms/pkg/interceptors"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting news-cms", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("service_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}

	log.Info("service_stopped")
}

func run(rootCtx context.Context, cfg *config.Config, log *slog.Logger) error {
	// Хранилище записей.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	store, err := openStorage(dbCtx, cfg.DB)
	dbCancel()
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info("storage_connected", slog.String("driver", cfg.DB.Driver))

	// Хранилище файлов.
	backendCtx, backendCancel := context.WithTimeout(rootCtx, 10*time.Second)
	backend, err := openFileBackend(backendCtx, cfg)
	backendCancel()
	if err != nil {
		return err
	}
	log.Info("file_backend_ready", slog.String("backend", cfg.Uploads.Backend))

	m := metrics.New(nil)

	svc := service.New(store, cfg, uploads.NewStore(backend, cfg.Uploads.BaseURL))
	svc.SetMetrics(m)

	// Кэш страниц списка — опционально.
	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(rootCtx, cfg.Redis.URL, "")
		if err != nil {
			log.Warn("list_cache_disabled", slog.String("err", err.Error()))
		} else {
			defer func() {
				if cerr := rc.Close(); cerr != nil {
					log.Warn("list_cache_close_failed", slog.String("err", cerr.Error()))
				}
			}()
			svc.SetListCache(rc, cfg.Redis.TTL)
			log.Info("list_cache_enabled", slog.Duration("ttl", cfg.Redis.TTL))
		}
	}
	log.Info("service_initialized")

	opts := cmshttp.Options{
		Logger:         log,
		Metrics:        m,
		Timeout:        cfg.Timeouts.Service,
		MaxUploadBytes: cfg.Uploads.MaxSizeBytes,
	}
	if cfg.Uploads.Backend == config.BackendDisk {
		opts.UploadsPath = cfg.Uploads.ServePath
		opts.UploadsDir = cfg.Uploads.Dir
	}

	var ready atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if ready.Load() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", cmshttp.NewRouter(svc, opts))

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	httpLn, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return fmt.Errorf("http listen %s: %w", httpAddr, err)
	}
	log.Info("http_listen_start", slog.String("addr", httpAddr))

	// gRPC: только health/reflection и метрики.
	grpc_prometheus.EnableHandlingTimeHistogram()

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.Recover(log),
			interceptors.UnaryLogging(log),
			interceptors.WithTimeout(cfg.Timeouts.Service),
			grpc_prometheus.UnaryServerInterceptor,
		),
		grpc.ChainStreamInterceptor(
			grpc_prometheus.StreamServerInterceptor,
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	if cfg.Env == envLocal || cfg.Env == envDev {
		reflection.Register(grpcServer)
	}

	grpcAddr := cfg.GRPC.Addr()
	grpcLn, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		_ = httpLn.Close()
		return fmt.Errorf("grpc listen %s: %w", grpcAddr, err)
	}
	log.Info("grpc_listen_start", slog.String("addr", grpcAddr))

	grpc_prometheus.Register(grpcServer)

	g, gctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		if err := httpSrv.Serve(httpLn); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := grpcServer.Serve(grpcLn); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	ready.Store(true)
	log.Info("service_ready")

	// Остановка по сигналу или по падению любого из серверов.
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown_started", slog.Bool("signal", rootCtx.Err() != nil))

		hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		ready.Store(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
		} else {
			log.Info("http_stopped")
		}

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopped:
			log.Info("grpc_stopped")
		case <-shutdownCtx.Done():
			log.Warn("grpc_force_stop")
			grpcServer.Stop()
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("serve_failed", slog.String("err", err.Error()))
		return err
	}

	return nil
}

// openStorage выбирает драйвер по db.driver.
func openStorage(ctx context.Context, cfg config.DBConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.URL)
	case config.DriverMongo:
		return mongo.New(ctx, cfg.URL)
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}

// openFileBackend выбирает хранилище файлов по uploads.backend.
func openFileBackend(ctx context.Context, cfg *config.Config) (uploads.Backend, error) {
	switch cfg.Uploads.Backend {
	case config.BackendDisk:
		d := disk.New(cfg.Uploads.Dir)
		// Каталог создаётся заранее, чтобы раздача работала до первой загрузки;
		// Store всё равно проверяет его при каждом сохранении.
		if err := d.EnsureDir(ctx); err != nil {
			return nil, err
		}
		return d, nil
	case config.BackendMinio:
		return minio.New(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown uploads backend %q", cfg.Uploads.Backend)
	}
}

// setupLogger: local пишет текст, dev и prod пишут JSON; в prod уровень Info.
func setupLogger(env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if env == envProd {
		opts.Level = slog.LevelInfo
	}

	if env == envDev || env == envProd {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
