package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/memoryengine"
	"github.com/AntonStoeckl/library-ledger-go/ledger/mongoengine"
	"github.com/AntonStoeckl/library-ledger-go/ledger/oteladapters"
	"github.com/AntonStoeckl/library-ledger-go/ledger/postgresengine"
	"github.com/AntonStoeckl/library-ledger-go/library/application"
	"github.com/AntonStoeckl/library-ledger-go/library/auth"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell/config"
)

const (
	serviceName    = "libraryd"
	serviceVersion = "1.0.0"

	generatedSecretBytes = 32
)

// runtime owns everything a subcommand needs: the configuration, the logger,
// the telemetry collectors and the opened storage engine.
type runtime struct {
	cfg     config.Config
	logger  *oteladapters.SlogBridgeLogger
	obs     application.Observability
	store   ledger.Store
	migrate func(ctx context.Context) error
	closers []func(ctx context.Context) error
}

func newRuntime(ctx context.Context, cfg config.Config, logOutput io.Writer) (*runtime, error) {
	rt := &runtime{cfg: cfg}

	rt.logger = oteladapters.NewSlogBridgeLoggerWithHandler(config.NewLogHandler(cfg, logOutput))
	rt.obs = application.Observability{Logger: rt.logger}

	if cfg.TelemetryEnabled() {
		providers, err := config.NewObservabilityProviders(ctx, cfg.OTelEndpoint, serviceName, serviceVersion)
		if err != nil {
			return nil, err
		}

		rt.onClose(providers.Shutdown)
		rt.obs.Metrics = oteladapters.NewMetricsCollector(providers.MeterProvider.Meter(serviceName))
		rt.obs.Tracing = oteladapters.NewTracingCollector(providers.TracerProvider.Tracer(serviceName))
	}

	if err := rt.openStore(ctx); err != nil {
		return nil, errors.Join(err, rt.close(context.WithoutCancel(ctx)))
	}

	rt.logger.InfoContext(ctx, "storage engine ready",
		"engine", cfg.StorageEngine,
		"telemetry", cfg.TelemetryEnabled(),
	)

	return rt, nil
}

func (rt *runtime) onClose(closer func(ctx context.Context) error) {
	rt.closers = append(rt.closers, closer)
}

// close releases the resources in reverse order of acquisition.
func (rt *runtime) close(ctx context.Context) error {
	var errs []error

	for _, closer := range slices.Backward(rt.closers) {
		errs = append(errs, closer(ctx))
	}

	rt.closers = nil

	return errors.Join(errs...)
}

func (rt *runtime) openStore(ctx context.Context) error {
	switch rt.cfg.StorageEngine {
	case config.EngineMemory:
		rt.store = rt.openMemory()
		return nil
	case config.EngineMongo:
		return rt.openMongo(ctx)
	case config.EnginePostgres:
		return rt.openPostgres(ctx)
	default:
		return fmt.Errorf("%w: unknown storage engine %q", config.ErrInvalidConfig, rt.cfg.StorageEngine)
	}
}

func (rt *runtime) openMemory() *memoryengine.Store {
	options := []memoryengine.Option{memoryengine.WithContextualLogger(rt.logger)}

	if rt.obs.Metrics != nil {
		options = append(options, memoryengine.WithMetrics(rt.obs.Metrics))
	}

	if rt.obs.Tracing != nil {
		options = append(options, memoryengine.WithTracing(rt.obs.Tracing))
	}

	return memoryengine.New(options...)
}

func (rt *runtime) openMongo(ctx context.Context) error {
	client, err := config.MongoClient(ctx, rt.cfg.MongoURI)
	if err != nil {
		return err
	}

	rt.onClose(client.Disconnect)

	options := []mongoengine.Option{mongoengine.WithContextualLogger(rt.logger)}

	if rt.obs.Metrics != nil {
		options = append(options, mongoengine.WithMetrics(rt.obs.Metrics))
	}

	if rt.obs.Tracing != nil {
		options = append(options, mongoengine.WithTracing(rt.obs.Tracing))
	}

	store, err := mongoengine.New(client.Database(rt.cfg.MongoDatabase), options...)
	if err != nil {
		return err
	}

	rt.store = store
	rt.migrate = store.Migrate

	return nil
}

func (rt *runtime) openPostgres(ctx context.Context) error {
	options := []postgresengine.Option{postgresengine.WithContextualLogger(rt.logger)}

	if rt.obs.Metrics != nil {
		options = append(options, postgresengine.WithMetrics(rt.obs.Metrics))
	}

	if rt.obs.Tracing != nil {
		options = append(options, postgresengine.WithTracing(rt.obs.Tracing))
	}

	var store postgresengine.Store
	var err error

	switch rt.cfg.PostgresDriver {
	case config.DriverSQL:
		store, err = rt.openPostgresSQLDB(ctx, options)
	case config.DriverSQLX:
		store, err = rt.openPostgresSQLX(ctx, options)
	default:
		store, err = rt.openPostgresPGX(ctx, options)
	}

	if err != nil {
		return err
	}

	rt.store = store
	rt.migrate = store.Migrate

	return nil
}

func (rt *runtime) openPostgresPGX(ctx context.Context, options []postgresengine.Option) (postgresengine.Store, error) {
	primary, err := config.PostgresPGXPool(ctx, rt.cfg.PostgresDSN)
	if err != nil {
		return postgresengine.Store{}, err
	}

	rt.onClose(func(context.Context) error {
		primary.Close()
		return nil
	})

	if rt.cfg.PostgresReplicaDSN == "" {
		return postgresengine.NewFromPGXPool(primary, options...)
	}

	replica, err := config.PostgresPGXPool(ctx, rt.cfg.PostgresReplicaDSN)
	if err != nil {
		return postgresengine.Store{}, fmt.Errorf("connecting to replica: %w", err)
	}

	rt.onClose(func(context.Context) error {
		replica.Close()
		return nil
	})

	return postgresengine.NewFromPGXPoolWithReplica(primary, replica, options...)
}

func (rt *runtime) openPostgresSQLDB(ctx context.Context, options []postgresengine.Option) (postgresengine.Store, error) {
	db, err := config.PostgresSQLDB(ctx, rt.cfg.PostgresDSN)
	if err != nil {
		return postgresengine.Store{}, err
	}

	rt.onClose(func(context.Context) error { return db.Close() })

	return postgresengine.NewFromSQLDB(db, options...)
}

func (rt *runtime) openPostgresSQLX(ctx context.Context, options []postgresengine.Option) (postgresengine.Store, error) {
	db, err := config.PostgresSQLX(ctx, rt.cfg.PostgresDSN)
	if err != nil {
		return postgresengine.Store{}, err
	}

	rt.onClose(func(context.Context) error { return db.Close() })

	return postgresengine.NewFromSQLX(db, options...)
}

func (rt *runtime) hasher() auth.BcryptHasher {
	return auth.NewBcryptHasher(rt.cfg.BcryptCost)
}

func (rt *runtime) handlers() (application.Handlers, error) {
	return application.New(rt.store, rt.hasher(), rt.obs)
}

// tokens returns the token issuer. The memory engine may run without a configured secret,
// then a random one is generated and tokens are only valid until the process exits.
func (rt *runtime) tokens(ctx context.Context) (auth.Tokens, error) {
	secret := []byte(rt.cfg.JWTSecret)

	if len(secret) == 0 {
		secret = make([]byte, generatedSecretBytes)
		if _, err := rand.Read(secret); err != nil {
			return auth.Tokens{}, fmt.Errorf("generating token secret: %w", err)
		}

		rt.logger.WarnContext(ctx, "no token secret configured, using a random one",
			"key", config.EnvPrefix+config.KeyJWTSecret,
		)
	}

	return auth.NewTokens(secret, rt.cfg.TokenTTL)
}
