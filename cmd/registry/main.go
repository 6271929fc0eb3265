package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/trigg3rX/triggerx-registry/internal/registry"
	"github.com/trigg3rX/triggerx-registry/internal/registry/api"
	"github.com/trigg3rX/triggerx-registry/internal/registry/chain"
	"github.com/trigg3rX/triggerx-registry/internal/registry/config"
	"github.com/trigg3rX/triggerx-registry/internal/registry/datastore"
	"github.com/trigg3rX/triggerx-registry/internal/registry/events"
	"github.com/trigg3rX/triggerx-registry/internal/registry/interfaces"
	"github.com/trigg3rX/triggerx-registry/internal/registry/metrics"
	"github.com/trigg3rX/triggerx-registry/pkg/logging"
)

const defaultTargetGas = 50_000

// substrate is the ledger and everything that executes against it.
type substrate struct {
	ledger   interfaces.Ledger
	executor interfaces.Executor
	invoker  interfaces.Invoker
	code     interfaces.CodeChecker
	token    *chain.SimToken
	stop     func()
}

func main() {
	// Initialize configuration
	if err := config.Init(); err != nil {
		panic(fmt.Sprintf("Failed to initialize config: %v", err))
	}

	// Initialize logger
	logConfig := logging.LoggerConfig{
		LogDir:        logging.BaseDataDir,
		ProcessName:   logging.RegistryProcess,
		IsDevelopment: config.IsDevMode(),
	}
	if err := logging.InitServiceLogger(logConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	logger := logging.GetServiceLogger()

	logger.Info("Starting Keeper Registry service ...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := newSubstrate(ctx, logger)
	if err != nil {
		logger.Fatal("Failed to initialize ledger", "error", err)
	}
	logger.Info("[1/5] Ledger initialized", "simulated", config.IsSimulated(), "height", sub.ledger.Height())

	hub := api.NewHub(config.GetCORSAllowedOrigins(), logger)
	emitters := events.Multi{events.NewLogEmitter(logger), metrics.Emitter{}, hub}
	var redisClient *redis.Client
	if url := config.GetRedisURL(); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			logger.Fatal("Invalid redis url", "error", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis is not reachable, events will be retried per append", "error", err)
		}
		emitters = append(emitters, events.NewRedisStreamEmitter(redisClient, config.GetRedisEventStream(), int64(config.GetRedisStreamMaxLen()), logger))
	}
	logger.Info("[2/5] Event sinks initialized", "sinks", len(emitters))

	var (
		session datastore.Session
		mirror  *datastore.Mirror
	)
	deps := registry.Deps{
		Address:  config.GetRegistryAddress(),
		Owner:    config.GetOwnerAddress(),
		Ledger:   sub.ledger,
		Executor: sub.executor,
		Token:    sub.token,
		Invoker:  sub.invoker,
		Code:     sub.code,
		Emitter:  emitters,
		Observer: metrics.Observer{},
		Logger:   logger,
	}
	if host := config.GetDatabaseHostAddress(); host != "" {
		dbConfig := datastore.NewConfig(host, config.GetDatabaseHostPort(), config.GetDatabaseKeyspace())
		if session, err = datastore.Connect(ctx, dbConfig, logger); err != nil {
			logger.Fatal("Failed to connect to database", "error", err)
		}
		mirror = datastore.NewMirror(session, config.GetDatabaseKeyspace(), logger)
		if err := mirror.CreateSchema(ctx); err != nil {
			logger.Fatal("Failed to create schema", "error", err)
		}
		deps.Mirror = mirror
	}

	reg, err := registry.New(deps)
	if err != nil {
		logger.Fatal("Failed to create registry", "error", err)
	}
	restored := false
	if mirror != nil {
		if restored, err = restoreState(ctx, reg, mirror); err != nil {
			logger.Fatal("Failed to restore state", "error", err)
		}
	}
	logger.Info("[3/5] Registry created", "address", reg.Address().Hex(), "restored", restored)

	if path := config.GetBootstrapConfigPath(); path != "" && !restored {
		if err := applyBootstrap(ctx, reg, sub.token, path); err != nil {
			logger.Fatal("Failed to apply bootstrap config", "path", path, "error", err)
		}
		logger.Info("Bootstrap config applied", "path", path)
	}
	logger.Info("[4/5] Configuration ready", "config_count", reg.GetConfig().ConfigCount)

	collector := metrics.NewCollector(sub.ledger)
	collector.Start(ctx, config.GetMetricsUpdateInterval())

	server := api.NewServer(reg, collector, hub, api.Options{
		Port:           config.GetRegistryAPIPort(),
		AllowedOrigins: config.GetCORSAllowedOrigins(),
	}, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("API server failed", "error", err)
		}
	}()
	logger.Info("[5/5] API server started", "port", config.GetRegistryAPIPort())

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	<-shutdown

	performGracefulShutdown(cancel, server, sub, session, redisClient, logger)
}

func newSubstrate(ctx context.Context, logger logging.Logger) (*substrate, error) {
	token := chain.NewSimToken()
	if config.IsSimulated() {
		ledger := chain.NewSimulated(config.GetChainID(), chain.WithLogger(logger))
		if err := ledger.StartMining(config.GetBlockInterval()); err != nil {
			return nil, err
		}
		return &substrate{
			ledger:   ledger,
			executor: ledger,
			invoker:  chain.NewFuncInvoker(defaultTargetGas),
			code:     &chain.StaticCodeChecker{},
			token:    token,
			stop:     ledger.StopMining,
		}, nil
	}

	client, err := chain.Dial(ctx, config.GetEthRPCURL())
	if err != nil {
		return nil, err
	}
	ledger, err := chain.NewEthLedger(ctx, client, logger)
	if err != nil {
		return nil, err
	}
	if ledger.ChainID().Cmp(config.GetChainID()) != 0 {
		logger.Warn("Configured chain id differs from the node", "configured", config.GetChainID(), "node", ledger.ChainID())
	}
	invoker, err := chain.NewEthDryRunInvoker(client, config.GetRegistryAddress())
	if err != nil {
		return nil, err
	}
	executor := chain.NewEthExecutor(ledger, logger)
	if err := executor.Follow(ctx, config.GetBlockInterval()); err != nil {
		return nil, err
	}
	return &substrate{
		ledger:   ledger,
		executor: executor,
		invoker:  invoker,
		code:     chain.NewEthCodeChecker(client),
		token:    token,
		stop: func() {
			executor.StopFollowing()
			client.Close()
		},
	}, nil
}

func restoreState(ctx context.Context, reg *registry.Registry, mirror *datastore.Mirror) (bool, error) {
	globals, found, err := mirror.LoadGlobals(ctx)
	if err != nil || !found {
		return false, err
	}
	tasks, err := mirror.LoadTasks(ctx)
	if err != nil {
		return false, err
	}
	dedup, err := mirror.LoadDedupKeys(ctx)
	if err != nil {
		return false, err
	}
	reg.Restore(globals, tasks, dedup)
	return true, nil
}

func applyBootstrap(ctx context.Context, reg *registry.Registry, token *chain.SimToken, path string) error {
	b, err := config.LoadBootstrap(path)
	if err != nil {
		return err
	}
	params, err := b.Params()
	if err != nil {
		return err
	}
	payees, err := b.PayeeAddresses()
	if err != nil {
		return err
	}
	grants, err := b.GrantList()
	if err != nil {
		return err
	}

	owner := config.GetOwnerAddress()
	if err := reg.SetConfig(ctx, owner, params); err != nil {
		return err
	}
	if payees != nil {
		if err := reg.SetPayees(ctx, owner, payees); err != nil {
			return err
		}
	}
	if config.IsSimulated() {
		for _, g := range grants {
			token.Mint(g.Account, g.Amount)
			token.Approve(g.Account, reg.Address(), g.Amount)
		}
	}
	return nil
}

func performGracefulShutdown(cancel context.CancelFunc, server *api.Server, sub *substrate, session datastore.Session, redisClient *redis.Client, logger logging.Logger) {
	logger.Info("Initiating graceful shutdown...")

	ctx, done := context.WithTimeout(context.Background(), config.GetShutdownTimeout())
	defer done()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("Non-critical error during API server shutdown", "error", err)
	} else {
		logger.Info("API server stopped")
	}

	sub.stop()
	cancel()

	if session != nil {
		session.Close()
		logger.Info("Database session closed")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warn("Failed to close redis client", "error", err)
		}
	}

	logger.Info("Keeper Registry service shutdown complete")
	logging.Shutdown()
}
