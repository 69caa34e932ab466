// Package node assembles a light relay from its configuration: the
// checkpoint store, the source chain providers, the optional bridge and the
// metrics server.
package node

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	dbm "github.com/tendermint/tm-db"
	"golang.org/x/sync/errgroup"

	"github.com/lightrelay/lightrelay/bridge"
	bridgerpc "github.com/lightrelay/lightrelay/bridge/rpc"
	"github.com/lightrelay/lightrelay/bridge/submitter"
	"github.com/lightrelay/lightrelay/config"
	"github.com/lightrelay/lightrelay/libs/log"
	"github.com/lightrelay/lightrelay/light"
	"github.com/lightrelay/lightrelay/light/provider"
	"github.com/lightrelay/lightrelay/light/provider/objstore"
	sourcerpc "github.com/lightrelay/lightrelay/light/provider/rpc"
	"github.com/lightrelay/lightrelay/light/store"
	dbs "github.com/lightrelay/lightrelay/light/store/db"
	"github.com/lightrelay/lightrelay/light/store/files"
	"github.com/lightrelay/lightrelay/types"
)

// Metrics groups the metrics of every component.
type Metrics struct {
	Light  *light.Metrics
	Fetch  *objstore.Metrics
	Bridge *bridge.Metrics
}

// MetricsProvider returns the metrics of a node.
type MetricsProvider func() *Metrics

// DefaultMetricsProvider returns Metrics build using Prometheus client
// library if Prometheus is enabled. Otherwise, it returns no-op Metrics.
func DefaultMetricsProvider(cfg *config.InstrumentationConfig) MetricsProvider {
	return func() *Metrics {
		if cfg.Prometheus {
			return &Metrics{
				Light:  light.PrometheusMetrics(cfg.Namespace),
				Fetch:  objstore.PrometheusMetrics(cfg.Namespace),
				Bridge: bridge.PrometheusMetrics(cfg.Namespace),
			}
		}
		return &Metrics{
			Light:  light.NopMetrics(),
			Fetch:  objstore.NopMetrics(),
			Bridge: bridge.NopMetrics(),
		}
	}
}

// Node is a configured light relay.
type Node struct {
	config  *config.Config
	logger  log.Logger
	genesis *types.Committee

	store   store.Store
	fetcher *objstore.Fetcher
	source  *sourcerpc.Client
	relayer *bridge.Relayer
	client  *light.Client
}

// OpenStore opens the checkpoint store the configuration points at.
func OpenStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendDB:
		db, err := dbm.NewDB("checkpoints", dbm.BackendType(cfg.DBBackend), cfg.DBDir())
		if err != nil {
			return nil, fmt.Errorf("open checkpoint db: %w", err)
		}
		return dbs.New(db, ""), nil
	case config.StoreBackendFiles:
		return files.New(cfg.CheckpointsDir())
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// LoadGenesis reads the genesis committee from the genesis file.
func LoadGenesis(cfg *config.Config) (*types.Committee, error) {
	doc, err := types.GenesisDocFromFile(cfg.GenesisFile())
	if err != nil {
		return nil, err
	}
	return doc.Committee()
}

// NewSourceClient returns the source chain JSON-RPC and GraphQL client.
func NewSourceClient(cfg *config.Config, logger log.Logger) *sourcerpc.Client {
	return sourcerpc.New(cfg.Source.RPCAddress, cfg.Source.GraphQLAddress, cfg.Source.RequestTimeout,
		sourcerpc.Logger(logger.With("module", "source")),
		sourcerpc.RetryPolicy(provider.NewRetryPolicy(cfg.Fetch)))
}

// New builds a node from cfg.
func New(ctx context.Context, cfg *config.Config, logger log.Logger, metricsProvider MetricsProvider) (*Node, error) {
	genesis, err := LoadGenesis(cfg)
	if err != nil {
		return nil, fmt.Errorf("load genesis: %w", err)
	}
	m := metricsProvider()

	st, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	bucket, err := objstore.NewBucket(ctx, cfg.Source.ObjectStoreURL, cfg.Source.RequestTimeout)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("object store: %w", err)
	}
	fetchPolicy := provider.NewRetryPolicy(cfg.Fetch)
	fetcher := objstore.New(bucket,
		objstore.Logger(logger.With("module", "fetcher")),
		objstore.RetryPolicy(fetchPolicy),
		objstore.WithMetrics(m.Fetch))
	source := NewSourceClient(cfg, logger)

	n := &Node{
		config:  cfg,
		logger:  logger,
		genesis: genesis,
		store:   st,
		fetcher: fetcher,
		source:  source,
	}

	options := []light.Option{
		light.Logger(logger.With("module", "light")),
		light.WithMetrics(m.Light),
		light.WithTransactionLocator(source),
	}
	if cfg.Bridge.Enabled {
		if n.relayer, err = newRelayer(cfg, logger.With("module", "bridge"), m.Bridge); err != nil {
			st.Close()
			return nil, err
		}
		options = append(options, light.WithRelayer(n.relayer))
	}

	if n.client, err = light.NewClient(genesis, st, fetcher, source, options...); err != nil {
		st.Close()
		return nil, err
	}
	return n, nil
}

func newRelayer(cfg *config.Config, logger log.Logger, m *bridge.Metrics) (*bridge.Relayer, error) {
	bc := cfg.Bridge
	pkg, err := types.AddressFromHex(bc.PackageID)
	if err != nil {
		return nil, fmt.Errorf("bridge package: %w", err)
	}
	registryID, err := types.AddressFromHex(bc.RegistryID)
	if err != nil {
		return nil, fmt.Errorf("bridge registry: %w", err)
	}

	target := bridgerpc.New(bc.RPCAddress, cfg.Source.RequestTimeout,
		bridgerpc.Logger(logger),
		bridgerpc.RetryPolicy(provider.NewRetryPolicy(cfg.Fetch)))
	events := bridge.NewEventIterator(target, bridge.EventFilter{Package: pkg, Module: bc.Module}, bc.PageSize)
	registry, err := bridge.NewRegistry(registryID, events, target, bc.CacheSize, logger)
	if err != nil {
		return nil, err
	}

	options := []bridge.RelayerOption{
		bridge.RelayerLogger(logger),
		bridge.RelayerMetrics(m),
		bridge.ConfirmPolicy(bc.ConfirmInterval, bc.ConfirmTimeout),
	}
	var sub bridge.Submitter
	switch bc.Submitter {
	case config.SubmitterJSONRPC:
		sub = submitter.NewJSONRPC(bc.SubmitterAddress, bc.SubmitterMethod, bc.SubmitterToken,
			cfg.Source.RequestTimeout, logger)
	case config.SubmitterFile:
		if sub, err = submitter.NewFile(bc.SubmitterDirPath(), logger); err != nil {
			return nil, err
		}
		options = append(options, bridge.WithoutConfirmation())
	default:
		return nil, fmt.Errorf("unknown submitter %q", bc.Submitter)
	}
	return bridge.NewRelayer(registry, sub, options...), nil
}

// Client returns the light client.
func (n *Node) Client() *light.Client {
	return n.client
}

// Store returns the checkpoint store.
func (n *Node) Store() store.Store {
	return n.store
}

// Source returns the source chain client.
func (n *Node) Source() *sourcerpc.Client {
	return n.source
}

// Bootstrap seeds an empty checkpoint list, see light.Bootstrap.
func (n *Node) Bootstrap(ctx context.Context, seeds []uint64) ([]uint64, error) {
	return light.Bootstrap(ctx, n.store, n.source, seeds)
}

// Run syncs once, then every interval until ctx is done if interval is
// positive. The Prometheus server, if enabled, runs alongside.
func (n *Node) Run(ctx context.Context, interval time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	if n.config.Instrumentation.Prometheus {
		srv := &http.Server{
			Addr:              n.config.Instrumentation.PrometheusListenAddr,
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			n.logger.Info("prometheus server starting", "address", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-gctx.Done():
			case <-done:
			}
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	g.Go(func() error {
		defer close(done)
		return n.syncLoop(gctx, interval)
	})
	return g.Wait()
}

func (n *Node) syncLoop(ctx context.Context, interval time.Duration) error {
	restored, err := n.client.Restore()
	if err != nil {
		return err
	}
	if restored > 0 {
		n.logger.Info("restored trust from cache", "checkpoints", restored, "epoch", n.client.Committee().Epoch)
	}

	for {
		res, err := n.client.Sync(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		n.logger.Info("sync done",
			"appended", len(res.Appended),
			"verified", res.Verified,
			"relayed", res.Relayed,
			"epoch", res.Committee.Epoch)

		if interval <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// Close releases the store and the relayer.
func (n *Node) Close() error {
	return n.client.Close()
}
