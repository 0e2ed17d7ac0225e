package bootstrap

import (
	"context"
	"fmt"

	"property-dapp-backend/internal/application/discovery"
	"property-dapp-backend/internal/application/indexcache"
	"property-dapp-backend/internal/application/properties"
	"property-dapp-backend/internal/application/propertyevents"
	"property-dapp-backend/internal/application/state"
	"property-dapp-backend/internal/config"
	"property-dapp-backend/internal/infrastructure/algorand"
	"property-dapp-backend/internal/infrastructure/database"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Container holds every wired component. Optional parts are nil when not configured.
type Container struct {
	Config *config.Config

	DB      *gorm.DB
	Rdb     *redis.Client
	Node    *algorand.NodeClient
	Indexer *algorand.IndexerClient
	Wallet  *algorand.MnemonicWallet
	Events  *propertyevents.Service

	Cache      *indexcache.Cache
	Collection *properties.Collection
	Reader     *state.Reader
	Discovery  *discovery.Service
	Reconciler *properties.Reconciler
	Actions    *properties.Actions
}

// New connects the stores and chain clients and wires the services.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		c.Rdb = redis.NewClient(opt)
	}
	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		c.DB = db
		c.Events = &propertyevents.Service{DB: db}
	}

	var err error
	if c.Node, err = algorand.NewNodeClient(cfg.AlgodServer, cfg.AlgodToken); err != nil {
		return nil, err
	}
	if c.Indexer, err = algorand.NewIndexerClient(cfg.IndexerServer, cfg.IndexerToken); err != nil {
		return nil, err
	}
	if cfg.WalletMnemonic != "" {
		if c.Wallet, err = algorand.NewMnemonicWallet(cfg.WalletMnemonic); err != nil {
			return nil, err
		}
	} else {
		log.Warn().Msg("WALLET_MNEMONIC not set, property actions are disabled")
	}

	var store indexcache.Store
	switch cfg.IndexCacheBackend {
	case "sql":
		store = &indexcache.GormStore{DB: c.DB}
	default:
		store = &indexcache.RedisStore{Rdb: c.Rdb}
	}
	c.Cache = indexcache.New(store)
	if err := c.Cache.Init(ctx); err != nil {
		return nil, err
	}

	policy, err := properties.ParsePolicy(cfg.DiscoveryPolicy)
	if err != nil {
		return nil, err
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.IndexerRPS), int(cfg.IndexerRPS)+1)
	c.Collection = properties.NewCollection()
	c.Reader = &state.Reader{Node: c.Node, Lookup: c.Indexer, Limiter: limiter}
	c.Discovery = &discovery.Service{Searcher: c.Indexer, Limiter: limiter}
	c.Reconciler = &properties.Reconciler{
		Cache:      c.Cache,
		Discovery:  c.Discovery,
		Reader:     c.Reader,
		Collection: c.Collection,
		Marker:     cfg.DappNote,
		MinRound:   cfg.MinRound,
		Limit:      discovery.ClampLimit(cfg.DiscoveryLimit),
		Policy:     policy,
		PruneStale: cfg.PruneStaleIDs,
	}
	c.Actions = &properties.Actions{
		Node:       c.Node,
		Reader:     c.Reader,
		Cache:      c.Cache,
		Collection: c.Collection,
		Marker:     cfg.DappNote,
	}
	if c.Wallet != nil {
		c.Actions.Wallet = c.Wallet
	}
	if c.Events != nil {
		c.Actions.Events = c.Events
	}
	return c, nil
}

// Close releases the Redis and database connections.
func (c *Container) Close() {
	if c.Rdb != nil {
		_ = c.Rdb.Close()
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
