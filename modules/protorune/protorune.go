package protorune

import (
	"context"
	"strings"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/cockroachdb/errors"
	"github.com/samber/do/v2"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/core/datasources"
	"github.com/subfrost/runicbtcfederation/core/indexer"
	"github.com/subfrost/runicbtcfederation/internal/config"
	"github.com/subfrost/runicbtcfederation/internal/kv"
	"github.com/subfrost/runicbtcfederation/internal/postgres"
	protorunecfg "github.com/subfrost/runicbtcfederation/modules/protorune/config"
	kvrepository "github.com/subfrost/runicbtcfederation/modules/protorune/repository/kv"
	"github.com/subfrost/runicbtcfederation/pkg/logger"
	"github.com/subfrost/runicbtcfederation/pkg/logger/slogx"
)

func New(injector do.Injector) (indexer.IndexerWorker, error) {
	ctx := do.MustInvoke[context.Context](injector)
	conf := do.MustInvoke[config.Config](injector)
	moduleConf := conf.Modules.Protorune

	store, err := openStore(ctx, moduleConf)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	cleanupFuncs := []func(context.Context) error{
		func(context.Context) error {
			return errors.WithStack(store.Close())
		},
	}
	repo := kvrepository.NewRepository(store)

	var bitcoinDatasource datasources.BlockDatasource
	switch strings.ToLower(moduleConf.Datasource) {
	case "bitcoin-node":
		btcClient := do.MustInvoke[*rpcclient.Client](injector)
		bitcoinDatasource = datasources.NewBitcoinNode(btcClient)
	default:
		return nil, errors.Wrapf(errs.Unsupported, "%q datasource is not supported", moduleConf.Datasource)
	}

	protocols, err := moduleConf.ProtocolTags()
	if err != nil {
		return nil, errors.Wrap(err, "invalid protocols configuration")
	}

	federationRune, err := moduleConf.FederationRuneId()
	if err != nil {
		return nil, errors.Wrap(err, "invalid federation configuration")
	}

	processor := NewProcessor(repo, repo, conf.Network,
		WithProtocols(protocols...),
		WithHandler(FederationProtocolTag, NewFederationHandler(federationRune, OrdinalsInscriptions)),
		WithReceipts(moduleConf.Receipts),
		WithPayments(moduleConf.Payments),
		WithCleanupFuncs(cleanupFuncs...),
	)
	if err := processor.VerifyStates(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	logger.InfoContext(ctx, "Protorune processor is ready",
		slogx.String("database", moduleConf.Database),
		slogx.Int("protocols", len(protocols)),
		slogx.Bool("receipts", moduleConf.Receipts),
		slogx.Bool("payments", moduleConf.Payments),
		slogx.Stringer("federation_rune", federationRune),
	)

	return indexer.New(processor, bitcoinDatasource), nil
}

func openStore(ctx context.Context, conf protorunecfg.Config) (kv.Store, error) {
	switch strings.ToLower(conf.Database) {
	case "postgresql", "postgres", "pg":
		pg, err := postgres.NewPool(ctx, conf.Postgres)
		if err != nil {
			if errors.Is(err, errs.InvalidArgument) {
				return nil, errors.Wrap(err, "Invalid Postgres configuration for indexer")
			}
			return nil, errors.Wrap(err, "can't create Postgres connection pool")
		}
		return kv.NewPostgresStore(pg, pg.Close), nil
	case "badger":
		store, err := kv.NewBadgerStore(conf.Badger.Path)
		if err != nil {
			return nil, errors.Wrap(err, "can't open badger store")
		}
		return store, nil
	case "bolt", "bbolt":
		store, err := kv.NewBoltStore(conf.Bolt.Path)
		if err != nil {
			return nil, errors.Wrap(err, "can't open bolt store")
		}
		return store, nil
	case "leveldb":
		store, err := kv.NewLevelDBStore(conf.LevelDB.Path)
		if err != nil {
			return nil, errors.Wrap(err, "can't open leveldb store")
		}
		return store, nil
	case "memory":
		logger.WarnContext(ctx, "Protorune tables are kept in memory and will be lost on shutdown")
		return kv.NewMemoryStore(), nil
	default:
		return nil, errors.Wrapf(errs.Unsupported, "%q database for indexer is not supported", conf.Database)
	}
}
