// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/clinsync/internal/app/features/volunteer"
	applicationstore "github.com/dalemusser/clinsync/internal/app/store/applications"
	auditstore "github.com/dalemusser/clinsync/internal/app/store/audit"
	"github.com/dalemusser/clinsync/internal/app/system/apiclient"
	"github.com/dalemusser/clinsync/internal/app/system/matchboard"
	"github.com/dalemusser/clinsync/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	mongoConnectTimeout = 10 * time.Second
	sweepInterval       = 5 * time.Minute
)

// ConnectDB connects to MongoDB and builds the trial backend client along
// with the per-organization dashboard boards and intake drafts.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	api, err := apiclient.New(appCfg.APIBaseURL, &http.Client{Timeout: appCfg.APITimeout}, logger)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, err
	}

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		API:           api,
		Boards:        matchboard.NewRegistry(api, appCfg.FetchConcurrency, logger),
		Drafts:        volunteer.NewDrafts(appCfg.DraftTTL),
	}
	deps.Sweepers = newSweepers(deps, appCfg, logger)
	return deps, nil
}

// newSweepers drops dashboard boards nobody has viewed for a while and
// abandoned volunteer drafts.
func newSweepers(deps DBDeps, appCfg AppConfig, logger *zap.Logger) workers.Group {
	boardIdle := appCfg.SessionMaxAge
	if boardIdle <= 0 {
		boardIdle = 24 * time.Hour
	}
	return workers.Group{
		workers.NewSweeper("dashboard-boards", sweepInterval, func(ctx context.Context) (int, error) {
			return deps.Boards.PruneIdle(boardIdle), nil
		}, logger),
		workers.NewSweeper("volunteer-drafts", sweepInterval, func(ctx context.Context) (int, error) {
			return deps.Drafts.Prune(), nil
		}, logger),
	}
}

// EnsureSchema creates the indexes the stores query by.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := applicationstore.New(deps.MongoDatabase).EnsureIndexes(ctx); err != nil {
		logger.Error("ensure application indexes failed", zap.Error(err))
		return err
	}
	if err := auditstore.New(deps.MongoDatabase).EnsureIndexes(ctx); err != nil {
		logger.Error("ensure audit indexes failed", zap.Error(err))
		return err
	}
	return nil
}
