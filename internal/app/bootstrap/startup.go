// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/clinsync/internal/app/resources"
	"github.com/dalemusser/clinsync/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It loads
// the shared templates, sizes handler timeouts from the backend timeout and
// starts the background sweepers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	// A dashboard refresh is three sequential levels of backend calls.
	timeouts.Configure(timeouts.Config{
		Action:  appCfg.APITimeout,
		Refresh: 3 * appCfg.APITimeout,
	})

	deps.Sweepers.Start()
	return nil
}
