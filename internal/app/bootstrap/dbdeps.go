// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/clinsync/internal/app/features/volunteer"
	"github.com/dalemusser/clinsync/internal/app/system/apiclient"
	"github.com/dalemusser/clinsync/internal/app/system/matchboard"
	"github.com/dalemusser/clinsync/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// Besides MongoDB it carries the trial backend client and the in-memory
// state built on it, so Startup and Shutdown can manage their sweepers.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	API      *apiclient.Client
	Boards   *matchboard.Registry
	Drafts   *volunteer.Drafts
	Sweepers workers.Group
}
