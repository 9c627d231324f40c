// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hiveflow/hiveflow/internal/app/store/blob"
	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
)

// DBDeps holds database/back-end dependencies for the app.
// Extend this struct as your app evolves.
type DBDeps struct {
	// MongoClient is nil when the memory backend is selected.
	MongoClient *mongo.Client

	// Docs is the document store every feature reads and writes through.
	Docs docstore.Store

	// Blobs holds uploaded file bytes.
	Blobs blob.Store
}
