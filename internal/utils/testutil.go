package utils

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var testMongoURI string

func init() {
	loadTestEnv()
}

// loadTestEnv loads .env from the project root so tests pick up MONGO_URI_TEST.
func loadTestEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "..", "..")
	if err := godotenv.Load(filepath.Join(projectRoot, ".env")); err != nil {
		godotenv.Load()
	}
	testMongoURI = os.Getenv("MONGO_URI_TEST")
}

// SetupTestDB connects to the test MongoDB instance, returns the named
// database and drops the given collections for a clean slate. Tests are
// skipped when MONGO_URI_TEST is not configured.
func SetupTestDB(t *testing.T, dbName string, collections ...string) *mongo.Database {
	t.Helper()
	if testMongoURI == "" {
		t.Skip("MONGO_URI_TEST not set; skipping database-backed test")
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(testMongoURI))
	require.NoError(t, err, "Failed to connect to MongoDB")
	db := client.Database(dbName)
	for _, collection := range collections {
		_ = db.Collection(collection).Drop(context.Background())
	}
	return db
}

// TeardownTestDB drops the test database and disconnects the client.
func TeardownTestDB(t *testing.T, db *mongo.Database) {
	t.Helper()
	if err := db.Drop(context.Background()); err != nil {
		t.Logf("Failed to drop database %s: %v", db.Name(), err)
	}
	if err := db.Client().Disconnect(context.Background()); err != nil {
		t.Logf("Failed to disconnect MongoDB client: %v", err)
	}
}
