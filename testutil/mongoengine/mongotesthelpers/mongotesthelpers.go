package mongotesthelpers

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AntonStoeckl/library-ledger-go/ledger/mongoengine"
)

const (
	EnvTestURI = "LIBRARY_TEST_MONGO_URI"

	defaultConnectTimeout = 5 * time.Second
)

// TestURI returns the connection string of the test server or skips the test.
func TestURI(t *testing.T) string {
	t.Helper()

	uri := os.Getenv(EnvTestURI)
	if uri == "" {
		t.Skipf("%s is not set", EnvTestURI)
	}

	return uri
}

// NewClient connects to the test server. The client is disconnected with t.
func NewClient(t *testing.T) *mongo.Client {
	t.Helper()

	clientOptions := options.Client().
		ApplyURI(TestURI(t)).
		SetConnectTimeout(defaultConnectTimeout).
		SetServerSelectionTimeout(defaultConnectTimeout)

	client, err := mongo.Connect(context.Background(), clientOptions)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	require.NoError(t, client.Ping(context.Background(), nil))

	return client
}

// NewDatabase returns a database no other test uses. It is dropped with t.
func NewDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	name := "ledger_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	db := NewClient(t).Database(name)

	t.Cleanup(func() {
		if dropErr := db.Drop(context.Background()); dropErr != nil {
			t.Logf("dropping test database failed: %v", dropErr)
		}
	})

	return db
}

// NewStore creates a Store with its indexes on a fresh database.
func NewStore(t *testing.T, opts ...mongoengine.Option) mongoengine.Store {
	t.Helper()

	store, err := mongoengine.New(NewDatabase(t), opts...)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	return store
}
