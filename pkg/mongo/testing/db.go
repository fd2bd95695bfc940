package mongotesting

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/malbeclabs/analyst/pkg/mongo"
)

type DBConfig struct {
	Database       string
	ContainerImage string
}

type DB struct {
	*mongo.Client
	Database string
}

func (cfg *DBConfig) Validate() error {
	if cfg.Database == "" {
		cfg.Database = "test"
	}
	if cfg.ContainerImage == "" {
		cfg.ContainerImage = "mongo:7"
	}
	return nil
}

func NewDefaultDB(t testing.TB) *DB {
	return NewDB(t, nil)
}

// NewDB starts a MongoDB container for the duration of the test and returns
// a connected client. The container is removed on cleanup.
func NewDB(t testing.TB, cfg *DBConfig) *DB {
	ctx := t.Context()

	if cfg == nil {
		cfg = &DBConfig{}
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("failed to validate DB config: %v", err)
	}

	// Retry container start up to 3 times for retryable errors
	var container *tcmongo.MongoDBContainer
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		var err error
		container, err = tcmongo.Run(ctx, cfg.ContainerImage)
		testcontainers.CleanupContainer(t, container)
		if err != nil {
			lastErr = err
			if isRetryableContainerStartErr(err) && attempt < 3 {
				time.Sleep(time.Duration(attempt) * 750 * time.Millisecond)
				continue
			}
			require.NoError(t, err)
		}
		break
	}

	if container == nil {
		t.Fatalf("failed to start MongoDB container after retries: %v", lastErr)
	}

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.NewClient(ctx, slog.Default(), uri, cfg.Database)
	require.NoError(t, err)

	db := &DB{
		Client:   client,
		Database: cfg.Database,
	}

	t.Cleanup(func() {
		if err := db.Close(context.Background()); err != nil {
			t.Logf("failed to close MongoDB client: %v", err)
		}
	})

	return db
}

func isRetryableContainerStartErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "wait until ready") ||
		strings.Contains(s, "mapped port") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "context deadline exceeded") ||
		strings.Contains(s, "/containers/") && strings.Contains(s, "json")
}
