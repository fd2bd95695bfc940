package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// DefaultCollection holds the superstore order lines.
	DefaultCollection = "superstore"

	defaultConnectTimeout = 5 * time.Second
	defaultPingMaxElapsed = 30 * time.Second
)

// Client wraps a MongoDB connection bound to one database.
type Client struct {
	log    *slog.Logger
	client *mongo.Client
	db     *mongo.Database
}

// NewClient connects to MongoDB and waits until the server answers a ping.
// The ping is retried with exponential backoff since the server may still be
// starting when the service comes up.
func NewClient(ctx context.Context, log *slog.Logger, uri, database string) (*Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo URI is required")
	}
	if database == "" {
		return nil, fmt.Errorf("mongo database is required")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(defaultConnectTimeout).
		SetServerSelectionTimeout(defaultConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		if attempt > 0 {
			log.Warn("mongo: ping failed, retrying", "attempt", attempt)
		}
		attempt++
		return struct{}{}, client.Ping(ctx, readpref.Primary())
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(defaultPingMaxElapsed))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info("mongo: client initialized", "database", database)

	return &Client{
		log:    log,
		client: client,
		db:     client.Database(database),
	}, nil
}

// Collection returns a handle to the named collection.
func (c *Client) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

// Ping checks that the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
