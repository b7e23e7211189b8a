package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/nerrad567/twin-registry/internal/shell"
)

// connectTimeout bounds the initial ping.
const connectTimeout = 10 * time.Second

// Config contains MongoDB connection settings.
type Config struct {
	URI        string
	Database   string
	Collection string
	// Timeout is the per-operation client timeout. Zero leaves the driver default.
	Timeout time.Duration
}

// Client owns the driver connection and the shells collection.
type Client struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		opts.SetTimeout(cfg.Timeout)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background()) //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return &Client{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Close disconnects from the server.
func (c *Client) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnecting mongodb: %w", err)
	}
	return nil
}

// Aggregate runs pipeline and decodes every resulting document.
func (c *Client) Aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]*shell.Shell, error) {
	cur, err := c.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var out []*shell.Shell
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID returns the document with the given _id.
func (c *Client) FindByID(ctx context.Context, id string) (*shell.Shell, error) {
	var sh shell.Shell
	err := c.coll.FindOne(ctx, bson.D{{Key: fieldID, Value: id}}).Decode(&sh)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// Insert stores a new document.
func (c *Client) Insert(ctx context.Context, s *shell.Shell) error {
	_, err := c.coll.InsertOne(ctx, s)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}
	return err
}

// Replace swaps the document with the given _id.
func (c *Client) Replace(ctx context.Context, id string, s *shell.Shell) (int64, error) {
	res, err := c.coll.ReplaceOne(ctx, bson.D{{Key: fieldID, Value: id}}, s)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// Delete removes the document with the given _id.
func (c *Client) Delete(ctx context.Context, id string) (int64, error) {
	res, err := c.coll.DeleteOne(ctx, bson.D{{Key: fieldID, Value: id}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteAll removes every document in the collection.
func (c *Client) DeleteAll(ctx context.Context) error {
	_, err := c.coll.DeleteMany(ctx, bson.D{})
	return err
}

// Ping checks the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}
