package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ErrRequest is returned when Elasticsearch answers with an error status.
var ErrRequest = errors.New("search: request failed")

// Hit is one document returned by a search.
type Hit struct {
	ID     string          `json:"_id"`
	Source json.RawMessage `json:"_source"`
}

// Client is the subset of Elasticsearch operations the index uses.
type Client interface {
	Ping(ctx context.Context) error
	EnsureIndex(ctx context.Context, index string, mapping []byte) error
	IndexDocument(ctx context.Context, index, id string, body []byte) error
	// DeleteDocument removes a document; a missing document is not an error.
	DeleteDocument(ctx context.Context, index, id string) error
	DeleteAll(ctx context.Context, index string) error
	Search(ctx context.Context, index string, body []byte) ([]Hit, error)
}

// Config holds Elasticsearch connection settings.
type Config struct {
	Addresses []string
	Username  string
	Password  string
}

// ESClient implements Client with go-elasticsearch.
type ESClient struct {
	es *elasticsearch.Client
}

// NewClient creates an Elasticsearch client. No request is made until
// the first call.
func NewClient(cfg Config) (*ESClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}
	return &ESClient{es: es}, nil
}

// Ping checks the cluster answers.
func (c *ESClient) Ping(ctx context.Context) error {
	res, err := c.es.Info(c.es.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("pinging elasticsearch: %w", err)
	}
	return consume(res, "ping")
}

// EnsureIndex creates index with mapping unless it already exists.
func (c *ESClient) EnsureIndex(ctx context.Context, index string, mapping []byte) error {
	res, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("checking index %s: %w", index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = c.es.Indices.Create(index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("creating index %s: %w", index, err)
	}
	return consume(res, "create index "+index)
}

// IndexDocument stores body under id, waiting for it to become searchable.
func (c *ESClient) IndexDocument(ctx context.Context, index, id string, body []byte) error {
	res, err := c.es.Index(index, bytes.NewReader(body),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(id),
		c.es.Index.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", id, err)
	}
	return consume(res, "index "+id)
}

// DeleteDocument removes id from index.
func (c *ESClient) DeleteDocument(ctx context.Context, index, id string) error {
	res, err := c.es.Delete(index, id,
		c.es.Delete.WithContext(ctx),
		c.es.Delete.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil
	}
	return consume(res, "delete "+id)
}

// DeleteAll removes every document from index.
func (c *ESClient) DeleteAll(ctx context.Context, index string) error {
	res, err := c.es.DeleteByQuery([]string{index},
		strings.NewReader(`{"query":{"match_all":{}}}`),
		c.es.DeleteByQuery.WithContext(ctx),
		c.es.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return fmt.Errorf("clearing index %s: %w", index, err)
	}
	return consume(res, "clear "+index)
}

// Search runs a search request body against index.
func (c *ESClient) Search(ctx context.Context, index string, body []byte) ([]Hit, error) {
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, statusError(res, "search "+index)
	}

	var parsed struct {
		Hits struct {
			Hits []Hit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return parsed.Hits.Hits, nil
}

// consume closes the response body and converts error statuses.
func consume(res *esapi.Response, op string) error {
	defer res.Body.Close()
	if res.IsError() {
		return statusError(res, op)
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

func statusError(res *esapi.Response, op string) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("%w: %s: status %d: %s", ErrRequest, op, res.StatusCode, strings.TrimSpace(string(body)))
}
