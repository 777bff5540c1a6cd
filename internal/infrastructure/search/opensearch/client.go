// Package opensearch provides the OpenSearch-backed corpus reader used for
// large patent corpora.  It is optional: deployments enable it via
// configuration and otherwise read the corpus from PostgreSQL.
package opensearch

import (
	"context"
	"crypto/tls"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/turtacn/PatentSentinel/internal/config"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// Client wraps the OpenSearch connection.
type Client struct {
	client *opensearch.Client
	cfg    config.OpenSearchConfig
	log    logging.Logger
}

// NewClient creates an OpenSearch client and verifies connectivity.
func NewClient(ctx context.Context, cfg config.OpenSearchConfig, log logging.Logger) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.Validation("opensearch addresses must not be empty")
	}

	transport := &http.Transport{}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	osClient, err := opensearch.NewClient(opensearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.User,
		Password:      cfg.Password,
		Transport:     transport,
		RetryOnStatus: []int{429, 502, 503, 504},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to create opensearch client")
	}

	c := &Client{client: osClient, cfg: cfg, log: log}
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}

	log.Info("connected to OpenSearch", logging.Any("addresses", cfg.Addresses))
	return c, nil
}

// Ping verifies the cluster is reachable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "opensearch is unreachable")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return errors.Newf(errors.ErrCodeStorage, "opensearch ping returned status %d", resp.StatusCode)
	}
	return nil
}

// Raw exposes the underlying client.
func (c *Client) Raw() *opensearch.Client {
	return c.client
}
