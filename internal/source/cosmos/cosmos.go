// Package cosmos reads spending rows from an Azure Cosmos DB container.
package cosmos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"

	"govspend/internal/core"
	"govspend/internal/source"
)

// Query is the fixed projection run against the container.
const Query = "SELECT c.department, c.year, c.amount FROM c"

var _ source.RowReader = (*Client)(nil)

// Config holds the account endpoint, key and the container to query.
type Config struct {
	Endpoint    string
	Key         string
	DatabaseID  string
	ContainerID string
}

// Missing lists the names of unset settings.
func (c Config) Missing() []string {
	var missing []string
	if strings.TrimSpace(c.Endpoint) == "" {
		missing = append(missing, "COSMOS_ENDPOINT")
	}
	if strings.TrimSpace(c.Key) == "" {
		missing = append(missing, "COSMOS_KEY")
	}
	if strings.TrimSpace(c.DatabaseID) == "" {
		missing = append(missing, "COSMOS_DATABASE")
	}
	if strings.TrimSpace(c.ContainerID) == "" {
		missing = append(missing, "COSMOS_CONTAINER")
	}
	return missing
}

// pager is satisfied by *runtime.Pager[azcosmos.QueryItemsResponse].
type pager interface {
	More() bool
	NextPage(ctx context.Context) (azcosmos.QueryItemsResponse, error)
}

type Client struct {
	cfg      Config
	newPager func(query string) pager
	setupErr error
}

// New prepares a container client. Incomplete settings are not an error here:
// like a misconfigured deployment, they surface on the first ReadRows.
func New(cfg Config) *Client {
	c := &Client{cfg: cfg}
	if missing := cfg.Missing(); len(missing) > 0 {
		c.setupErr = fmt.Errorf("%w: missing %s", source.ErrNotConfigured, strings.Join(missing, ", "))
		return c
	}

	cred, err := azcosmos.NewKeyCredential(cfg.Key)
	if err != nil {
		c.setupErr = fmt.Errorf("%w: key credential: %v", source.ErrNotConfigured, err)
		return c
	}
	client, err := azcosmos.NewClientWithKey(cfg.Endpoint, cred, nil)
	if err != nil {
		c.setupErr = fmt.Errorf("%w: create client: %v", source.ErrNotConfigured, err)
		return c
	}
	container, err := client.NewContainer(cfg.DatabaseID, cfg.ContainerID)
	if err != nil {
		c.setupErr = fmt.Errorf("%w: container %s/%s: %v", source.ErrNotConfigured, cfg.DatabaseID, cfg.ContainerID, err)
		return c
	}
	c.newPager = func(query string) pager {
		// An empty partition key makes the query fan out across partitions.
		return container.NewQueryItemsPager(query, azcosmos.NewPartitionKey(), nil)
	}
	return c
}

// ReadRows drains every page of the fixed query.
func (c *Client) ReadRows(ctx context.Context) ([]core.RawRow, error) {
	if c.setupErr != nil {
		return nil, c.setupErr
	}

	start := time.Now()
	p := c.newPager(Query)
	rows := make([]core.RawRow, 0)
	var charge float32
	for p.More() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, classify(err)
		}
		charge += page.RequestCharge
		for _, item := range page.Items {
			row, err := decodeItem(item)
			if err != nil {
				return nil, fmt.Errorf("decode cosmos item: %w", err)
			}
			rows = append(rows, row)
		}
	}

	slog.DebugContext(ctx, "Cosmos DB query completed",
		"database", c.cfg.DatabaseID,
		"container", c.cfg.ContainerID,
		"rows", len(rows),
		"request_charge", charge,
		"duration_ms", time.Since(start).Milliseconds())
	return rows, nil
}

func decodeItem(item []byte) (core.RawRow, error) {
	dec := json.NewDecoder(bytes.NewReader(item))
	dec.UseNumber()
	var row core.RawRow
	if err := dec.Decode(&row); err != nil {
		return nil, err
	}
	if row == nil {
		row = core.RawRow{}
	}
	return row, nil
}

func classify(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("query cosmos: %w: %v", source.ErrUnauthorized, err)
		}
	}
	return fmt.Errorf("query cosmos: %w", err)
}
