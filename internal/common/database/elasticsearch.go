// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"mentor-match-workers/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	addresses := cfg.Addresses
	if len(addresses) == 0 && cfg.URL != "" {
		addresses = []string{cfg.URL}
	}

	esCfg := elasticsearch.Config{Addresses: addresses}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticsearchClient{Client: es}, nil
}

func (c *ElasticsearchClient) Name() string { return "elasticsearch" }

func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// MentorIndexMapping is the mapping the document backend expects. Names and
// enums are keywords so term filters match exactly.
const MentorIndexMapping = `{
  "mappings": {
    "properties": {
      "id":                 {"type": "keyword"},
      "university":         {"type": "keyword", "normalizer": "lowercase"},
      "major":              {"type": "keyword", "normalizer": "lowercase"},
      "degreeLevel":        {"type": "keyword", "normalizer": "lowercase"},
      "rating":             {"type": "float"},
      "totalSessions":      {"type": "integer"},
      "languages":          {"type": "keyword", "normalizer": "lowercase"},
      "specialties":        {"type": "keyword", "normalizer": "lowercase"},
      "verificationStatus": {"type": "keyword"},
      "graduationYear":     {"type": "integer"}
    }
  },
  "settings": {
    "analysis": {
      "normalizer": {
        "lowercase": {"type": "custom", "filter": ["lowercase"]}
      }
    }
  }
}`

// EnsureIndex creates index with body when it does not exist yet.
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context, index, body string) (bool, error) {
	res, err := c.Client.Indices.Exists([]string{index}, c.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("index exists check failed: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return false, nil
	}

	res, err = c.Client.Indices.Create(index,
		c.Client.Indices.Create.WithContext(ctx),
		c.Client.Indices.Create.WithBody(strings.NewReader(body)),
	)
	if err != nil {
		return false, fmt.Errorf("index create failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return false, fmt.Errorf("index create error: %s", res.String())
	}
	return true, nil
}
