package externalcall

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Meesho/BharatMLStack/trainflow/pkg/metric"
	"github.com/rs/zerolog/log"
)

// CatalogDataset is one listing from the external dataset catalog.
type CatalogDataset struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SizeLabel   string   `json:"size_label"`
	LastUpdated string   `json:"last_updated"`
	DownloadURL string   `json:"download_url"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Columns     []string `json:"columns,omitempty"`
	RowCount    int      `json:"row_count,omitempty"`
}

type CatalogClient interface {
	ListDatasets(category string) ([]CatalogDataset, error)
}

type catalogClientImpl struct {
	BaseURL    string
	HTTPClient *http.Client
	APIKey     string

	cacheTTL   time.Duration
	cacheMutex sync.Mutex
	cache      map[string]catalogCacheEntry
}

type catalogCacheEntry struct {
	datasets  []CatalogDataset
	fetchedAt time.Time
}

type catalogListResponse struct {
	Datasets []CatalogDataset `json:"datasets"`
}

// NewCatalogClient creates a catalog client. Listings are cached per category
// for cacheTTL; a zero TTL disables caching.
func NewCatalogClient(baseURL string, apiKey string, cacheTTL time.Duration) CatalogClient {
	return &catalogClientImpl{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		APIKey:   apiKey,
		cacheTTL: cacheTTL,
		cache:    make(map[string]catalogCacheEntry),
	}
}

// ListDatasets fetches the catalog listing, optionally filtered by category.
func (c *catalogClientImpl) ListDatasets(category string) ([]CatalogDataset, error) {
	cacheKey := category
	if cacheKey == "" {
		cacheKey = "all"
	}
	if datasets, ok := c.cached(cacheKey); ok {
		return datasets, nil
	}

	requestURL := fmt.Sprintf("%s/api/v1/datasets", c.BaseURL)
	if category != "" {
		requestURL += "?category=" + url.QueryEscape(category)
	}

	req, err := http.NewRequest(http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	started := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("category", cacheKey).Msg("Catalog listing request failed")
		return nil, err
	}
	defer resp.Body.Close()

	metric.Timing(metric.CatalogRequestLatency, time.Since(started), nil)
	metric.Incr(metric.CatalogRequestCount, metric.BuildTag(
		metric.NewTag(metric.TagHttpStatus, fmt.Sprintf("%d", resp.StatusCode)),
	))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog listing returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed catalogListResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding catalog listing: %w", err)
	}

	c.store(cacheKey, parsed.Datasets)
	return parsed.Datasets, nil
}

func (c *catalogClientImpl) cached(key string) ([]CatalogDataset, bool) {
	if c.cacheTTL <= 0 {
		return nil, false
	}
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()
	entry, ok := c.cache[key]
	if !ok || time.Since(entry.fetchedAt) > c.cacheTTL {
		return nil, false
	}
	return entry.datasets, true
}

func (c *catalogClientImpl) store(key string, datasets []CatalogDataset) {
	if c.cacheTTL <= 0 {
		return
	}
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()
	c.cache[key] = catalogCacheEntry{datasets: datasets, fetchedAt: time.Now()}
}
