package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

// Item is the catalog's current view of one SKU. Price is in minor units.
type Item struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Available bool   `json:"available"`
}

// Catalog resolves SKUs for a tenant. A failed lookup is reported as an
// error; callers never receive substituted data.
type Catalog interface {
	Lookup(ctx context.Context, tenantID uuid.UUID, skus []string) (map[string]Item, error)
}

type HTTPCatalog struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func NewHTTPCatalog(log *logger.Logger, baseURL string, timeout time.Duration) (*HTTPCatalog, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("catalog base url required")
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPCatalog{
		log:     log.With("service", "CatalogClient"),
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

type lookupResponse struct {
	Items []Item `json:"items"`
}

func (c *HTTPCatalog) Lookup(ctx context.Context, tenantID uuid.UUID, skus []string) (map[string]Item, error) {
	const op = "catalog.lookup"
	out := map[string]Item{}
	if len(skus) == 0 {
		return out, nil
	}
	uniq := map[string]struct{}{}
	for _, s := range skus {
		if s = strings.TrimSpace(s); s != "" {
			uniq[s] = struct{}{}
		}
	}
	list := make([]string, 0, len(uniq))
	for s := range uniq {
		list = append(list, s)
	}
	sort.Strings(list)

	endpoint := fmt.Sprintf("%s/tenants/%s/items?skus=%s", c.baseURL, tenantID, url.QueryEscape(strings.Join(list, ",")))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("Catalog lookup failed", "tenant_id", tenantID, "error", err)
		return nil, domainagg.Wrap(domainagg.CodeRetryable, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.log.Warn("Catalog lookup returned error status", "tenant_id", tenantID, "status", resp.StatusCode)
		return nil, domainagg.NewError(
			domainagg.CodeRetryable,
			op,
			fmt.Sprintf("catalog responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			nil,
		)
	}

	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, domainagg.Wrap(domainagg.CodeRetryable, op, fmt.Errorf("decode catalog response: %w", err))
	}
	for _, it := range payload.Items {
		if _, wanted := uniq[it.SKU]; wanted {
			out[it.SKU] = it
		}
	}
	return out, nil
}
