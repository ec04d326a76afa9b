// Package ena implements the analysis catalog over the ENA portal API.
package ena

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/vcf-ingest/internal/logger"
)

// reportFields are the analysis fields requested from filereport.
const reportFields = "run_ref,analysis_accession,submitted_ftp,submitted_aspera,tax_id"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Ensure Client implements the interface.
var _ driven.CatalogClient = (*Client)(nil)

// Client queries filereport and filereportcount with bounded retries and a
// client-side request rate limit.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	limiter *rate.Limiter
}

// NewClient creates a catalog client from catalog settings.
func NewClient(settings domain.CatalogSettings) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = settings.RetryMax
	httpClient.RetryWaitMin = settings.RetryWaitMin
	httpClient.RetryWaitMax = settings.RetryWaitMax
	httpClient.Logger = logger.Leveled{Prefix: "catalog: "}
	// Surface the last response instead of a generic "giving up" error.
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	limit := rate.Inf
	if settings.RequestsPerSecond > 0 {
		limit = rate.Limit(settings.RequestsPerSecond)
	}

	return &Client{
		baseURL: strings.TrimRight(settings.BaseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Count returns the number of analyses in project.
func (c *Client) Count(ctx context.Context, project string) (int, error) {
	q := url.Values{}
	q.Set("accession", project)
	q.Set("result", "analysis")

	body, err := c.get(ctx, "filereportcount", q)
	if err != nil {
		return 0, err
	}
	return parseCount(body)
}

// List returns one page of analyses. offset == 0 && limit == 0 fetches the
// whole listing.
func (c *Client) List(ctx context.Context, project string, offset, limit int) ([]domain.AnalysisRecord, error) {
	q := url.Values{}
	q.Set("result", "analysis")
	q.Set("accession", project)
	if offset > 0 || limit > 0 {
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(limit))
	} else {
		q.Set("limit", "0")
	}
	q.Set("format", "json")
	q.Set("fields", reportFields)

	body, err := c.get(ctx, "filereport", q)
	if err != nil {
		return nil, err
	}
	// An empty page comes back as an empty body rather than [].
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var records []domain.AnalysisRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode analyses of %s: %w", project, err)
	}
	logger.Debug("Fetched %d analyses of %s (offset=%d, limit=%d)", len(records), project, offset, limit)
	return records, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + "/" + endpoint + "?" + q.Encode()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrTransientRemote, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %w", domain.ErrTransientRemote, endpoint, err)
	}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s returned %s", domain.ErrTransientRemote, endpoint, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s returned %s: %s", endpoint, resp.Status, snippet(body))
	}
	return body, nil
}

// parseCount accepts a bare number, a JSON number or {"count": n}.
func parseCount(body []byte) (int, error) {
	text := strings.TrimSpace(string(body))
	if n, err := strconv.Atoi(text); err == nil {
		return n, nil
	}

	var wrapped struct {
		Count jsoniter.Number `json:"count"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Count != "" {
		n, err := strconv.Atoi(string(wrapped.Count))
		if err == nil {
			return n, nil
		}
	}

	var n jsoniter.Number
	if err := json.Unmarshal(body, &n); err == nil {
		if v, err := strconv.Atoi(string(n)); err == nil {
			return v, nil
		}
	}
	return 0, errors.New("unexpected analysis count response: " + snippet(body))
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
