package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"gocausal/internal"

	"github.com/tidwall/gjson"
)

// APIReader handles fetching records from REST API endpoints
type APIReader struct {
	config     APIDataSource
	httpClient *http.Client
	logger     *internal.Logger
}

// NewAPIReader creates a new API reader for a data source
func NewAPIReader(config APIDataSource, logger *internal.Logger) *APIReader {
	if config.MaxPages <= 0 {
		config.MaxPages = 1
	}
	return &APIReader{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     internal.OrDefault(logger).With("api"),
	}
}

// FetchRecords pages through baseURL and returns every record in arrival order
func (r *APIReader) FetchRecords(ctx context.Context, baseURL string) ([]gjson.Result, error) {
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	var records []gjson.Result
	cursor := ""
	for page := 0; page < r.config.MaxPages; page++ {
		requestURL, err := r.buildURL(baseURL, cursor, page)
		if err != nil {
			return nil, err
		}
		body, err := r.get(ctx, requestURL)
		if err != nil {
			return nil, err
		}

		pageRecords, err := r.parseResponse(body)
		if err != nil {
			return nil, err
		}
		records = append(records, pageRecords...)
		r.logger.Debug("page %d of %s: %d records", page+1, baseURL, len(pageRecords))

		cursor = extractNextCursor(body)
		if !r.hasMorePages(len(pageRecords), cursor) {
			break
		}
	}
	return records, nil
}

// buildURL adds the configured query parameters and pagination to baseURL
func (r *APIReader) buildURL(baseURL, cursor string, page int) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid source url %q: %w", baseURL, err)
	}
	query := u.Query()
	for k, v := range r.config.QueryParams {
		query.Set(k, v)
	}

	switch r.config.PaginationType {
	case "offset":
		query.Set("offset", strconv.Itoa(page*r.config.PageSize))
		query.Set("limit", strconv.Itoa(r.config.PageSize))
	case "page":
		query.Set("page", strconv.Itoa(page+1))
		query.Set("per_page", strconv.Itoa(r.config.PageSize))
	case "cursor":
		if cursor != "" {
			query.Set("cursor", cursor)
		}
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func (r *APIReader) get(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range r.config.Headers {
		req.Header.Set(k, v)
	}
	switch r.config.AuthMethod {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+r.config.AuthToken)
	case "api_key":
		req.Header.Set("X-API-Key", r.config.AuthToken)
	case "basic":
		req.SetBasicAuth(r.config.Username, r.config.Password)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("API returned invalid JSON")
	}
	return body, nil
}

// parseResponse extracts the records found at the data path
func (r *APIReader) parseResponse(body []byte) ([]gjson.Result, error) {
	data := gjson.ParseBytes(body)
	if r.config.DataPath != "" {
		data = data.Get(r.config.DataPath)
		if !data.Exists() {
			return nil, fmt.Errorf("data path '%s' not found in response", r.config.DataPath)
		}
	}

	switch {
	case data.IsArray():
		return data.Array(), nil
	case data.IsObject():
		return []gjson.Result{data}, nil
	}
	return nil, fmt.Errorf("data path '%s' is not an array or object", r.config.DataPath)
}

// hasMorePages determines if there are more pages to fetch
func (r *APIReader) hasMorePages(pageRecords int, cursor string) bool {
	switch r.config.PaginationType {
	case "offset", "page":
		return pageRecords >= r.config.PageSize
	case "cursor":
		return cursor != ""
	}
	return false
}

// extractNextCursor extracts cursor for next page
func extractNextCursor(body []byte) string {
	for _, field := range []string{"next_cursor", "cursor", "next", "continuation_token"} {
		if cursor := gjson.GetBytes(body, field); cursor.Exists() && cursor.Type == gjson.String && cursor.String() != "" {
			return cursor.String()
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
