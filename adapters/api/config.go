// Package api reads data matrices from paginated JSON REST endpoints.
package api

import (
	"fmt"
	"time"
)

// APIDataSource describes how to page through an endpoint and where its records live
type APIDataSource struct {
	Headers     map[string]string `json:"headers,omitempty"`
	QueryParams map[string]string `json:"query_params,omitempty"`

	// Authentication
	AuthMethod string `json:"auth_method"` // "none", "bearer", "api_key", "basic"
	AuthToken  string `json:"auth_token,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`

	// DataPath is a gjson path to the record array, e.g. "data.items". Empty means the
	// response body itself is the array.
	DataPath string `json:"data_path"`
	// Fields selects and orders the columns; empty means every field of the first record.
	Fields []string `json:"fields,omitempty"`

	// Pagination
	PaginationType string `json:"pagination_type"` // "none", "offset", "cursor", "page"
	PageSize       int    `json:"page_size"`
	MaxPages       int    `json:"max_pages"`

	Timeout time.Duration `json:"timeout"`

	FillEmpty bool    `json:"fill_empty"`
	FillValue float64 `json:"fill_value"`
}

// DefaultAPIDataSource returns an unauthenticated single-page source
func DefaultAPIDataSource() APIDataSource {
	return APIDataSource{
		AuthMethod:     "none",
		PaginationType: "none",
		PageSize:       100,
		MaxPages:       10,
		Timeout:        30 * time.Second,
	}
}

// Validate checks the pagination and auth settings
func (c APIDataSource) Validate() error {
	switch c.PaginationType {
	case "", "none", "cursor":
	case "offset", "page":
		if c.PageSize <= 0 {
			return &ValidationError{Field: "PageSize", Message: "must be positive for " + c.PaginationType + " pagination"}
		}
	default:
		return &ValidationError{Field: "PaginationType", Message: fmt.Sprintf("unknown pagination type %q", c.PaginationType)}
	}
	if c.MaxPages < 0 {
		return &ValidationError{Field: "MaxPages", Message: "must not be negative"}
	}
	switch c.AuthMethod {
	case "", "none", "bearer", "api_key", "basic":
	default:
		return &ValidationError{Field: "AuthMethod", Message: fmt.Sprintf("unknown auth method %q", c.AuthMethod)}
	}
	return nil
}

// ValidationError reports an invalid data source setting
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}
