package sdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Record is one row from a user-scoped table.
type Record = map[string]any

type recordList struct {
	Items      []Record `json:"items"`
	TotalCount int      `json:"total_count"`
}

// ReadRecords returns the caller's rows in table, narrowed by equality
// filters on allowlisted columns.
func (c *Client) ReadRecords(ctx context.Context, table string, filters map[string]string) ([]Record, error) {
	query := url.Values{}
	for k, v := range filters {
		query.Set(k, v)
	}

	var resp recordList
	if err := c.do(ctx, http.MethodGet, "/api/v1/records/"+url.PathEscape(table), query, nil, &resp, false); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// CreateRecord inserts a row owned by the caller and returns it.
func (c *Client) CreateRecord(ctx context.Context, table string, data Record) (Record, error) {
	var row Record
	if err := c.do(ctx, http.MethodPost, "/api/v1/records/"+url.PathEscape(table), nil, data, &row, false); err != nil {
		return nil, err
	}
	return row, nil
}

// UpdateRecord modifies the caller's row with the given id and returns it.
func (c *Client) UpdateRecord(ctx context.Context, table, id string, data Record) (Record, error) {
	path := fmt.Sprintf("/api/v1/records/%s/%s", url.PathEscape(table), url.PathEscape(id))
	var row Record
	if err := c.do(ctx, http.MethodPatch, path, nil, data, &row, false); err != nil {
		return nil, err
	}
	return row, nil
}

// DeleteRecord removes the caller's row with the given id.
func (c *Client) DeleteRecord(ctx context.Context, table, id string) error {
	path := fmt.Sprintf("/api/v1/records/%s/%s", url.PathEscape(table), url.PathEscape(id))
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil, false)
}
