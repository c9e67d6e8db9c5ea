// Package airtable implements the table store on top of the Airtable REST API.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/utilityprofit/moveout-tracker/internal/tables"
)

// DefaultBaseURL is the public Airtable API endpoint.
const DefaultBaseURL = "https://api.airtable.com/v0"

// Config holds the credentials and endpoint for one Airtable base.
type Config struct {
	APIKey  string
	BaseID  string
	BaseURL string // defaults to DefaultBaseURL
	Timeout time.Duration
}

// Client is a tables.Store backed by one Airtable base.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New creates an Airtable client. It makes no network calls.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" || cfg.BaseID == "" {
		return nil, fmt.Errorf("airtable: api key and base id are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}, nil
}

type apiRecord struct {
	ID     string        `json:"id"`
	Fields tables.Fields `json:"fields"`
}

type listResponse struct {
	Records []apiRecord `json:"records"`
	Offset  string      `json:"offset"`
}

// APIError is a non-success response from Airtable.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("airtable %d %s: %s", e.Status, e.Type, e.Message)
	}
	return fmt.Sprintf("airtable %d %s", e.Status, e.Type)
}

// Formula renders a filter as an Airtable formula.
func Formula(f *tables.Filter) string {
	if f == nil || len(f.Values) == 0 {
		return ""
	}
	conds := make([]string, len(f.Values))
	for i, v := range f.Values {
		conds[i] = fmt.Sprintf("{%s} = %s", f.Field, quote(v))
	}
	if len(conds) == 1 {
		return conds[0]
	}
	return "OR(" + strings.Join(conds, ",") + ")"
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func (c *Client) tableURL(table string) string {
	return c.cfg.BaseURL + "/" + url.PathEscape(c.cfg.BaseID) + "/" + url.PathEscape(table)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	apiErr := &APIError{Status: status}
	var wrapped struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &wrapped) == nil && len(wrapped.Error) > 0 {
		var detail struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}
		if json.Unmarshal(wrapped.Error, &detail) == nil {
			apiErr.Type, apiErr.Message = detail.Type, detail.Message
		} else {
			var s string
			_ = json.Unmarshal(wrapped.Error, &s)
			apiErr.Type = s
		}
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %v", tables.ErrRecordNotFound, apiErr)
	}
	return apiErr
}

func toRecords(in []apiRecord) []tables.Record {
	out := make([]tables.Record, len(in))
	for i, r := range in {
		if r.Fields == nil {
			r.Fields = tables.Fields{}
		}
		out[i] = tables.Record{ID: r.ID, Fields: r.Fields}
	}
	return out
}

// Select lists matching records, following pagination offsets until MaxRecords or the end.
func (c *Client) Select(ctx context.Context, table string, q tables.Query) ([]tables.Record, error) {
	params := url.Values{}
	if f := Formula(q.Filter); f != "" {
		params.Set("filterByFormula", f)
	}
	if q.MaxRecords > 0 {
		params.Set("maxRecords", strconv.Itoa(q.MaxRecords))
	}
	for i, s := range q.Sort {
		params.Set(fmt.Sprintf("sort[%d][field]", i), s.Field)
		dir := s.Direction
		if dir == "" {
			dir = tables.Asc
		}
		params.Set(fmt.Sprintf("sort[%d][direction]", i), string(dir))
	}

	var out []tables.Record
	for {
		var page listResponse
		if err := c.do(ctx, http.MethodGet, c.tableURL(table)+"?"+params.Encode(), nil, &page); err != nil {
			return nil, err
		}
		out = append(out, toRecords(page.Records)...)
		if page.Offset == "" || (q.MaxRecords > 0 && len(out) >= q.MaxRecords) {
			break
		}
		params.Set("offset", page.Offset)
	}
	c.logger.Debug("airtable select", zap.String("table", table), zap.Int("records", len(out)))
	return out, nil
}

// Create inserts up to tables.MaxBatch records in one request.
func (c *Client) Create(ctx context.Context, table string, rows []tables.Fields) ([]tables.Record, error) {
	if err := tables.CheckBatch(len(rows)); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	type createRecord struct {
		Fields tables.Fields `json:"fields"`
	}
	body := struct {
		Records []createRecord `json:"records"`
	}{Records: make([]createRecord, len(rows))}
	for i, f := range rows {
		body.Records[i] = createRecord{Fields: f}
	}
	var resp listResponse
	if err := c.do(ctx, http.MethodPost, c.tableURL(table), body, &resp); err != nil {
		return nil, err
	}
	return toRecords(resp.Records), nil
}

// Update patches one record and returns it with every stored field.
func (c *Client) Update(ctx context.Context, table, id string, fields tables.Fields) (tables.Record, error) {
	body := struct {
		Fields tables.Fields `json:"fields"`
	}{Fields: fields}
	if body.Fields == nil {
		body.Fields = tables.Fields{}
	}
	var rec apiRecord
	if err := c.do(ctx, http.MethodPatch, c.tableURL(table)+"/"+url.PathEscape(id), body, &rec); err != nil {
		return tables.Record{}, err
	}
	return toRecords([]apiRecord{rec})[0], nil
}

// Destroy deletes up to tables.MaxBatch records in one request.
func (c *Client) Destroy(ctx context.Context, table string, ids []string) error {
	if err := tables.CheckBatch(len(ids)); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	params := url.Values{}
	for _, id := range ids {
		params.Add("records[]", id)
	}
	return c.do(ctx, http.MethodDelete, c.tableURL(table)+"?"+params.Encode(), nil, nil)
}
