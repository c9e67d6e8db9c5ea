package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utilityprofit/moveout-tracker/internal/tables"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{APIKey: "key", BaseID: "appBase", BaseURL: srv.URL + "/"}, nil)
	require.NoError(t, err)
	return c
}

func TestFormula(t *testing.T) {
	assert.Equal(t, "", Formula(nil))
	assert.Equal(t, `{slug} = "acme"`, Formula(tables.Eq("slug", "acme")))
	assert.Equal(t, `OR({property_id} = "p1",{property_id} = "p2")`,
		Formula(tables.AnyOf("property_id", []string{"p1", "p2"})))
	assert.Equal(t, `{slug} = "a\"b"`, Formula(tables.Eq("slug", `a"b`)))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{BaseID: "app"}, nil)
	require.Error(t, err)
}

func TestSelectFollowsOffset(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "/appBase/tblProps", r.URL.Path)
		assert.Equal(t, `{company_slug} = "acme"`, r.URL.Query().Get("filterByFormula"))
		assert.Equal(t, "timestamp", r.URL.Query().Get("sort[0][field]"))
		assert.Equal(t, "desc", r.URL.Query().Get("sort[0][direction]"))
		if r.URL.Query().Get("offset") == "" {
			_, _ = w.Write([]byte(`{"records":[{"id":"rec1","fields":{"address":"1 Main"}}],"offset":"next"}`))
			return
		}
		_, _ = w.Write([]byte(`{"records":[{"id":"rec2"}]}`))
	})

	recs, err := c.Select(context.Background(), "tblProps", tables.Query{
		Filter: tables.Eq("company_slug", "acme"),
		Sort:   []tables.Sort{{Field: "timestamp", Direction: tables.Desc}},
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "1 Main", recs[0].Fields.String("address"))
	assert.NotNil(t, recs[1].Fields)
}

func TestCreateSendsRecords(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body struct {
			Records []struct {
				Fields map[string]any `json:"fields"`
			} `json:"records"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Records, 2)
		_, _ = w.Write([]byte(`{"records":[{"id":"recA","fields":{"utility_type":"Gas"}},{"id":"recB","fields":{"utility_type":"Water"}}]}`))
	})
	recs, err := c.Create(context.Background(), "tblT", []tables.Fields{{"utility_type": "Gas"}, {"utility_type": "Water"}})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "recB", recs[1].ID)
}

func TestBatchLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	ids := make([]string, tables.MaxBatch+1)
	require.ErrorIs(t, c.Destroy(context.Background(), "tblT", ids), tables.ErrBatchTooLarge)
	_, err := c.Create(context.Background(), "tblT", make([]tables.Fields, tables.MaxBatch+1))
	require.ErrorIs(t, err, tables.ErrBatchTooLarge)
}

func TestDestroyAndErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			assert.Equal(t, []string{"rec1", "rec2"}, r.URL.Query()["records[]"])
			_, _ = w.Write([]byte(`{"records":[]}`))
		case http.MethodPatch:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"NOT_FOUND"}`))
		default:
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":{"type":"INVALID_FILTER_BY_FORMULA","message":"bad formula"}}`))
		}
	})
	ctx := context.Background()
	require.NoError(t, c.Destroy(ctx, "tblT", []string{"rec1", "rec2"}))

	_, err := c.Update(ctx, "tblT", "missing", tables.Fields{"status": "Called"})
	require.ErrorIs(t, err, tables.ErrRecordNotFound)

	_, err = c.Select(ctx, "tblT", tables.Query{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "INVALID_FILTER_BY_FORMULA", apiErr.Type)
}
