package properties

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utilityprofit/moveout-tracker/internal/activity"
	"github.com/utilityprofit/moveout-tracker/internal/models"
	"github.com/utilityprofit/moveout-tracker/internal/records"
	"github.com/utilityprofit/moveout-tracker/internal/tables"
	"github.com/utilityprofit/moveout-tracker/internal/tables/memory"
	"github.com/utilityprofit/moveout-tracker/internal/tables/tablestest"
	"github.com/utilityprofit/moveout-tracker/internal/utilities"
	"github.com/utilityprofit/moveout-tracker/pkg/response"
	"github.com/utilityprofit/moveout-tracker/pkg/validate"
)

const (
	propertiesTable = "properties"
	transfersTable  = "utility_transfers"
	activityTable   = "activity_log"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := validate.BindGin(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fixture struct {
	store     *tablestest.Recorder
	repo      *Repository
	transfers *utilities.Repository
	activity  *activity.Repository
	router    *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := tablestest.New(memory.New())
	transfers := utilities.NewRepository(store, transfersTable)
	repo := NewRepository(store, propertiesTable, transfers, nil)
	repo.now = func() time.Time { return time.UnixMilli(1714564800000) }
	act := activity.NewRepository(store, activityTable)
	h := NewHandler(repo, transfers, activity.NewLogger(act, nil), nil)

	r := gin.New()
	r.POST("/api/property", h.Create)
	r.DELETE("/api/property", h.Delete)
	return &fixture{store: store, repo: repo, transfers: transfers, activity: act, router: r}
}

func (f *fixture) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// seedProperty stores a property owning n transfers and clears the recorded calls.
func (f *fixture) seedProperty(t *testing.T, key string, n int) models.Property {
	t.Helper()
	ctx := context.Background()
	p, err := f.repo.Create(ctx, records.PropertyCreate{
		CompanySlug: "acme", PropertyID: key, Address: "1 Main St", City: "Austin", State: "TX",
	})
	require.NoError(t, err)
	in := make([]records.UtilityCreate, n)
	for i := range in {
		in[i] = records.UtilityCreate{PropertyID: key, UtilityType: models.UtilityWater}
	}
	_, err = f.transfers.CreateMany(ctx, in)
	require.NoError(t, err)
	f.store.Reset()
	return p
}

func TestGenerateKey(t *testing.T) {
	now := time.UnixMilli(1714564800123)
	assert.Equal(t, "acme-12-oak-st--apt-4-1714564800123", GenerateKey("acme", "12 Oak St. Apt 4", now))

	long := GenerateKey("acme", strings.Repeat("A", 50), now)
	assert.Equal(t, "acme-"+strings.Repeat("a", 30)+"-1714564800123", long)
}

func TestCreateWithUtilities(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/property", map[string]interface{}{
		"company_slug":    "acme",
		"address":         "12 Oak St",
		"city":            "Austin",
		"state":           "TX",
		"zip":             "78701",
		"tenant_move_out": "2024-06-30",
		"utilities": []map[string]string{
			{"utility_type": "Electric", "provider_name": "Austin Energy"},
			{"utility_type": "Water"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got CreateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	p := got.Property
	assert.Equal(t, "acme-12-oak-st-1714564800000", p.PropertyID)
	assert.Equal(t, "2024-06-30", p.TenantMoveOut)
	require.Len(t, p.Utilities, 2)
	assert.Equal(t, models.UtilityElectric, p.Utilities[0].UtilityType)
	assert.Equal(t, models.UtilityWater, p.Utilities[1].UtilityType)
	for _, u := range p.Utilities {
		assert.Equal(t, models.StatusNotStarted, u.Status)
		assert.Equal(t, p.PropertyID, u.PropertyID)
	}
	assert.NotNil(t, p.Activity)
	assert.Empty(t, p.Activity)

	entries, err := f.activity.ListForProperties(context.Background(), []string{p.PropertyID})
	require.NoError(t, err)
	actions := map[string]int{}
	for _, e := range entries {
		actions[e.Action]++
	}
	assert.Equal(t, map[string]int{models.ActionPropertyCreated: 1, models.ActionUtilityAdded: 2}, actions)
}

func TestCreateWithoutUtilities(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/property", map[string]interface{}{
		"company_slug": "acme",
		"property_id":  "acme-custom",
		"address":      "12 Oak St",
		"city":         "Austin",
		"state":        "TX",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"utilities":[]`)
	assert.Contains(t, w.Body.String(), `"property_id":"acme-custom"`)
	assert.Empty(t, f.store.Calls("Create", transfersTable))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/property", map[string]string{"company_slug": "acme", "address": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields", decodeError(t, w))

	w = f.do(t, http.MethodPost, "/api/property", map[string]interface{}{
		"company_slug": "acme", "address": "x", "city": "y", "state": "z",
		"utilities": []map[string]string{{"utility_type": "Cable"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid utility_type: Cable", decodeError(t, w))

	assert.Empty(t, f.store.Calls("Create", ""))
}

func TestDeleteCascadesInBatches(t *testing.T) {
	f := newFixture(t)
	p := f.seedProperty(t, "P1", 25)

	w := f.do(t, http.MethodDelete, "/api/property?recordId="+p.ID+"&propertyId=P1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res models.PropertyDeleteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, p.ID, res.ID)
	assert.Equal(t, 25, res.TransfersDeleted)
	assert.Empty(t, res.FailedBatches)

	destroys := f.store.Calls("Destroy", transfersTable)
	assert.Len(t, destroys, 3)
	for _, c := range destroys {
		assert.LessOrEqual(t, len(c.IDs), tables.MaxBatch)
	}
	propDestroys := f.store.Calls("Destroy", propertiesTable)
	require.Len(t, propDestroys, 1)
	assert.Equal(t, []string{p.ID}, propDestroys[0].IDs)

	ids, err := f.transfers.IDsForProperty(context.Background(), "P1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	entries, err := f.activity.ListForProperties(context.Background(), []string{"P1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionPropertyDeleted, entries[0].Action)
	assert.Equal(t, "Property deleted (25 utilities removed)", entries[0].Detail)
}

func TestDeleteReportsFailedBatches(t *testing.T) {
	f := newFixture(t)
	p := f.seedProperty(t, "P1", 15)
	var failed atomic.Bool
	f.store.Fail = func(c tablestest.Call) bool {
		return c.Method == "Destroy" && c.Table == transfersTable && failed.CompareAndSwap(false, true)
	}

	w := f.do(t, http.MethodDelete, "/api/property?recordId="+p.ID+"&propertyId=P1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res models.PropertyDeleteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.FailedBatches, 1)
	assert.Regexp(t, `^batch [12] failed$`, res.FailedBatches[0])
	assert.NotContains(t, w.Body.String(), tablestest.ErrInjected.Error())
	assert.Less(t, res.TransfersDeleted, 15)
	assert.Len(t, f.store.Calls("Destroy", propertiesTable), 1)
}

func TestDeleteReportsFailedSelect(t *testing.T) {
	f := newFixture(t)
	p := f.seedProperty(t, "P1", 3)
	f.store.Fail = func(c tablestest.Call) bool {
		return c.Method == "Select" && c.Table == transfersTable
	}

	w := f.do(t, http.MethodDelete, "/api/property?recordId="+p.ID+"&propertyId=P1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res models.PropertyDeleteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, []string{"select failed"}, res.FailedBatches)
	assert.Zero(t, res.TransfersDeleted)
	assert.NotContains(t, w.Body.String(), tablestest.ErrInjected.Error())
	assert.Len(t, f.store.Calls("Destroy", propertiesTable), 1)
}

func TestDeleteWithoutKeySkipsCascade(t *testing.T) {
	f := newFixture(t)
	p := f.seedProperty(t, "P1", 3)

	w := f.do(t, http.MethodDelete, "/api/property?recordId="+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, f.store.Calls("Select", transfersTable))
	assert.Empty(t, f.store.Calls("Destroy", transfersTable))
	assert.Len(t, f.store.Calls("Destroy", propertiesTable), 1)
}

func TestDeleteErrors(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodDelete, "/api/property", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing recordId", decodeError(t, w))

	w = f.do(t, http.MethodDelete, "/api/property?recordId=recMissing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Failed to delete property", decodeError(t, w))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}
