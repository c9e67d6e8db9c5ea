package companies

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utilityprofit/moveout-tracker/internal/activity"
	"github.com/utilityprofit/moveout-tracker/internal/models"
	"github.com/utilityprofit/moveout-tracker/internal/properties"
	"github.com/utilityprofit/moveout-tracker/internal/records"
	"github.com/utilityprofit/moveout-tracker/internal/tables"
	"github.com/utilityprofit/moveout-tracker/internal/tables/memory"
	"github.com/utilityprofit/moveout-tracker/internal/tables/tablestest"
	"github.com/utilityprofit/moveout-tracker/internal/utilities"
)

var names = tables.DefaultNames

type fixture struct {
	store  *tablestest.Recorder
	repo   *Repository
	props  *properties.Repository
	trans  *utilities.Repository
	act    *activity.Repository
	router *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := tablestest.New(memory.New())
	trans := utilities.NewRepository(store, names.Transfers)
	props := properties.NewRepository(store, names.Properties, trans, nil)
	act := activity.NewRepository(store, names.Activity)
	repo := NewRepository(store, names.Companies, props, trans, act)

	r := gin.New()
	r.GET("/api/company", NewHandler(repo, nil).Get)
	return &fixture{store: store, repo: repo, props: props, trans: trans, act: act, router: r}
}

func (f *fixture) get(target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func (f *fixture) seedCompany(t *testing.T, fields tables.Fields) {
	t.Helper()
	_, err := f.store.Create(context.Background(), names.Companies, []tables.Fields{fields})
	require.NoError(t, err)
}

func TestGetFullData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCompany(t, tables.Fields{"slug": "acme", "company_name": "Acme Rentals"})
	f.seedCompany(t, tables.Fields{"slug": "other", "company_name": "Other"})

	for _, key := range []string{"P1", "P2"} {
		_, err := f.props.Create(ctx, records.PropertyCreate{CompanySlug: "acme", PropertyID: key, Address: key + " Main", City: "Austin", State: "TX"})
		require.NoError(t, err)
	}
	_, err := f.props.Create(ctx, records.PropertyCreate{CompanySlug: "other", PropertyID: "O1", Address: "x", City: "y", State: "z"})
	require.NoError(t, err)

	_, err = f.trans.CreateMany(ctx, []records.UtilityCreate{
		{PropertyID: "P1", UtilityType: models.UtilityElectric},
		{PropertyID: "P1", UtilityType: models.UtilityGas},
		{PropertyID: "O1", UtilityType: models.UtilityWater},
	})
	require.NoError(t, err)
	require.NoError(t, f.act.Append(ctx, records.ActivityCreate{PropertyID: "P1", Action: models.ActionPropertyCreated, Timestamp: "2024-05-01T10:00:00.000Z"}))
	require.NoError(t, f.act.Append(ctx, records.ActivityCreate{PropertyID: "P1", Action: models.ActionUtilityAdded, Timestamp: "2024-05-01T11:00:00.000Z"}))

	w := f.get("/api/company?slug=acme")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.CompanyData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Acme Rentals", got.Company.CompanyName)
	assert.Equal(t, models.DefaultBrandColor, got.Company.BrandColor)
	require.Len(t, got.Properties, 2)

	p1, p2 := got.Properties[0], got.Properties[1]
	assert.Equal(t, "P1", p1.PropertyID)
	assert.Len(t, p1.Utilities, 2)
	require.Len(t, p1.Activity, 2)
	assert.Equal(t, models.ActionUtilityAdded, p1.Activity[0].Action, "newest activity first")

	assert.Equal(t, "P2", p2.PropertyID)
	assert.NotNil(t, p2.Utilities)
	assert.Empty(t, p2.Utilities)
	assert.NotNil(t, p2.Activity)
}

func TestGetCompanyWithoutProperties(t *testing.T) {
	f := newFixture(t)
	f.seedCompany(t, tables.Fields{"slug": "acme", "company_name": "Acme"})
	f.store.Reset()

	w := f.get("/api/company?slug=acme")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"properties":[]`)
	assert.Empty(t, f.store.Calls("Select", names.Transfers))
	assert.Empty(t, f.store.Calls("Select", names.Activity))
}

func TestGetErrors(t *testing.T) {
	f := newFixture(t)

	w := f.get("/api/company")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing slug"}`, w.Body.String())

	w = f.get("/api/company?slug=nobody")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Company not found"}`, w.Body.String())

	f.seedCompany(t, tables.Fields{"slug": "acme"})
	f.store.Fail = func(c tablestest.Call) bool { return c.Table == names.Properties }
	w = f.get("/api/company?slug=acme")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to load data"}`, w.Body.String())
}
