package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preludehq/leaddesk/internal/entity"
	"github.com/preludehq/leaddesk/internal/infra/http/handlers"
	"github.com/preludehq/leaddesk/internal/store"
	"github.com/preludehq/leaddesk/internal/usecase"
)

func newRouter(t *testing.T, backend *fakeLeadsBackend) (http.Handler, *store.LeadStore, func()) {
	t.Helper()
	st, client, closeSrv := newStoreAgainst(t, backend)

	createUC := usecase.NewCreateLeadUseCase(client, st)
	outreachUC := usecase.NewSendOutreachUseCase(new(MockQueueProducer), st)
	h := handlers.NewLeadHandler(st, client, createUC, outreachUC)

	r := chi.NewRouter()
	r.Get("/api/leads", h.List)
	r.Post("/api/leads", h.Create)
	r.Get("/api/leads/export", h.ExportCSV)
	r.Patch("/api/leads/{id}/status", h.UpdateStatus)
	r.Delete("/api/leads/{id}", h.Delete)
	r.Post("/api/leads/{id}/promote", h.Promote)
	r.Get("/health", handlers.NewHealthHandler(nil, "", "").Handle)

	return r, st, closeSrv
}

func doRequest(router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		raw, _ := json.Marshal(body)
		req = httptest.NewRequest(method, target, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListAppliesColumnScopedSearch(t *testing.T) {
	leads := seedLeads(2)
	leads[0].Company = "Acme Corp"
	leads[1].Company = "Beta LLC"
	leads[1].Email = "acme@beta.test" // term hides in an unsearched column

	backend := &fakeLeadsBackend{leads: leads}
	router, _, closeSrv := newRouter(t, backend)
	defer closeSrv()

	rec := doRequest(router, http.MethodGet, "/api/leads?q=acme&search_columns=company", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Leads []entity.Lead `json:"leads"`
		Total int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Leads, 1)
	assert.Equal(t, "Acme Corp", resp.Leads[0].Company)
	assert.Equal(t, 1, resp.Total)
}

func TestListAppliesConditionFilter(t *testing.T) {
	leads := seedLeads(3)
	leads[0].Industry = "saas"
	leads[1].Industry = "retail"
	leads[2].Industry = "saas"

	backend := &fakeLeadsBackend{leads: leads}
	router, _, closeSrv := newRouter(t, backend)
	defer closeSrv()

	filterJSON := url.QueryEscape(`{"industry":[{"op":"equals","value":"saas"}]}`)
	rec := doRequest(router, http.MethodGet, "/api/leads?filter="+filterJSON, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Leads []entity.Lead `json:"leads"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Leads, 2)
}

func TestListRejectsMalformedFilter(t *testing.T) {
	backend := &fakeLeadsBackend{leads: seedLeads(1)}
	router, _, closeSrv := newRouter(t, backend)
	defer closeSrv()

	rec := doRequest(router, http.MethodGet, "/api/leads?filter=not-json", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListExposesPendingStatusTag(t *testing.T) {
	backend := &fakeLeadsBackend{leads: seedLeads(1)}
	router, st, closeSrv := newRouter(t, backend)
	defer closeSrv()

	require.NoError(t, st.Load(context.Background(), false))
	require.NoError(t, st.UpdateStatusLocal("lead-1", entity.StatusContacted))

	rec := doRequest(router, http.MethodGet, "/api/leads", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Leads []struct {
			ID            string `json:"id"`
			Status        string `json:"status"`
			StatusPending bool   `json:"status_pending"`
		} `json:"leads"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Leads, 1)
	assert.Equal(t, entity.StatusContacted, resp.Leads[0].Status)
	assert.True(t, resp.Leads[0].StatusPending)
}

func TestUpdateStatusFailurePropagatesUpstreamDetail(t *testing.T) {
	backend := &fakeLeadsBackend{leads: seedLeads(1)}
	router, st, closeSrv := newRouter(t, backend)
	defer closeSrv()

	require.NoError(t, st.Load(context.Background(), false))
	backend.failPuts = true

	rec := doRequest(router, http.MethodPatch, "/api/leads/lead-1/status", map[string]string{"status": "qualified"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "update rejected", resp.Detail)

	lead, _ := st.Find("lead-1")
	assert.Equal(t, entity.StatusNew, lead.Status)
}

func TestUpdateStatusRequiresStatus(t *testing.T) {
	backend := &fakeLeadsBackend{leads: seedLeads(1)}
	router, _, closeSrv := newRouter(t, backend)
	defer closeSrv()

	rec := doRequest(router, http.MethodPatch, "/api/leads/lead-1/status", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPromoteRemovesLocallyWithoutBackendDelete(t *testing.T) {
	backend := &fakeLeadsBackend{leads: seedLeads(2)}
	router, st, closeSrv := newRouter(t, backend)
	defer closeSrv()

	require.NoError(t, st.Load(context.Background(), false))

	rec := doRequest(router, http.MethodPost, "/api/leads/lead-1/promote", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, ok := st.Find("lead-1")
	assert.False(t, ok)
}

func TestCreateEndpointValidates(t *testing.T) {
	backend := &fakeLeadsBackend{}
	router, _, closeSrv := newRouter(t, backend)
	defer closeSrv()

	rec := doRequest(router, http.MethodPost, "/api/leads", map[string]string{"company": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, backend.createPosts)

	rec = doRequest(router, http.MethodPost, "/api/leads", map[string]string{"company": "Acme"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, backend.createPosts)
}

func TestHealth(t *testing.T) {
	router, _, closeSrv := newRouter(t, &fakeLeadsBackend{})
	defer closeSrv()

	rec := doRequest(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}
