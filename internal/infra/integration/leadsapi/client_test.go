package leadsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preludehq/leaddesk/internal/infra/integration/apierr"
)

func TestListNormalizesLeadIDSpelling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/leads", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "1000", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"leads": []map[string]any{
				{"lead_id": "abc", "company": "Acme"},
				{"id": "def", "company": "Beta", "status": "qualified"},
			},
			"total": 2,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	leads, total, err := c.List(context.Background(), 1, 1000)
	require.NoError(t, err)

	assert.Equal(t, 2, total)
	assert.Equal(t, "abc", leads[0].ID)
	assert.Empty(t, leads[0].LeadID, "alias must be collapsed at the boundary")
	assert.Equal(t, "new", leads[0].Status, "missing status defaults to new")
	assert.Equal(t, "def", leads[1].ID)
}

func TestErrorDetailIsRewrittenFriendly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "token invalid, please reconnect your mailbox"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	err := c.UpdateStatus(context.Background(), "abc", "contacted")
	require.Error(t, err)

	apiErr, ok := err.(*apierr.APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Detail, "reconnect your account")
}

func TestErrorWithoutDetailGetsGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>gateway</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.ListAll(context.Background())
	require.Error(t, err)

	apiErr, ok := err.(*apierr.APIError)
	require.True(t, ok)
	assert.Equal(t, "request failed with status 502", apiErr.Detail)
}

func TestCreateAcceptsWrappedAndBareResponses(t *testing.T) {
	wrapped := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wrapped {
			w.Write([]byte(`{"lead": {"lead_id": "x1", "company": "Acme"}}`))
			return
		}
		w.Write([]byte(`{"id": "x2", "company": "Beta"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")

	lead, err := c.Create(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "x1", lead.ID)

	wrapped = false
	lead, err = c.Create(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "x2", lead.ID)
}

func TestDeleteUsesStatusCheckNotBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	assert.NoError(t, c.Delete(context.Background(), "abc"))
}

func TestExportCSVReturnsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("company,email\nAcme,a@acme.test\n"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	data, err := c.ExportCSV(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(data), "Acme")
}
