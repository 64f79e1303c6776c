package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preludehq/leaddesk/internal/cache"
	"github.com/preludehq/leaddesk/internal/entity"
)

type fakeAPI struct {
	mu    sync.Mutex
	leads []entity.Lead

	listErr   error
	updateErr error
	deleteErr error

	listCalls    int
	listAllCalls int
	statusCalls  int
	deleteCalls  int
}

func (f *fakeAPI) List(ctx context.Context, page, perPage int) ([]entity.Lead, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	if page > 1 {
		return nil, len(f.leads), nil
	}
	return append([]entity.Lead(nil), f.leads...), len(f.leads), nil
}

func (f *fakeAPI) ListAll(ctx context.Context) ([]entity.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listAllCalls++
	return append([]entity.Lead(nil), f.leads...), nil
}

func (f *fakeAPI) UpdateStatus(ctx context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	return f.updateErr
}

func (f *fakeAPI) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.deleteErr
}

func testLeads() []entity.Lead {
	return []entity.Lead{
		{ID: "m1", Company: "Manual One", Source: entity.SourceManual, Status: "new"},
		{ID: "m2", Company: "Manual Two", Source: entity.SourceCSVUpload, Status: "qualified"},
		{ID: "w1", Company: "Scraped One", Source: entity.SourceScraped, Status: "new"},
		{ID: "w2", Company: "Enriched", Source: entity.SourceManual, Status: "new",
			Personnel: []entity.Personnel{{Name: "Jane Roe"}, {Name: "John Doe"}}},
	}
}

func newTestStore(api *fakeAPI) *LeadStore {
	return New(api, cache.New(cache.NewMemoryStorage(0)), "alice@example.com")
}

func TestLoadPartitionsBySourceAndPersonnel(t *testing.T) {
	api := &fakeAPI{leads: testLeads()}
	s := newTestStore(api)

	require.NoError(t, s.Load(context.Background(), false))

	manual, workflow, stats, _ := s.Snapshot()
	assert.ElementsMatch(t, []string{"m1", "m2"}, leadIDs(manual))
	// w2 is manual-sourced but has personnel, so it belongs to the workflow
	// list, and only there.
	assert.ElementsMatch(t, []string{"w1", "w2"}, leadIDs(workflow))

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Qualified)
	assert.Equal(t, 2, stats.TotalPersonnel)
	assert.Equal(t, 1, stats.CompaniesWithPersonnel)
	assert.Equal(t, 2.0, stats.AvgPersonnelPerCompany)
}

func TestLoadIsNoopWhileUnauthenticated(t *testing.T) {
	api := &fakeAPI{leads: testLeads()}
	s := New(api, cache.New(cache.NewMemoryStorage(0)), "")

	require.NoError(t, s.Load(context.Background(), false))
	assert.Zero(t, api.listCalls)

	manual, workflow, _, _ := s.Snapshot()
	assert.Empty(t, manual)
	assert.Empty(t, workflow)
}

func TestLoadSkipsWhileFresh(t *testing.T) {
	api := &fakeAPI{leads: testLeads()}
	s := newTestStore(api)

	require.NoError(t, s.Load(context.Background(), false))
	calls := api.listCalls

	require.NoError(t, s.Load(context.Background(), false))
	assert.Equal(t, calls, api.listCalls, "fresh non-forced load must not refetch")

	require.NoError(t, s.Load(context.Background(), true))
	assert.Greater(t, api.listCalls, calls, "forced load always refetches")
}

func TestColdStoreServesFromCache(t *testing.T) {
	api := &fakeAPI{leads: testLeads()}
	shared := cache.New(cache.NewMemoryStorage(0))

	warm := New(api, shared, "alice@example.com")
	require.NoError(t, warm.Load(context.Background(), false))
	remoteCalls := api.listCalls

	cold := New(api, shared, "alice@example.com")
	require.NoError(t, cold.Load(context.Background(), false))
	assert.Equal(t, remoteCalls, api.listCalls, "cold load should come from cache")

	manual, workflow, _, _ := cold.Snapshot()
	assert.Len(t, manual, 2)
	assert.Len(t, workflow, 2)
}

func TestExpiredCacheForcesRefetch(t *testing.T) {
	api := &fakeAPI{leads: testLeads()}
	shared := cache.New(cache.NewMemoryStorage(0))

	warm := New(api, shared, "alice@example.com")
	warm.ttl = 100 * time.Millisecond
	require.NoError(t, warm.Load(context.Background(), false))
	remoteCalls := api.listCalls

	time.Sleep(150 * time.Millisecond)

	cold := New(api, shared, "alice@example.com")
	cold.ttl = 100 * time.Millisecond
	require.NoError(t, cold.Load(context.Background(), false))
	assert.Greater(t, api.listCalls, remoteCalls, "expired cache must be treated as absent")
}

func TestPagedFailureFallsBackToUnpaged(t *testing.T) {
	api := &fakeAPI{leads: testLeads(), listErr: errors.New("boom")}
	s := newTestStore(api)

	require.NoError(t, s.Load(context.Background(), false))
	assert.Equal(t, 1, api.listAllCalls)

	manual, workflow, _, _ := s.Snapshot()
	assert.Len(t, manual, 2)
	assert.Len(t, workflow, 2)
}

func TestUpdateStatusFailureLeavesStateUntouched(t *testing.T) {
	api := &fakeAPI{leads: testLeads()}
	s := newTestStore(api)
	require.NoError(t, s.Load(context.Background(), false))

	before, _, _, _ := s.Snapshot()

	api.updateErr = errors.New("server said no")
	err := s.UpdateStatus(context.Background(), "m1", entity.StatusQualified)
	assert.Error(t, err)

	after, _, _, _ := s.Snapshot()
	assert.Equal(t, before, after, "a failed remote call must not move local state")
}

func TestUpdateStatusSuccessMutatesBothSides(t *testing.T) {
	api := &fakeAPI{leads: testLeads()}
	s := newTestStore(api)
	require.NoError(t, s.Load(context.Background(), false))

	require.NoError(t, s.UpdateStatus(context.Background(), "w1", entity.StatusQualified))

	lead, ok := s.Find("w1")
	require.True(t, ok)
	assert.Equal(t, entity.StatusQualified, lead.Status)
	assert.Equal(t, 2, s.Stats().Qualified)
}

func TestUpdateStatusLocalMakesNoNetworkCall(t *testing.T) {
	api := &fakeAPI{leads: testLeads()}
	s := newTestStore(api)
	require.NoError(t, s.Load(context.Background(), false))

	require.NoError(t, s.UpdateStatusLocal("m1", entity.StatusContacted))

	assert.Zero(t, api.statusCalls, "optimistic update must not touch the backend")

	lead, ok := s.Find("m1")
	require.True(t, ok)
	assert.Equal(t, entity.StatusContacted, lead.Status)

	_, _, _, pending := s.Snapshot()
	assert.Contains(t, pending, "m1", "optimistic update must be tagged pending")
}

func TestConfirmedUpdateClearsPendingMark(t *testing.T) {
	api := &fakeAPI{leads: testLeads()}
	s := newTestStore(api)
	require.NoError(t, s.Load(context.Background(), false))

	require.NoError(t, s.UpdateStatusLocal("m1", entity.StatusContacted))
	require.NoError(t, s.UpdateStatus(context.Background(), "m1", entity.StatusQualified))

	_, _, _, pending := s.Snapshot()
	assert.NotContains(t, pending, "m1")
}

func TestUpdateStatusLocalUnknownLead(t *testing.T) {
	api := &fakeAPI{leads: testLeads()}
	s := newTestStore(api)
	require.NoError(t, s.Load(context.Background(), false))

	assert.ErrorIs(t, s.UpdateStatusLocal("nope", entity.StatusContacted), ErrLeadNotFound)
}

func TestDeleteRemovesAndRecomputesStats(t *testing.T) {
	api := &fakeAPI{leads: testLeads()}
	s := newTestStore(api)
	require.NoError(t, s.Load(context.Background(), false))

	require.NoError(t, s.Delete(context.Background(), "m2"))
	assert.Equal(t, 1, api.deleteCalls)

	_, ok := s.Find("m2")
	assert.False(t, ok)
	assert.Equal(t, 3, s.Stats().Total)
	assert.Equal(t, 0, s.Stats().Qualified)
}

func TestDeleteFailurePropagates(t *testing.T) {
	api := &fakeAPI{leads: testLeads(), deleteErr: errors.New("nope")}
	s := newTestStore(api)
	require.NoError(t, s.Load(context.Background(), false))

	assert.Error(t, s.Delete(context.Background(), "m1"))
	_, ok := s.Find("m1")
	assert.True(t, ok, "failed delete must leave the lead in place")
}

func TestRemoveFromStateSkipsRemoteDelete(t *testing.T) {
	api := &fakeAPI{leads: testLeads()}
	s := newTestStore(api)
	require.NoError(t, s.Load(context.Background(), false))

	s.RemoveFromState("m1")

	assert.Zero(t, api.deleteCalls, "promotion removes locally only")
	_, ok := s.Find("m1")
	assert.False(t, ok)
	assert.Equal(t, 3, s.Stats().Total)
}

func TestMergeAppliesPartialUpdate(t *testing.T) {
	api := &fakeAPI{leads: testLeads()}
	s := newTestStore(api)
	require.NoError(t, s.Load(context.Background(), false))

	score := 80
	require.NoError(t, s.Merge(entity.Lead{ID: "w1", Notes: "followed up", Score: &score}))

	lead, ok := s.Find("w1")
	require.True(t, ok)
	assert.Equal(t, "followed up", lead.Notes)
	assert.Equal(t, 80, *lead.Score)
	assert.Equal(t, "Scraped One", lead.Company, "unpatched fields keep their value")
}

func TestMergeResolvesLeadIDSpelling(t *testing.T) {
	api := &fakeAPI{leads: testLeads()}
	s := newTestStore(api)
	require.NoError(t, s.Load(context.Background(), false))

	// Upstream sometimes answers with lead_id instead of id.
	require.NoError(t, s.Merge(entity.Lead{LeadID: "m1", Notes: "alias spelled"}))

	lead, _ := s.Find("m1")
	assert.Equal(t, "alias spelled", lead.Notes)
}

func TestMergeUnknownLead(t *testing.T) {
	api := &fakeAPI{leads: testLeads()}
	s := newTestStore(api)
	require.NoError(t, s.Load(context.Background(), false))

	assert.ErrorIs(t, s.Merge(entity.Lead{ID: "ghost"}), ErrLeadNotFound)
}

func TestInvalidateForcesRemoteOnNextLoad(t *testing.T) {
	api := &fakeAPI{leads: testLeads()}
	s := newTestStore(api)
	require.NoError(t, s.Load(context.Background(), false))
	calls := api.listCalls

	s.Invalidate()
	require.NoError(t, s.Load(context.Background(), false))
	assert.Greater(t, api.listCalls, calls)
}

func leadIDs(leads []entity.Lead) []string {
	out := make([]string, len(leads))
	for i, l := range leads {
		out[i] = l.ID
	}
	return out
}
