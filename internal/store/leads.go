// Package store holds the in-memory lead state the API serves from: two
// partitioned lists (manual vs workflow), derived stats, a freshness stamp
// and a write-through TTL cache. Remote calls go first; local state only
// moves on success, except for the explicitly optimistic path used by mass
// outreach.
package store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/preludehq/leaddesk/internal/cache"
	"github.com/preludehq/leaddesk/internal/entity"
)

// LeadsAPI is the remote surface the store depends on.
type LeadsAPI interface {
	List(ctx context.Context, page, perPage int) ([]entity.Lead, int, error)
	ListAll(ctx context.Context) ([]entity.Lead, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

const (
	pageSize = 1000
	maxPages = 10
)

// Cache keys, scoped per user by the cache itself.
const (
	keyLeads    = "leads"
	keyWorkflow = "workflow_leads"
	keyStats    = "lead_stats"
)

var ErrLeadNotFound = fmt.Errorf("lead not found in local state")

type LeadStore struct {
	api       LeadsAPI
	cache     *cache.Cache
	userEmail string
	ttl       time.Duration
	now       func() time.Time

	// OnCacheRead, when set, observes the cold-start cache attempt (hit or
	// miss). Assigned once at wiring time, before any Load.
	OnCacheRead func(hit bool)

	mu             sync.Mutex
	leads          []entity.Lead // manual entry + CSV uploads
	workflowLeads  []entity.Lead // scraped / api / linkedin
	stats          entity.LeadStats
	lastFetch      time.Time
	hasInitialLoad bool
	loading        bool

	// pending marks leads whose displayed status is ahead of the backend
	// (optimistic, applied without a remote call). Cleared by any confirmed
	// update or reload of the same lead.
	pending map[string]time.Time

	// idLocks sequences mutations per lead ID; two edits to the same record
	// from different code paths cannot interleave.
	idMu    sync.Mutex
	idLocks map[string]*sync.Mutex
}

// New builds a store for one authenticated user. An empty userEmail means
// unauthenticated: loads become no-ops until a user is known.
func New(api LeadsAPI, c *cache.Cache, userEmail string) *LeadStore {
	return &LeadStore{
		api:       api,
		cache:     c,
		userEmail: userEmail,
		ttl:       cache.LeadTTL,
		now:       time.Now,
		pending:   make(map[string]time.Time),
		idLocks:   make(map[string]*sync.Mutex),
	}
}

func (s *LeadStore) lockID(id string) *sync.Mutex {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	m, ok := s.idLocks[id]
	if !ok {
		m = &sync.Mutex{}
		s.idLocks[id] = m
	}
	return m
}

// Load populates the store. It is a no-op while unauthenticated, while
// another load is in flight, or when the state is still fresh and force is
// false. A cold store tries the per-user cache before going remote. On total
// remote failure the prior state stays untouched.
func (s *LeadStore) Load(ctx context.Context, force bool) error {
	s.mu.Lock()
	if s.userEmail == "" {
		s.mu.Unlock()
		return nil
	}
	if s.loading {
		s.mu.Unlock()
		return nil
	}
	if !force && s.hasInitialLoad && s.now().Sub(s.lastFetch) < s.ttl {
		s.mu.Unlock()
		return nil
	}

	if !force && !s.hasInitialLoad {
		hit := s.loadFromCacheLocked()
		if s.OnCacheRead != nil {
			s.OnCacheRead(hit)
		}
		if hit {
			s.mu.Unlock()
			return nil
		}
	}

	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	all, err := s.fetchAll(ctx)
	if err != nil {
		return fmt.Errorf("load leads: %w", err)
	}

	var manual, workflow []entity.Lead
	for i := range all {
		all[i].Normalize()
		if all[i].IsWorkflow() {
			workflow = append(workflow, all[i])
		} else {
			manual = append(manual, all[i])
		}
	}
	stats := entity.ComputeLeadStats(manual, workflow)

	s.mu.Lock()
	s.leads = manual
	s.workflowLeads = workflow
	s.stats = stats
	s.lastFetch = s.now()
	s.hasInitialLoad = true
	// A fresh server truth supersedes every optimistic mark.
	s.pending = make(map[string]time.Time)
	s.persistLocked()
	s.mu.Unlock()
	return nil
}

// loadFromCacheLocked restores both lists from the per-user cache. Both keys
// must hit; a half-present cache is treated as a miss.
func (s *LeadStore) loadFromCacheLocked() bool {
	var manual, workflow []entity.Lead
	if !s.cache.Get(keyLeads, s.ttl, s.userEmail, &manual) {
		return false
	}
	if !s.cache.Get(keyWorkflow, s.ttl, s.userEmail, &workflow) {
		return false
	}
	s.leads = manual
	s.workflowLeads = workflow
	s.stats = entity.ComputeLeadStats(manual, workflow)
	s.lastFetch = s.now()
	s.hasInitialLoad = true
	return true
}

// fetchAll pages through the remote API and falls back to the unpaged
// endpoint when paging fails.
func (s *LeadStore) fetchAll(ctx context.Context) ([]entity.Lead, error) {
	var all []entity.Lead
	for page := 1; page <= maxPages; page++ {
		batch, total, err := s.api.List(ctx, page, pageSize)
		if err != nil {
			if page == 1 {
				log.Printf("paged lead fetch failed, falling back to unpaged: %v", err)
				return s.api.ListAll(ctx)
			}
			// Partial pagination failure: retry the whole thing unpaged
			// rather than committing a truncated list.
			log.Printf("lead fetch failed on page %d, falling back to unpaged: %v", page, err)
			return s.api.ListAll(ctx)
		}
		all = append(all, batch...)
		if len(batch) < pageSize || (total > 0 && len(all) >= total) {
			break
		}
	}
	return all, nil
}

// UpdateStatus confirms the change remotely first and only then touches
// local state. A failed call leaves the displayed status bit-for-bit
// unchanged.
func (s *LeadStore) UpdateStatus(ctx context.Context, id, status string) error {
	m := s.lockID(id)
	m.Lock()
	defer m.Unlock()

	if err := s.api.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.setStatusLocked(id, status) {
		// Server accepted an ID we don't hold; state stays consistent, the
		// next load picks the record up.
		return nil
	}
	delete(s.pending, id)
	s.stats = entity.ComputeLeadStats(s.leads, s.workflowLeads)
	s.persistLocked()
	return nil
}

// UpdateStatusLocal mutates local state without any remote call. Used by the
// mass-outreach flow, where the backend applies the same change per email
// over the following minutes; the list is deliberately ahead of the database
// and the lead is marked pending until a confirmation arrives.
func (s *LeadStore) UpdateStatusLocal(id, status string) error {
	m := s.lockID(id)
	m.Lock()
	defer m.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.setStatusLocked(id, status) {
		return ErrLeadNotFound
	}
	s.pending[id] = s.now()
	s.stats = entity.ComputeLeadStats(s.leads, s.workflowLeads)
	s.persistLocked()
	return nil
}

// Delete removes the lead remotely, then from whichever list holds it.
func (s *LeadStore) Delete(ctx context.Context, id string) error {
	m := s.lockID(id)
	m.Lock()
	defer m.Unlock()

	if err := s.api.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
	return nil
}

// RemoveFromState drops the lead locally without a remote delete. Used when
// a lead converts to a CRM customer: the backend record persists under a
// different entity, only our list entry goes away.
func (s *LeadStore) RemoveFromState(id string) {
	m := s.lockID(id)
	m.Lock()
	defer m.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

// Merge applies a server-confirmed partial update to whichever list holds
// the record. Zero-valued fields in the patch leave the current value alone,
// which means Merge can never clear a field: blanking one goes through the
// remote update, whose full returned record carries the new empty value only
// for the fields the server actually serializes.
func (s *LeadStore) Merge(patch entity.Lead) error {
	patch.Normalize()
	if patch.ID == "" {
		return ErrLeadNotFound
	}

	m := s.lockID(patch.ID)
	m.Lock()
	defer m.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	lead := s.findLocked(patch.ID)
	if lead == nil {
		return ErrLeadNotFound
	}
	mergeLead(lead, patch)
	if patch.Status != "" {
		delete(s.pending, patch.ID)
	}
	s.stats = entity.ComputeLeadStats(s.leads, s.workflowLeads)
	s.persistLocked()
	return nil
}

// Add inserts a freshly created lead into the right partition.
func (s *LeadStore) Add(lead entity.Lead) {
	lead.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	if lead.IsWorkflow() {
		s.workflowLeads = append(s.workflowLeads, lead)
	} else {
		s.leads = append(s.leads, lead)
	}
	s.stats = entity.ComputeLeadStats(s.leads, s.workflowLeads)
	s.persistLocked()
}

// Invalidate drops the cached lists and forces the next Load to go remote.
func (s *LeadStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Clear(keyLeads, s.userEmail)
	s.cache.Clear(keyWorkflow, s.userEmail)
	s.cache.Clear(keyStats, s.userEmail)
	s.lastFetch = time.Time{}
	s.hasInitialLoad = false
}

// Snapshot returns copies of both lists, the stats and the pending set.
func (s *LeadStore) Snapshot() (manual, workflow []entity.Lead, stats entity.LeadStats, pending map[string]time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	manual = append([]entity.Lead(nil), s.leads...)
	workflow = append([]entity.Lead(nil), s.workflowLeads...)
	pending = make(map[string]time.Time, len(s.pending))
	for id, since := range s.pending {
		pending[id] = since
	}
	return manual, workflow, s.stats, pending
}

// Find returns a copy of the lead with the given ID from either list.
func (s *LeadStore) Find(id string) (entity.Lead, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lead := s.findLocked(id); lead != nil {
		return *lead, true
	}
	return entity.Lead{}, false
}

func (s *LeadStore) Stats() entity.LeadStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *LeadStore) findLocked(id string) *entity.Lead {
	for i := range s.leads {
		if s.leads[i].ID == id {
			return &s.leads[i]
		}
	}
	for i := range s.workflowLeads {
		if s.workflowLeads[i].ID == id {
			return &s.workflowLeads[i]
		}
	}
	return nil
}

func (s *LeadStore) setStatusLocked(id, status string) bool {
	lead := s.findLocked(id)
	if lead == nil {
		return false
	}
	lead.Status = status
	return true
}

func (s *LeadStore) removeLocked(id string) {
	s.leads = removeByID(s.leads, id)
	s.workflowLeads = removeByID(s.workflowLeads, id)
	delete(s.pending, id)
	s.stats = entity.ComputeLeadStats(s.leads, s.workflowLeads)
	s.persistLocked()
}

func (s *LeadStore) persistLocked() {
	if s.userEmail == "" {
		return
	}
	s.cache.Set(keyLeads, s.leads, s.userEmail)
	s.cache.Set(keyWorkflow, s.workflowLeads, s.userEmail)
	s.cache.Set(keyStats, s.stats, s.userEmail)
}

func removeByID(leads []entity.Lead, id string) []entity.Lead {
	out := leads[:0]
	for _, l := range leads {
		if l.ID != id {
			out = append(out, l)
		}
	}
	return out
}

func mergeLead(dst *entity.Lead, patch entity.Lead) {
	if patch.Company != "" {
		dst.Company = patch.Company
	}
	if patch.Name != "" {
		dst.Name = patch.Name
	}
	if patch.Email != "" {
		dst.Email = patch.Email
	}
	if patch.Phone != "" {
		dst.Phone = patch.Phone
	}
	if patch.Website != "" {
		dst.Website = patch.Website
	}
	if patch.Location != "" {
		dst.Location = patch.Location
	}
	if patch.Industry != "" {
		dst.Industry = patch.Industry
	}
	if patch.CompanySize != "" {
		dst.CompanySize = patch.CompanySize
	}
	if patch.Revenue != "" {
		dst.Revenue = patch.Revenue
	}
	if patch.EmployeesCount != 0 {
		dst.EmployeesCount = patch.EmployeesCount
	}
	if patch.Status != "" {
		dst.Status = patch.Status
	}
	if patch.Source != "" {
		dst.Source = patch.Source
	}
	if patch.Score != nil {
		dst.Score = patch.Score
	}
	if patch.Tags != nil {
		dst.Tags = patch.Tags
	}
	if patch.Notes != "" {
		dst.Notes = patch.Notes
	}
	if patch.Personnel != nil {
		dst.Personnel = patch.Personnel
	}
}
