package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/preludehq/leaddesk/internal/entity"
	"github.com/preludehq/leaddesk/internal/filter"
	"github.com/preludehq/leaddesk/internal/infra/http/middleware"
	"github.com/preludehq/leaddesk/internal/infra/integration/leadsapi"
	"github.com/preludehq/leaddesk/internal/store"
	"github.com/preludehq/leaddesk/internal/usecase"
)

type LeadHandler struct {
	Store       *store.LeadStore
	API         *leadsapi.Client
	CreateUC    *usecase.CreateLeadUseCase
	OutreachUC  *usecase.SendOutreachUseCase
	Tokens      *store.TokenStore // optional; enables tokenless sync-replies
	rateLimiter *RateLimiter
}

func NewLeadHandler(st *store.LeadStore, api *leadsapi.Client, createUC *usecase.CreateLeadUseCase, outreachUC *usecase.SendOutreachUseCase) *LeadHandler {
	return &LeadHandler{
		Store:       st,
		API:         api,
		CreateUC:    createUC,
		OutreachUC:  outreachUC,
		rateLimiter: NewRateLimiter(10, time.Minute), // 10 req/min per IP on create
	}
}

// LeadView decorates a lead with its optimistic-state tag so clients can
// render unconfirmed status distinctly.
type LeadView struct {
	entity.Lead
	StatusPending bool       `json:"status_pending,omitempty"`
	PendingSince  *time.Time `json:"pending_since,omitempty"`
}

type listLeadsResponse struct {
	Leads         []LeadView       `json:"leads"`
	WorkflowLeads []LeadView       `json:"workflow_leads"`
	Total         int              `json:"total"`
	Stats         entity.LeadStats `json:"stats"`
}

// List serves the filtered, sorted lists. The two partitions are filtered
// independently; only the total spans both.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Load(r.Context(), false); err != nil {
		middleware.RecordUpstreamError("leads")
		writeError(w, err)
		return
	}

	opts, err := parseFilterOptions(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	manual, workflow, stats, pending := h.Store.Snapshot()

	which := r.URL.Query().Get("list")
	resp := listLeadsResponse{Stats: stats}
	if which == "" || which == "all" || which == "manual" {
		resp.Leads = toViews(filter.Apply(manual, opts), pending)
	}
	if which == "" || which == "all" || which == "workflow" {
		resp.WorkflowLeads = toViews(filter.Apply(workflow, opts), pending)
	}
	resp.Total = len(resp.Leads) + len(resp.WorkflowLeads)

	writeJSON(w, http.StatusOK, resp)
}

func toViews(leads []entity.Lead, pending map[string]time.Time) []LeadView {
	views := make([]LeadView, 0, len(leads))
	for _, l := range leads {
		v := LeadView{Lead: l}
		if since, ok := pending[l.ID]; ok {
			v.StatusPending = true
			t := since
			v.PendingSince = &t
		}
		views = append(views, v)
	}
	return views
}

func parseFilterOptions(r *http.Request) (filter.Options, error) {
	q := r.URL.Query()
	opts := filter.Options{
		Query:     q.Get("q"),
		Status:    q.Get("status"),
		SortField: q.Get("sort"),
		SortOrder: q.Get("order"),
	}

	if cols := q.Get("search_columns"); cols != "" {
		opts.SearchColumns = make(map[string]bool)
		for col := range filter.DefaultSearchColumns() {
			opts.SearchColumns[col] = false
		}
		for _, col := range strings.Split(cols, ",") {
			opts.SearchColumns[strings.TrimSpace(col)] = true
		}
	}

	if raw := q.Get("filter"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts.Conditions); err != nil {
			return opts, fmt.Errorf("invalid filter parameter: %w", err)
		}
	}

	return opts, nil
}

// Refresh forces a full re-fetch, bypassing freshness and cache.
func (h *LeadHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Load(r.Context(), true); err != nil {
		middleware.RecordLeadSync("error")
		middleware.RecordUpstreamError("leads")
		writeError(w, err)
		return
	}
	middleware.RecordLeadSync("ok")
	writeJSON(w, http.StatusOK, map[string]any{"stats": h.Store.Stats()})
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.rateLimiter.Allow(getClientIP(r)) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Detail: "Too many requests. Please try again later."})
		return
	}

	var input usecase.CreateLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON"})
		return
	}

	created, err := h.CreateUC.Execute(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update round-trips an inline edit through the leads service and merges the
// confirmed record back into local state.
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON"})
		return
	}

	updated, err := h.API.Update(r.Context(), id, patch)
	if err != nil {
		middleware.RecordUpstreamError("leads")
		writeError(w, err)
		return
	}
	if err := h.Store.Merge(*updated); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Status) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "status is required"})
		return
	}

	if err := h.Store.UpdateStatus(r.Context(), id, req.Status); err != nil {
		middleware.RecordUpstreamError("leads")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.Delete(r.Context(), id); err != nil {
		middleware.RecordUpstreamError("leads")
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Promote drops the lead from local state without a remote delete: the
// backend record lives on as a CRM customer.
func (h *LeadHandler) Promote(w http.ResponseWriter, r *http.Request) {
	h.Store.RemoveFromState(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *LeadHandler) Outreach(w http.ResponseWriter, r *http.Request) {
	var input usecase.SendOutreachInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON"})
		return
	}

	out, err := h.OutreachUC.Execute(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	middleware.RecordOutreachQueued(out.Queued)
	writeJSON(w, http.StatusAccepted, out)
}

// ExportCSV streams the upstream CSV export with a timestamped filename.
func (h *LeadHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.API.ExportCSV(r.Context())
	if err != nil {
		middleware.RecordUpstreamError("leads")
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("leads_export_%s.csv", time.Now().UTC().Format(time.RFC3339))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

func (h *LeadHandler) SyncReplies(w http.ResponseWriter, r *http.Request) {
	var input leadsapi.SyncRepliesInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON"})
		return
	}
	if input.Provider == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "provider is required"})
		return
	}
	if input.AccessToken == "" && h.Tokens != nil {
		if tok, ok := h.Tokens.Load(input.Provider); ok {
			input.AccessToken = tok
		}
	}
	if input.AccessToken == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "access_token is required (none stored for provider)"})
		return
	}
	if h.Tokens != nil {
		h.Tokens.Save(input.Provider, input.AccessToken)
	}

	result, err := h.API.SyncReplies(r.Context(), input)
	if err != nil {
		middleware.RecordUpstreamError("leads")
		writeError(w, err)
		return
	}
	// Reply sync flips statuses server-side; the cached lists are stale now.
	h.Store.Invalidate()
	writeJSON(w, http.StatusOK, result)
}

// AISuggestion proxies the upstream outreach draft for one lead.
func (h *LeadHandler) AISuggestion(w http.ResponseWriter, r *http.Request) {
	suggestion, err := h.API.AISuggestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.RecordUpstreamError("leads")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

func (h *LeadHandler) RegenerateAISuggestion(w http.ResponseWriter, r *http.Request) {
	suggestion, err := h.API.RegenerateAISuggestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.RecordUpstreamError("leads")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

type saveTokenRequest struct {
	Provider    string `json:"provider"`
	AccessToken string `json:"access_token"`
}

// SaveToken stores an OAuth access token so later reply syncs can omit it.
func (h *LeadHandler) SaveToken(w http.ResponseWriter, r *http.Request) {
	var req saveTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Provider == "" || req.AccessToken == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "provider and access_token are required"})
		return
	}
	if h.Tokens == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Detail: "token storage not configured"})
		return
	}
	h.Tokens.Save(req.Provider, req.AccessToken)
	w.WriteHeader(http.StatusNoContent)
}

func (h *LeadHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Load(r.Context(), false); err != nil {
		middleware.RecordUpstreamError("leads")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Store.Stats())
}

func (h *LeadHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.Store.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}
