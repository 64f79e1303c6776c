package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/preludehq/leaddesk/internal/entity"
	"github.com/preludehq/leaddesk/internal/infra/http/middleware"
	"github.com/preludehq/leaddesk/internal/infra/integration/crmapi"
)

// CRMHandler relays CRM reads and writes. Records are server-owned; required
// fields are checked here before anything goes over the wire, nothing is
// cached locally.
type CRMHandler struct {
	API *crmapi.Client
}

func NewCRMHandler(api *crmapi.Client) *CRMHandler {
	return &CRMHandler{API: api}
}

func (h *CRMHandler) upstream(w http.ResponseWriter, err error) {
	middleware.RecordUpstreamError("crm")
	writeError(w, err)
}

func (h *CRMHandler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.API.ListMeetings(r.Context())
	if err != nil {
		h.upstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meetings)
}

func (h *CRMHandler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	var m entity.Meeting
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON"})
		return
	}
	if err := m.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	created, err := h.API.CreateMeeting(r.Context(), &m)
	if err != nil {
		h.upstream(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CRMHandler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	meeting, err := h.API.GetMeeting(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.upstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meeting)
}

func (h *CRMHandler) UpdateMeeting(w http.ResponseWriter, r *http.Request) {
	var m entity.Meeting
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON"})
		return
	}
	if err := m.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	updated, err := h.API.UpdateMeeting(r.Context(), chi.URLParam(r, "id"), &m)
	if err != nil {
		h.upstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *CRMHandler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	if err := h.API.DeleteMeeting(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.upstream(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CRMHandler) SyncCalendar(w http.ResponseWriter, r *http.Request) {
	result, err := h.API.SyncAllGoogleCalendar(r.Context())
	if err != nil {
		h.upstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *CRMHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.API.ListContacts(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		h.upstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *CRMHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var c entity.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON"})
		return
	}
	if err := c.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	created, err := h.API.CreateContact(r.Context(), chi.URLParam(r, "customerId"), &c)
	if err != nil {
		h.upstream(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CRMHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var c entity.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON"})
		return
	}
	if err := c.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	updated, err := h.API.UpdateContact(r.Context(), chi.URLParam(r, "customerId"), chi.URLParam(r, "contactId"), &c)
	if err != nil {
		h.upstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *CRMHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.API.DeleteContact(r.Context(), chi.URLParam(r, "customerId"), chi.URLParam(r, "contactId")); err != nil {
		h.upstream(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CRMHandler) SetPrimaryContact(w http.ResponseWriter, r *http.Request) {
	if err := h.API.SetPrimaryContact(r.Context(), chi.URLParam(r, "customerId"), chi.URLParam(r, "contactId")); err != nil {
		h.upstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *CRMHandler) UpdateDeal(w http.ResponseWriter, r *http.Request) {
	var d entity.Deal
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON"})
		return
	}

	updated, err := h.API.UpdateDeal(r.Context(), chi.URLParam(r, "id"), &d)
	if err != nil {
		h.upstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *CRMHandler) ListDealNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.API.ListDealNotes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.upstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *CRMHandler) CreateDealNote(w http.ResponseWriter, r *http.Request) {
	var n entity.Note
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON"})
		return
	}
	if err := n.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	created, err := h.API.CreateDealNote(r.Context(), chi.URLParam(r, "id"), &n)
	if err != nil {
		h.upstream(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CRMHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var n entity.Note
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON"})
		return
	}
	if err := n.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	updated, err := h.API.UpdateNote(r.Context(), chi.URLParam(r, "id"), &n)
	if err != nil {
		h.upstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *CRMHandler) ListDealCallSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.API.ListDealCallSummaries(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.upstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *CRMHandler) ListDealMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.API.ListDealMeetings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.upstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meetings)
}

func (h *CRMHandler) ListDealActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.API.ListDealActivities(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.upstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

func (h *CRMHandler) CreateDealActivity(w http.ResponseWriter, r *http.Request) {
	var a entity.Activity
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON"})
		return
	}

	created, err := h.API.CreateDealActivity(r.Context(), chi.URLParam(r, "id"), &a)
	if err != nil {
		h.upstream(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
