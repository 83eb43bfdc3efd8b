package handler

import (
	"net/http"

	"github.com/eventsphere/api/internal/middleware"
	"github.com/eventsphere/api/internal/model"
	"github.com/eventsphere/api/internal/service"
)

// ArchiveHandler handles archive link HTTP requests
type ArchiveHandler struct {
	svc *service.ArchiveService
}

// NewArchiveHandler creates a new archive handler
func NewArchiveHandler(svc *service.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{svc: svc}
}

// Create handles POST /v1/events/{id}/archives
func (h *ArchiveHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateArchiveLinkRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()
	link, err := h.svc.CreateLink(ctx, r.PathValue("id"), &req, middleware.GetUserID(ctx))
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "create archive link"))
		return
	}

	WriteData(w, http.StatusCreated, link)
}

// ListForEvent handles GET /v1/events/{id}/archives
func (h *ArchiveHandler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	links, err := h.svc.ListEventLinks(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list archive links"))
		return
	}

	WriteData(w, http.StatusOK, links)
}

// ListAll handles GET /v1/admin/archives
func (h *ArchiveHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	links, err := h.svc.ListAllLinks(r.Context())
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list archive links"))
		return
	}

	WriteData(w, http.StatusOK, links)
}

// Delete handles DELETE /v1/archives/{id}
func (h *ArchiveHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.svc.DeleteLink(ctx, r.PathValue("id"), middleware.GetUserID(ctx)); err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "delete archive link"))
		return
	}

	WriteNoContent(w)
}
