package handler

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"slotkeeper/internal/directory/service"
	apperrors "slotkeeper/pkg/errors"
	httputil "slotkeeper/pkg/http"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"
)

const actorHeader = "X-Actor"

type PersonnelResponse struct {
	Version    int64               `json:"version"`
	Candidates []model.Candidate   `json:"candidates"`
	Rules      []model.MappingRule `json:"rules,omitempty"`
}

type PersonnelHandler struct {
	service service.DirectoryService
	log     *logger.Logger
}

func NewPersonnelHandler(service service.DirectoryService, log *logger.Logger) *PersonnelHandler {
	return &PersonnelHandler{
		service: service,
		log:     log,
	}
}

func (h *PersonnelHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	role := model.Role(r.URL.Query().Get("role"))
	switch role {
	case "", model.RoleTrainer, model.RoleInstaller, model.RoleExternalVendor:
	default:
		h.writeError(w, "List", apperrors.InvalidInput("invalid role parameter: "+string(role)))
		return
	}

	snap, err := h.service.ListCandidates(r.Context(), role)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	h.writeSnapshot(w, "List", http.StatusOK, snap)
}

// Upsert creates or replaces one person. The If-Match header carries the
// directory version the caller last read.
func (h *PersonnelHandler) Upsert(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	version, err := httputil.IfMatchVersion(r)
	if err != nil {
		h.writeError(w, "Upsert", err)
		return
	}

	var c model.Candidate
	if err := httputil.DecodeJSON(r, &c); err != nil {
		h.writeError(w, "Upsert", err)
		return
	}
	personID := ps.ByName("person_id")
	if c.PersonID != "" && c.PersonID != personID {
		h.writeError(w, "Upsert", apperrors.InvalidInput("person_id in body does not match the path"))
		return
	}
	c.PersonID = personID

	snap, err := h.service.Update(r.Context(), version, model.DirectoryMutation{
		Kind:      model.MutationUpsertCandidate,
		Candidate: &c,
		Actor:     r.Header.Get(actorHeader),
	})
	if err != nil {
		h.writeError(w, "Upsert", err)
		return
	}
	h.writeSnapshot(w, "Upsert", http.StatusOK, snap)
}

func (h *PersonnelHandler) Deactivate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	version, err := httputil.IfMatchVersion(r)
	if err != nil {
		h.writeError(w, "Deactivate", err)
		return
	}

	snap, err := h.service.Update(r.Context(), version, model.DirectoryMutation{
		Kind:     model.MutationDeactivate,
		PersonID: ps.ByName("person_id"),
		Actor:    r.Header.Get(actorHeader),
	})
	if err != nil {
		h.writeError(w, "Deactivate", err)
		return
	}
	h.writeSnapshot(w, "Deactivate", http.StatusOK, snap)
}

func (h *PersonnelHandler) ReplaceRules(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	version, err := httputil.IfMatchVersion(r)
	if err != nil {
		h.writeError(w, "ReplaceRules", err)
		return
	}

	var body struct {
		Rules []model.MappingRule `json:"rules"`
	}
	if err := httputil.DecodeJSON(r, &body); err != nil {
		h.writeError(w, "ReplaceRules", err)
		return
	}

	snap, err := h.service.Update(r.Context(), version, model.DirectoryMutation{
		Kind:  model.MutationReplaceRules,
		Rules: body.Rules,
		Actor: r.Header.Get(actorHeader),
	})
	if err != nil {
		h.writeError(w, "ReplaceRules", err)
		return
	}
	h.writeSnapshot(w, "ReplaceRules", http.StatusOK, snap)
}

func (h *PersonnelHandler) writeSnapshot(w http.ResponseWriter, handler string, status int, snap *model.DirectorySnapshot) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(snap.Version, 10)))
	if err := httputil.WriteJSON(w, status, PersonnelResponse{
		Version:    snap.Version,
		Candidates: snap.Candidates,
		Rules:      snap.Rules,
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *PersonnelHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *PersonnelHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/personnel", h.List)
	router.PUT("/api/v1/personnel/:person_id", h.Upsert)
	router.DELETE("/api/v1/personnel/:person_id", h.Deactivate)
	router.PUT("/api/v1/mapping-rules", h.ReplaceRules)
}
