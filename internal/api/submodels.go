package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/twin-registry/internal/shell"
)

// handleListSubmodelRefs returns one page of a shell's submodel references.
func (s *Server) handleListSubmodelRefs(w http.ResponseWriter, r *http.Request) {
	id, ok := s.shellID(w, r)
	if !ok {
		return
	}

	info, err := s.pageInfo(r)
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}

	page, err := s.registry.ListSubmodelRefs(r.Context(), id, info)
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newPageResponse(page))
}

// handleAddSubmodelRef attaches a submodel reference given as {"id": ...}.
func (s *Server) handleAddSubmodelRef(w http.ResponseWriter, r *http.Request) {
	id, ok := s.shellID(w, r)
	if !ok {
		return
	}

	var ref shell.SubmodelRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		writeBadRequest(w, r, "invalid JSON: "+err.Error())
		return
	}

	if err := s.registry.AddSubmodelRef(r.Context(), id, ref); err != nil {
		s.writeRegistryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ref)
}

// handleRemoveSubmodelRef detaches a submodel reference.
func (s *Server) handleRemoveSubmodelRef(w http.ResponseWriter, r *http.Request) {
	id, ok := s.shellID(w, r)
	if !ok {
		return
	}
	submodelID, err := decodeIdentifier(chi.URLParam(r, "submodelId"))
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}

	if err := s.registry.RemoveSubmodelRef(r.Context(), id, submodelID); err != nil {
		s.writeRegistryError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
