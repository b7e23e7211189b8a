package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/twin-registry/internal/filter"
	"github.com/nerrad567/twin-registry/internal/shell"
)

// handleListShells returns one page of shells.
//
// Query parameters:
//   - ids: restrict to these shell IDs (repeatable)
//   - idShort: exact idShort match
//   - assetKind: INSTANCE, TYPE or NOT_APPLICABLE
//   - assetType: asset type, applied when assetKind is TYPE
//   - specificAssetId: base64url JSON {name, value} (repeatable, all must match)
//   - cursor, limit: paging
func (s *Server) handleListShells(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilter(r.URL.Query())
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}
	s.listShells(w, r, spec)
}

// handleQueryShells lists shells matching a JSON filter body. An empty
// body matches every shell.
func (s *Server) handleQueryShells(w http.ResponseWriter, r *http.Request) {
	var spec filter.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, r, "invalid JSON: "+err.Error())
		return
	}

	kind, err := shell.ParseAssetKind(string(spec.AssetKind))
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}
	spec.AssetKind = kind

	s.listShells(w, r, spec)
}

func (s *Server) listShells(w http.ResponseWriter, r *http.Request, spec filter.Spec) {
	info, err := s.pageInfo(r)
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}

	page, err := s.registry.ListShells(r.Context(), spec, info)
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newPageResponse(page))
}

// handleGetShell returns a single shell.
func (s *Server) handleGetShell(w http.ResponseWriter, r *http.Request) {
	id, ok := s.shellID(w, r)
	if !ok {
		return
	}

	sh, err := s.registry.GetShell(r.Context(), id)
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sh)
}

// handleCreateShell stores a new shell. An empty id is generated.
func (s *Server) handleCreateShell(w http.ResponseWriter, r *http.Request) {
	var sh shell.Shell
	if err := json.NewDecoder(r.Body).Decode(&sh); err != nil {
		writeBadRequest(w, r, "invalid JSON: "+err.Error())
		return
	}

	if err := s.registry.CreateShell(r.Context(), &sh); err != nil {
		s.writeRegistryError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v3/shells/"+encodeIdentifier(sh.ID))
	writeJSON(w, http.StatusCreated, sh)
}

// handleUpdateShell replaces a shell. The body id, when present, must match the path.
func (s *Server) handleUpdateShell(w http.ResponseWriter, r *http.Request) {
	id, ok := s.shellID(w, r)
	if !ok {
		return
	}

	var sh shell.Shell
	if err := json.NewDecoder(r.Body).Decode(&sh); err != nil {
		writeBadRequest(w, r, "invalid JSON: "+err.Error())
		return
	}

	if err := s.registry.UpdateShell(r.Context(), id, &sh); err != nil {
		s.writeRegistryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sh)
}

// handleDeleteShell removes a shell.
func (s *Server) handleDeleteShell(w http.ResponseWriter, r *http.Request) {
	id, ok := s.shellID(w, r)
	if !ok {
		return
	}

	if err := s.registry.DeleteShell(r.Context(), id); err != nil {
		s.writeRegistryError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleClearShells removes every shell.
func (s *Server) handleClearShells(w http.ResponseWriter, r *http.Request) {
	removed, err := s.registry.Clear(r.Context())
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"removed": len(removed)})
}

// shellID decodes the {id} path parameter, writing a 400 when it is malformed.
func (s *Server) shellID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := decodeIdentifier(chi.URLParam(r, "id"))
	if err != nil {
		s.writeRegistryError(w, r, err)
		return "", false
	}
	return id, true
}
