package api

import (
	"context"
	"net/http"

	"github.com/okian/gatedirector/internal/domain/catalog"
)

// CatalogDependencies read and rebuild airport catalogs.
type CatalogDependencies interface {
	AssignmentDependencies
	Catalog(ctx context.Context, airport string) (*catalog.Catalog, error)
}

// CatalogsHandler serves /catalogs/{icao} and /catalogs/{icao}/rebuild.
type CatalogsHandler struct {
	deps CatalogDependencies
}

// NewCatalogsHandler creates a new catalogs handler.
func NewCatalogsHandler(deps CatalogDependencies) *CatalogsHandler {
	return &CatalogsHandler{deps: deps}
}

// HandleCatalog handles GET /catalogs/{icao} and POST /catalogs/{icao}/rebuild.
func (h *CatalogsHandler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	icao, tail := airportFromPath(r.URL.Path)
	if len(icao) != 4 {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch {
	case tail == "" && r.Method == http.MethodGet:
		c, err := h.deps.Catalog(r.Context(), icao)
		if err != nil {
			if isNotFound(err) {
				writeError(w, http.StatusNotFound, "not_found", err)
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	case tail == "rebuild" && r.Method == http.MethodPost:
		queued, err := h.deps.RequestRebuild(r.Context(), icao)
		writeEnqueueResult(w, queued, err, h.deps.IsDuplicate)
	default:
		http.NotFound(w, r)
	}
}
