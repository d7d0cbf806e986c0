package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ailurusbio/synvectordb/ai/search"
)

// SemanticSearch runs an embedding search over the catalog.
//
// POST /api/v1/tools/semantic_search
func (s *APIV1Service) SemanticSearch(c echo.Context) error {
	if s.Searcher == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "semantic search unavailable, AI is not configured")
	}

	req := &search.QueryRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	resp, err := s.Searcher.Search(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed").SetInternal(err)
	}
	return c.JSON(http.StatusOK, resp)
}
