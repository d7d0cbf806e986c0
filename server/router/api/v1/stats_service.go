package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetStats returns aggregate catalog counts by type, subtype, and source.
//
// GET /api/v1/stats
func (s *APIV1Service) GetStats(c echo.Context) error {
	stats, err := s.Store.GetPartStats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load statistics").SetInternal(err)
	}
	return c.JSON(http.StatusOK, stats)
}
