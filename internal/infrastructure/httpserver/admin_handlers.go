package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/provia/proofbridge/internal/core/domain/delivery"
)

// rotateSecret handles POST /api/v1/admin/secret/rotate. It drops the cached
// signing secret so the next verification refetches from the store. The
// request itself was authenticated with the old secret; callers rotate the
// store first, then hit this endpoint inside the old secret's cache window.
func (s *Server) rotateSecret(c echo.Context) error {
	s.secrets.Invalidate()
	if s.logger != nil {
		s.logger.WithField("ip", c.RealIP()).Info("signing secret rotation requested")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "secret cache invalidated"})
}

// listDeliveries handles GET /api/v1/admin/deliveries
func (s *Server) listDeliveries(c echo.Context) error {
	filter := &delivery.Filter{
		EventType: c.QueryParam("event_type"),
		ProofID:   c.QueryParam("proof_id"),
		Outcome:   delivery.Outcome(c.QueryParam("outcome")),
	}
	if v := c.QueryParam("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "since must be RFC3339")
		}
		filter.Since = &t
	}
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Offset = n
		}
	}

	out, err := s.deliveries.List(c.Request().Context(), filter)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("failed to list deliveries")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list deliveries")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"deliveries": out, "count": len(out)})
}

// cacheStats handles GET /api/v1/admin/cache/stats
func (s *Server) cacheStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.cache.Stats(c.Request().Context()))
}
