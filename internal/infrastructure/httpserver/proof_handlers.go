package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/provia/proofbridge/internal/core/domain/proof"
)

// createProof handles POST /api/v1/proofs
func (s *Server) createProof(c echo.Context) error {
	var req proof.CreateProofRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.FileURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and file_url are required")
	}

	p, err := s.proofSvc.CreateProof(c.Request().Context(), &req)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).WithField("name", req.Name).Error("failed to create proof")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "failed to create proof on platform")
	}
	return c.JSON(http.StatusCreated, p)
}

// getProof handles GET /api/v1/proofs/:id
func (s *Server) getProof(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "proof id is required")
	}

	p, err := s.proofSvc.GetProof(c.Request().Context(), id)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).WithField("proof_id", id).Warn("failed to fetch proof")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "failed to fetch proof from platform")
	}
	return c.JSON(http.StatusOK, p)
}

// listCollections handles GET /api/v1/collections
func (s *Server) listCollections(c echo.Context) error {
	all, err := s.proofSvc.ListCollections(c.Request().Context())
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("failed to list collections")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "failed to list collections")
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"count": len(all)}).Debug("collections listed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"collections": all})
}
