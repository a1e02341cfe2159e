package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unitab-io/unitab/catalog"
)

// idParam parses the :id route parameter.
func idParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", c.Param("id"))
	}

	return id, nil
}

func (s *Server) createSystem(c *gin.Context) {
	var sys catalog.DataSystem
	if err := c.ShouldBindJSON(&sys); err != nil {
		badRequest(c, err)

		return
	}

	sys.ID = 0

	if err := s.store.CreateSystem(c.Request.Context(), &sys); err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusCreated, sys)
}

func (s *Server) listSystems(c *gin.Context) {
	systems, err := s.store.Systems(c.Request.Context())
	if err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, systems)
}

func (s *Server) getSystem(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		badRequest(c, err)

		return
	}

	sys, err := s.store.System(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, sys)
}

func (s *Server) deleteSystem(c *gin.Context) {
	s.deleteByID(c, s.store.DeleteSystem)
}

func (s *Server) createSource(c *gin.Context) {
	systemID, err := idParam(c)
	if err != nil {
		badRequest(c, err)

		return
	}

	var src catalog.DataSource
	if err := c.ShouldBindJSON(&src); err != nil {
		badRequest(c, err)

		return
	}

	src.ID = 0
	src.SystemID = systemID

	if err := s.store.CreateSource(c.Request.Context(), &src); err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusCreated, src)
}

func (s *Server) listSources(c *gin.Context) {
	systemID, err := idParam(c)
	if err != nil {
		badRequest(c, err)

		return
	}

	// Listing an unknown system should 404, not return an empty list.
	if _, err := s.store.System(c.Request.Context(), systemID); err != nil {
		s.fail(c, err)

		return
	}

	sources, err := s.store.SourcesBySystem(c.Request.Context(), systemID)
	if err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, sources)
}

func (s *Server) deleteSource(c *gin.Context) {
	s.deleteByID(c, s.store.DeleteSource)
}

func (s *Server) createAttribute(c *gin.Context) {
	sourceID, err := idParam(c)
	if err != nil {
		badRequest(c, err)

		return
	}

	var attr catalog.Attribute
	if err := c.ShouldBindJSON(&attr); err != nil {
		badRequest(c, err)

		return
	}

	attr.ID = 0
	attr.SourceID = sourceID

	if err := s.store.CreateAttribute(c.Request.Context(), &attr); err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusCreated, attr)
}

func (s *Server) listAttributes(c *gin.Context) {
	sourceID, err := idParam(c)
	if err != nil {
		badRequest(c, err)

		return
	}

	if _, err := s.store.Source(c.Request.Context(), sourceID); err != nil {
		s.fail(c, err)

		return
	}

	attrs, err := s.store.AttributesBySource(c.Request.Context(), sourceID)
	if err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, attrs)
}

func (s *Server) deleteAttribute(c *gin.Context) {
	s.deleteByID(c, s.store.DeleteAttribute)
}

func (s *Server) createCrossRef(c *gin.Context) {
	systemID, err := idParam(c)
	if err != nil {
		badRequest(c, err)

		return
	}

	var xref catalog.CrossRef
	if err := c.ShouldBindJSON(&xref); err != nil {
		badRequest(c, err)

		return
	}

	xref.ID = 0
	xref.SystemID = systemID

	if err := s.store.CreateCrossRef(c.Request.Context(), &xref); err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusCreated, xref)
}

func (s *Server) listCrossRefs(c *gin.Context) {
	systemID, err := idParam(c)
	if err != nil {
		badRequest(c, err)

		return
	}

	if _, err := s.store.System(c.Request.Context(), systemID); err != nil {
		s.fail(c, err)

		return
	}

	xrefs, err := s.store.CrossRefsBySystem(c.Request.Context(), systemID)
	if err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, xrefs)
}

func (s *Server) deleteCrossRef(c *gin.Context) {
	s.deleteByID(c, s.store.DeleteCrossRef)
}

func (s *Server) createCrossRefMapping(c *gin.Context) {
	crossRefID, err := idParam(c)
	if err != nil {
		badRequest(c, err)

		return
	}

	var m catalog.CrossRefMapping
	if err := c.ShouldBindJSON(&m); err != nil {
		badRequest(c, err)

		return
	}

	m.ID = 0
	m.CrossRefID = crossRefID

	if err := s.store.CreateCrossRefMapping(c.Request.Context(), &m); err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusCreated, m)
}

func (s *Server) listCrossRefMappings(c *gin.Context) {
	crossRefID, err := idParam(c)
	if err != nil {
		badRequest(c, err)

		return
	}

	mappings, err := s.store.MappingsByCrossRef(c.Request.Context(), crossRefID)
	if err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, mappings)
}

func (s *Server) deleteCrossRefMapping(c *gin.Context) {
	s.deleteByID(c, s.store.DeleteCrossRefMapping)
}

func (s *Server) createCanonical(c *gin.Context) {
	var canon catalog.Canonical
	if err := c.ShouldBindJSON(&canon); err != nil {
		badRequest(c, err)

		return
	}

	canon.ID = 0

	if err := s.store.CreateCanonical(c.Request.Context(), &canon); err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusCreated, canon)
}

func (s *Server) listCanonicals(c *gin.Context) {
	canonicals, err := s.store.Canonicals(c.Request.Context())
	if err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, canonicals)
}

func (s *Server) createDataMapping(c *gin.Context) {
	systemID, err := idParam(c)
	if err != nil {
		badRequest(c, err)

		return
	}

	var dm catalog.DataMapping
	if err := c.ShouldBindJSON(&dm); err != nil {
		badRequest(c, err)

		return
	}

	dm.ID = 0
	dm.SystemID = systemID

	if err := s.store.CreateDataMapping(c.Request.Context(), &dm); err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusCreated, dm)
}

func (s *Server) listDataMappings(c *gin.Context) {
	systemID, err := idParam(c)
	if err != nil {
		badRequest(c, err)

		return
	}

	if _, err := s.store.System(c.Request.Context(), systemID); err != nil {
		s.fail(c, err)

		return
	}

	mappings, err := s.store.DataMappingsBySystem(c.Request.Context(), systemID)
	if err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, mappings)
}

func (s *Server) deleteDataMapping(c *gin.Context) {
	s.deleteByID(c, s.store.DeleteDataMapping)
}

func (s *Server) createFilter(c *gin.Context) {
	systemID, err := idParam(c)
	if err != nil {
		badRequest(c, err)

		return
	}

	var f catalog.FilterCondition
	if err := c.ShouldBindJSON(&f); err != nil {
		badRequest(c, err)

		return
	}

	f.ID = 0
	f.SystemID = systemID

	if err := s.store.CreateFilter(c.Request.Context(), &f); err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusCreated, f)
}

func (s *Server) listFilters(c *gin.Context) {
	systemID, err := idParam(c)
	if err != nil {
		badRequest(c, err)

		return
	}

	if _, err := s.store.System(c.Request.Context(), systemID); err != nil {
		s.fail(c, err)

		return
	}

	filters, err := s.store.FiltersBySystem(c.Request.Context(), systemID)
	if err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, filters)
}

func (s *Server) deleteFilter(c *gin.Context) {
	s.deleteByID(c, s.store.DeleteFilter)
}

// deleteByID is the shared delete handler shape: parse :id, call the store,
// answer 204.
func (s *Server) deleteByID(c *gin.Context, del func(ctx context.Context, id int64) error) {
	id, err := idParam(c)
	if err != nil {
		badRequest(c, err)

		return
	}

	if err := del(c.Request.Context(), id); err != nil {
		s.fail(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}
