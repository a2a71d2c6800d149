package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/cardsynth/pkg/db/pagination"
)

func (s *Server) ListExportRuns(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, newValidationError("page_size", "invalid", "page_size must be a number"))
		return
	}
	if query.PageToken != "" {
		if _, err := pagination.DecodeCursor(query.PageToken); err != nil {
			AbortWithError(c, newValidationError("page_token", "invalid", "invalid page token"))
			return
		}
	}

	runs, pageInfo, err := s.runner.ExportRuns(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": runs, "page_info": pageInfo})
}
