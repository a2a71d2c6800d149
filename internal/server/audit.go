package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
)

func (s *Server) GetAudit(c *gin.Context) {
	summary, err := s.runner.Audit(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (s *Server) GetAuditReport(c *gin.Context) {
	summary, err := s.runner.Audit(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := s.auditSvc.RenderPDF(c.Request.Context(), summary)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := slug.Make("cardsynth audit "+summary.GeneratedAt.Format("2006-01-02")) + ".pdf"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", report)
}
