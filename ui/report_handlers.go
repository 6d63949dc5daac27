package ui

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleCategoryReports(c *gin.Context) {
	reports, err := s.reports.CategorySummaries(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (s *Server) handleExportCategoryReports(c *gin.Context) {
	reports, err := s.reports.CategorySummaries(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	workbook, err := s.exporter.ReportWorkbook(reports)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="category-report.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := workbook.Write(c.Writer); err != nil {
		writeError(c, err)
	}
}
