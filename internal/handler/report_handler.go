package handler

import (
	"bytes"
	"net/http"
	"time"

	"clearancehub/internal/middleware"
	"clearancehub/internal/service"
	"clearancehub/pkg/apperrors"
	"clearancehub/pkg/export"
	"clearancehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
	jwtSecret     []byte
}

func NewReportHandler(reportService service.ReportService, jwtSecret []byte) *ReportHandler {
	return &ReportHandler{reportService: reportService, jwtSecret: jwtSecret}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/dashboard/summary", middleware.RequireRoles(h.jwtSecret), h.DashboardSummary)
	router.GET("/api/reports/export", middleware.RequireRoles(h.jwtSecret), h.Export)
}

// DashboardSummary returns request counts bucketed by outcome under the
// caller's scope
func (h *ReportHandler) DashboardSummary(c *gin.Context) {
	summary, err := h.reportService.DashboardSummary(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// Export downloads the caller's visible requests as CSV or XLSX
func (h *ReportHandler) Export(c *gin.Context) {
	filter, err := listFilterFromQuery(c)
	if err != nil {
		fail(c, err)
		return
	}

	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		fail(c, apperrors.Validation("invalid format, expected csv or xlsx"))
		return
	}

	rows, err := h.reportService.ExportRows(c.Request.Context(), filter, middleware.PrincipalFrom(c))
	if err != nil {
		fail(c, err)
		return
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}

	stamp := time.Now().Format("20060102_150405")
	var buf bytes.Buffer
	if format == "csv" {
		if err := export.WriteCSV(&buf, service.ExportHeaders, records); err != nil {
			fail(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="requests_`+stamp+`.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
		return
	}

	if err := export.WriteExcel(&buf, service.ExportHeaders, records); err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="requests_`+stamp+`.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
