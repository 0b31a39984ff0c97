package utilization

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"facilityhub/internal/domain"
	"facilityhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	reporter *Reporter
	now      func() time.Time
}

func NewHandler(reporter *Reporter) *Handler {
	return &Handler{reporter: reporter, now: time.Now}
}

// RegisterAdminRoutes mounts the staff-only report endpoints.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/utilization", h.ReportAll)
	rg.GET("/utilization/report.pdf", h.ExportPDF)
	rg.GET("/utilization/:resource_id", h.Report)
}

func (h *Handler) Report(c *gin.Context) {
	resourceID, err := strconv.ParseInt(c.Param("resource_id"), 10, 64)
	if err != nil || resourceID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid resource id")
		return
	}
	window, ok := h.window(c)
	if !ok {
		return
	}
	rep, err := h.reporter.Report(c.Request.Context(), resourceID, window.Start, window.End)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"report": rep})
}

func (h *Handler) ReportAll(c *gin.Context) {
	window, ok := h.window(c)
	if !ok {
		return
	}
	list, err := h.reporter.ReportAll(c.Request.Context(), window.Start, window.End)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reports": list, "from": window.Start, "to": window.End})
}

func (h *Handler) ExportPDF(c *gin.Context) {
	window, ok := h.window(c)
	if !ok {
		return
	}
	list, err := h.reporter.ReportAll(c.Request.Context(), window.Start, window.End)
	if err != nil {
		writeError(c, err)
		return
	}
	data, err := RenderPDF(list, window, h.now().In(h.reporter.Location()))
	if err != nil {
		writeError(c, err)
		return
	}
	filename := fmt.Sprintf("utilization_%s_%s.pdf", c.Query("from"), c.Query("to"))
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// window reads from/to as inclusive YYYY-MM-DD dates.
func (h *Handler) window(c *gin.Context) (domain.Interval, bool) {
	from, err1 := domain.ParseDate(c.Query("from"))
	to, err2 := domain.ParseDate(c.Query("to"))
	if err1 != nil || err2 != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "from and to must be YYYY-MM-DD dates")
		return domain.Interval{}, false
	}
	if to.Before(from) {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "to must not be before from")
		return domain.Interval{}, false
	}
	return h.reporter.DateWindow(from, to), true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidWindow):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid report window")
	case errors.Is(err, ErrResourceNotFound):
		response.Error(c, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
