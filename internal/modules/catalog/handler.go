package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"facilityhub/internal/middleware"
	"facilityhub/internal/pkg/response"
	"facilityhub/internal/repository"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resources", h.ListResources)
	rg.GET("/resources/:id", h.GetResource)
	rg.GET("/resources/:id/blackouts", h.ListBlackouts)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/resources", h.ListAllResources)
	rg.POST("/resources", h.CreateResource)
	rg.PATCH("/resources/:id", h.UpdateResource)
	rg.PUT("/resources/:id/active", h.SetActive)
	rg.POST("/resources/:id/blackouts", h.CreateBlackout)
	rg.DELETE("/blackouts/:id", h.DeleteBlackout)
}

/* ---------- RESOURCE HANDLERS ---------- */

func (h *Handler) ListResources(c *gin.Context) {
	list, err := h.service.ListResources(c.Request.Context(), true)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"resources": list})
}

func (h *Handler) ListAllResources(c *gin.Context) {
	list, err := h.service.ListResources(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"resources": list})
}

func (h *Handler) GetResource(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	res, err := h.service.GetResource(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"resource": res})
}

func (h *Handler) CreateResource(c *gin.Context) {
	var req CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	res, err := h.service.CreateResource(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"resource": res})
}

func (h *Handler) UpdateResource(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	res, err := h.service.UpdateResource(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"resource": res})
}

func (h *Handler) SetActive(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "is_active is required")
		return
	}
	res, err := h.service.SetResourceActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"resource": res})
}

/* ---------- BLACKOUT HANDLERS ---------- */

func (h *Handler) ListBlackouts(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	list, err := h.service.ListBlackouts(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"blackouts": list})
}

func (h *Handler) CreateBlackout(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req CreateBlackoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	w, err := h.service.CreateBlackout(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"blackout": w})
}

func (h *Handler) DeleteBlackout(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.service.DeleteBlackout(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid id")
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	var verr *ValidationError
	var conflict *BlackoutConflictError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid fields", verr.Fields)
	case errors.As(err, &conflict):
		response.ErrorWithDetails(c, http.StatusConflict, "BOOKINGS_IN_WINDOW",
			"Blackout window overlaps active bookings", gin.H{"conflicting_bookings": conflict.Bookings})
	case errors.Is(err, ErrResourceNotFound):
		response.Error(c, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found")
	case errors.Is(err, ErrBlackoutNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Blackout window not found")
	case errors.Is(err, repository.ErrStoreBusy):
		c.Header("Retry-After", "1")
		response.Error(c, http.StatusServiceUnavailable, "TRY_AGAIN", "Store is busy, please retry")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
