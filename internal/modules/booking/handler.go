package booking

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"facilityhub/internal/domain"
	"facilityhub/internal/middleware"
	"facilityhub/internal/modules/availability"
	"facilityhub/internal/pkg/response"
	"facilityhub/internal/repository"
	"facilityhub/internal/slotlock"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the applicant endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resources/:id/availability", h.CheckAvailability)

	rg.POST("/bookings", h.Submit)
	rg.GET("/bookings/mine", h.ListMine)
	rg.GET("/bookings/by-reference/:reference", h.GetByReference)
	rg.GET("/bookings/:id", h.Get)
	rg.GET("/bookings/:id/history", h.History)
	rg.POST("/bookings/:id/cancel", h.Cancel)
	rg.DELETE("/bookings/:id", h.Withdraw)
}

// RegisterAdminRoutes mounts the staff endpoints on a staff-only group.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/resources/:id/bookings", h.ListByResource)

	rg.POST("/bookings/:id/transition", h.Transition)
	rg.POST("/bookings/:id/override", h.Override)
	rg.PUT("/bookings/:id/schedule", h.Reschedule)
	rg.PATCH("/bookings/:id/payment", h.UpdatePaymentStatus)
}

func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.Submit(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) CheckAvailability(c *gin.Context) {
	resourceID, ok := idParam(c, "id")
	if !ok {
		return
	}
	start, err1 := time.Parse(time.RFC3339, c.Query("start"))
	end, err2 := time.Parse(time.RFC3339, c.Query("end"))
	if err1 != nil || err2 != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "start and end must be RFC3339 timestamps")
		return
	}

	q := AvailabilityQuery{
		ResourceID:    resourceID,
		Start:         start,
		End:           end,
		EventCategory: domain.EventCategory(c.Query("event_category")),
	}
	if raw := c.Query("exclude_booking_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid exclude_booking_id")
			return
		}
		q.ExcludeBookingID = &id
	}

	out, err := h.service.CheckAvailability(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) ListMine(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.service.ListMine(c.Request.Context(), middleware.Actor(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	b, err := h.service.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) GetByReference(c *gin.Context) {
	b, err := h.service.GetByReference(c.Request.Context(), middleware.Actor(c), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) History(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	entries, err := h.service.History(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"history": entries})
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req CancelRequest
	// Body is optional.
	_ = c.ShouldBindJSON(&req)

	b, err := h.service.CancelByApplicant(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Withdraw(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Withdraw(c.Request.Context(), middleware.Actor(c), id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"withdrawn": id})
}

func (h *Handler) Transition(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.Transition(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b, "allowed_next": AllowedTransitions(b.Status)})
}

func (h *Handler) Override(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "JUSTIFICATION_REQUIRED", "status and justification are required")
		return
	}

	b, err := h.service.Override(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Reschedule(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.Reschedule(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req PaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.UpdatePaymentStatus(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) ListByResource(c *gin.Context) {
	resourceID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var from, to time.Time
	var err error
	if raw := c.Query("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "from must be RFC3339")
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "to must be RFC3339")
			return
		}
	}

	list, err := h.service.ListByResource(c.Request.Context(), middleware.Actor(c), resourceID, from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list})
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid id")
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		details := gin.H{
			"conflicting_bookings":  []domain.BookingRequest{},
			"conflicting_blackouts": []domain.BlackoutWindow{},
			"late":                  conflict.Late,
		}
		if conflict.Result != nil {
			details["conflicting_bookings"] = conflict.Result.ConflictingBookings
			details["conflicting_blackouts"] = conflict.Result.ConflictingBlackouts
		}
		response.ErrorWithDetails(c, http.StatusConflict, "BOOKING_CONFLICT",
			"Resource is not available for the selected time", details)
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrJustificationRequired):
		response.Error(c, http.StatusBadRequest, "JUSTIFICATION_REQUIRED", err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrResourceNotFound):
		response.Error(c, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found")
	case errors.Is(err, ErrResourceInactive):
		response.Error(c, http.StatusUnprocessableEntity, "RESOURCE_INACTIVE", err.Error())
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", err.Error())
	case errors.Is(err, ErrConcurrentUpdate):
		response.Error(c, http.StatusConflict, "CONCURRENT_UPDATE", "Booking was changed by another request, reload and retry")
	case errors.Is(err, slotlock.ErrResourceBusy), errors.Is(err, availability.ErrLookupFailed),
		errors.Is(err, repository.ErrStoreBusy):
		c.Header("Retry-After", "1")
		response.Error(c, http.StatusServiceUnavailable, "TRY_AGAIN", "Availability could not be checked, please retry")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
