package reservation

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/garage-api/internal/handler"
	"github.com/jwalitptl/garage-api/internal/model"
	"github.com/jwalitptl/garage-api/internal/service/availability"
	"github.com/jwalitptl/garage-api/internal/service/booking"
)

// Handler exposes the availability read path and the booking write path.
type Handler struct {
	availabilitySvc *availability.Service
	bookingSvc      *booking.Service
}

func NewHandler(availabilitySvc *availability.Service, bookingSvc *booking.Service) *Handler {
	return &Handler{
		availabilitySvc: availabilitySvc,
		bookingSvc:      bookingSvc,
	}
}

// GetAvailableSlots handles
// GET /reservations/slots?date=2025-09-01&operation_ids=<id>,<id>
func (h *Handler) GetAvailableSlots(c *gin.Context) {
	date, err := time.Parse(model.DateLayout, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date format, expected YYYY-MM-DD"))
		return
	}

	operationIDs, err := parseOperationIDs(c.Query("operation_ids"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid operation ids"))
		return
	}

	slots, err := h.availabilitySvc.FindAvailableSlots(c.Request.Context(), date, operationIDs)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(slots))
}

// Book handles POST /reservations/book.
func (h *Handler) Book(c *gin.Context) {
	var req model.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	date, err := time.Parse(model.DateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date format, expected YYYY-MM-DD"))
		return
	}
	start, err := model.CombineDateClock(date, req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid start time"))
		return
	}
	end, err := model.CombineDateClock(date, req.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid end time"))
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid customer ID"))
		return
	}

	operationIDs := make([]uuid.UUID, 0, len(req.OperationIDs))
	for _, raw := range req.OperationIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid operation ID"))
			return
		}
		operationIDs = append(operationIDs, id)
	}

	confirmation, err := h.bookingSvc.Book(c.Request.Context(), date, start, end, customerID, operationIDs)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(confirmation))
}

// GetAppointment handles GET /appointments/:id, returning the appointment
// with its staff segments.
func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	appointment, err := h.bookingSvc.GetAppointment(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointment))
}

// ListAppointments handles GET /appointments?date=2025-09-01.
func (h *Handler) ListAppointments(c *gin.Context) {
	date, err := time.Parse(model.DateLayout, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date format, expected YYYY-MM-DD"))
		return
	}

	appointments, err := h.bookingSvc.ListAppointments(c.Request.Context(), date)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reservations := r.Group("/reservations")
	{
		reservations.GET("/slots", h.GetAvailableSlots)
		reservations.POST("/book", h.Book)
	}

	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
	}
}

func parseOperationIDs(raw string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
