package booking

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/handler"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/service/booking"
	"github.com/jwalitptl/clinic-booking/internal/service/scheduling"
	"github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/httputil"
)

type Handler struct {
	engine   *scheduling.Engine
	bookings *booking.Service
}

func NewHandler(engine *scheduling.Engine, bookings *booking.Service) *Handler {
	return &Handler{engine: engine, bookings: bookings}
}

// RegisterRoutes mounts the public booking endpoints. writes is applied to
// the booking creation route only.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, writes ...gin.HandlerFunc) {
	bookings := r.Group("/bookings")
	{
		bookings.GET("/slots", h.GetAvailableSlots)
		bookings.POST("", append(append([]gin.HandlerFunc{}, writes...), h.CreateBooking)...)
		bookings.GET("", h.ListByEmail)
		bookings.GET("/:id", h.GetBooking)
	}
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.GET("", h.ListBookings)
		bookings.POST("", h.CreateBookingForPatient)
		bookings.GET("/:id", h.GetBookingDetails)
		bookings.DELETE("/:id", h.DeleteBooking)
		bookings.PATCH("/:id/status", h.UpdateStatus)
		bookings.POST("/:id/notes", h.AddSessionNote)
	}
}

func (h *Handler) GetAvailableSlots(c *gin.Context) {
	fields := map[string]string{}
	serviceID, err := uuid.Parse(c.Query("service_id"))
	if err != nil {
		fields["service_id"] = "must be a valid id"
	}
	date, err := model.ParseDate(c.Query("date"))
	if err != nil {
		fields["date"] = "must be a date in YYYY-MM-DD format"
	}
	if len(fields) > 0 {
		httputil.RespondWithError(c, errors.Validation(fields))
		return
	}

	slots, err := h.engine.AvailableSlots(c.Request.Context(), serviceID, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, slots)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	b, err := h.engine.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, b)
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	b, err := h.bookings.GetBooking(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, b)
}

func (h *Handler) ListByEmail(c *gin.Context) {
	bookings, err := h.bookings.ListByEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, bookings)
}

func (h *Handler) ListBookings(c *gin.Context) {
	filter, fields := parseFilter(c)
	if len(fields) > 0 {
		httputil.RespondWithError(c, errors.Validation(fields))
		return
	}

	bookings, err := h.bookings.List(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, bookings)
}

func parseFilter(c *gin.Context) (*model.BookingFilter, map[string]string) {
	filter := &model.BookingFilter{}
	fields := map[string]string{}

	if raw := c.Query("status"); raw != "" {
		status := model.BookingStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("service_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			fields["service_id"] = "must be a valid id"
		} else {
			filter.ServiceID = &id
		}
	}
	if raw := c.Query("date"); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			fields["date"] = "must be a date in YYYY-MM-DD format"
		} else {
			filter.Date = &d
		}
	}
	return filter, fields
}

func (h *Handler) CreateBookingForPatient(c *gin.Context) {
	var req model.CreatePatientBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	b, err := h.engine.CreateBookingForPatient(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, b)
}

func (h *Handler) GetBookingDetails(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	details, err := h.bookings.GetDetails(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, details)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	b, err := h.bookings.UpdateStatus(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, b)
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.bookings.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AddSessionNote(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	var req model.CreateSessionNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	note, err := h.bookings.AddSessionNote(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, note)
}
