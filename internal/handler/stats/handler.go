package stats

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-booking/internal/service/stats"
	"github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/httputil"
)

type Handler struct {
	service *stats.Service
}

func NewHandler(service *stats.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects r to be restricted to ADMIN accounts.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	s := r.Group("/stats")
	{
		s.GET("", h.Dashboard)
		s.GET("/bookings-over-time", h.BookingsOverTime)
		s.GET("/services", h.ServiceStats)
		s.GET("/status", h.StatusDistribution)
		s.GET("/peak-times", h.PeakTimes)
	}
}

func (h *Handler) Dashboard(c *gin.Context) {
	out, err := h.service.Dashboard(c.Request.Context())
	respond(c, out, err)
}

func (h *Handler) BookingsOverTime(c *gin.Context) {
	days := stats.DefaultDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.RespondWithError(c, errors.Validation(map[string]string{"days": "must be a positive integer"}))
			return
		}
		days = n
	}

	out, err := h.service.BookingsOverTime(c.Request.Context(), days)
	respond(c, out, err)
}

func (h *Handler) ServiceStats(c *gin.Context) {
	out, err := h.service.ServiceStats(c.Request.Context())
	respond(c, out, err)
}

func (h *Handler) StatusDistribution(c *gin.Context) {
	out, err := h.service.StatusDistribution(c.Request.Context())
	respond(c, out, err)
}

func (h *Handler) PeakTimes(c *gin.Context) {
	out, err := h.service.PeakTimes(c.Request.Context())
	respond(c, out, err)
}

func respond(c *gin.Context, data interface{}, err error) {
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, data)
}
