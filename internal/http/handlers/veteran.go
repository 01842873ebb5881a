package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/claimsbridge-backend/internal/http/response"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
	"github.com/yungbote/claimsbridge-backend/internal/services"
)

type VeteranHandler struct {
	log      *logger.Logger
	veterans services.VeteranService
}

func NewVeteranHandler(log *logger.Logger, veterans services.VeteranService) *VeteranHandler {
	return &VeteranHandler{
		log:      log.With("handler", "VeteranHandler"),
		veterans: veterans,
	}
}

type registerVeteranRequest struct {
	Email          string `json:"email" binding:"required"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ServicePeriods []struct {
		Branch    string `json:"branch"`
		StartDate string `json:"start_date" binding:"required"`
		EndDate   string `json:"end_date" binding:"required"`
	} `json:"service_periods"`
}

func (h *VeteranHandler) Register(c *gin.Context) {
	var req registerVeteranRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	periods := make([]services.ServicePeriodInput, 0, len(req.ServicePeriods))
	for i, p := range req.ServicePeriods {
		start, err := time.Parse("2006-01-02", p.StartDate)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("service period %d: invalid start_date", i))
			return
		}
		end, err := time.Parse("2006-01-02", p.EndDate)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("service period %d: invalid end_date", i))
			return
		}
		periods = append(periods, services.ServicePeriodInput{
			Branch:    p.Branch,
			StartDate: start,
			EndDate:   end,
		})
	}

	vet, err := h.veterans.Register(c.Request.Context(), req.Email, req.FirstName, req.LastName, periods)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "register_failed", err)
		return
	}
	response.RespondCreated(c, vet)
}

func (h *VeteranHandler) Get(c *gin.Context) {
	veteranID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid veteran id"))
		return
	}
	vet, err := h.veterans.Get(c.Request.Context(), veteranID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	response.RespondOK(c, vet)
}

func (h *VeteranHandler) ServicePeriods(c *gin.Context) {
	veteranID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid veteran id"))
		return
	}
	periods, err := h.veterans.ServicePeriods(c.Request.Context(), veteranID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	response.RespondOK(c, periods)
}
