package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/claimsbridge-backend/internal/http/response"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
	"github.com/yungbote/claimsbridge-backend/internal/services"
)

type ConditionHandler struct {
	log        *logger.Logger
	conditions services.ConditionService
}

func NewConditionHandler(log *logger.Logger, conditions services.ConditionService) *ConditionHandler {
	return &ConditionHandler{
		log:        log.With("handler", "ConditionHandler"),
		conditions: conditions,
	}
}

func (h *ConditionHandler) List(c *gin.Context) {
	veteranID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid veteran id"))
		return
	}
	conds, err := h.conditions.ListByVeteran(c.Request.Context(), veteranID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	response.RespondOK(c, conds)
}

func (h *ConditionHandler) Delete(c *gin.Context) {
	veteranID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid veteran id"))
		return
	}
	conditionID, err := uuid.Parse(c.Param("conditionId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid condition id"))
		return
	}

	if err := h.conditions.Delete(c.Request.Context(), veteranID, conditionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.RespondError(c, http.StatusNotFound, "not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": conditionID})
}
