package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chkin-backend/services"
	"chkin-backend/utils"
)

type ConsentLogController struct {
	LogSvc *services.ConsentLogService
}

func NewConsentLogController(svc *services.ConsentLogService) *ConsentLogController {
	return &ConsentLogController{LogSvc: svc}
}

// GetConsentLogs (GET /api/admin/consent-logs?submission_id=&action=&limit=)
func (ctrl *ConsentLogController) GetConsentLogs(c *gin.Context) {
	var filter services.ConsentLogFilter
	if raw := c.Query("submission_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid submission_id")
			return
		}
		sid := uint(id)
		filter.SubmissionID = &sid
	}
	filter.Action = c.Query("action")
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	logs, err := ctrl.LogSvc.List(filter)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, logs)
}
