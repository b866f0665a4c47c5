package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chkin-backend/services"
	"chkin-backend/utils"
)

type AdminController struct {
	ComplianceSvc *services.ComplianceService
}

func NewAdminController(svc *services.ComplianceService) *AdminController {
	return &AdminController{ComplianceSvc: svc}
}

// GetCompliance (GET /api/admin/compliance)
func (ctrl *AdminController) GetCompliance(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	summary, err := ctrl.ComplianceSvc.Summary(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, summary)
}
