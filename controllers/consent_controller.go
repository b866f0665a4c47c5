package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chkin-backend/services"
	"chkin-backend/utils"
)

type RenewRequest struct {
	DurationMonths int `json:"duration_months"`
}

type ConsentController struct {
	ConsentSvc *services.ConsentService
}

func NewConsentController(svc *services.ConsentService) *ConsentController {
	return &ConsentController{ConsentSvc: svc}
}

// ConsentStatus (GET /api/submissions/:id/consent)
func (ctrl *ConsentController) ConsentStatus(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	view, err := ctrl.ConsentSvc.Status(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, view)
}

// Withdraw (POST /api/submissions/:id/withdraw)
func (ctrl *ConsentController) Withdraw(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	view, err := ctrl.ConsentSvc.Withdraw(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, view)
}

// Renew (POST /api/submissions/:id/renew). An empty body renews for the
// form's configured duration.
func (ctrl *ConsentController) Renew(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req RenewRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		utils.JSONErrorDetail(c, http.StatusBadRequest, "invalid payload", err)
		return
	}
	if req.DurationMonths < 0 {
		utils.JSONError(c, http.StatusBadRequest, "duration_months must not be negative")
		return
	}
	view, err := ctrl.ConsentSvc.Renew(actor, id, req.DurationMonths)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, view)
}

// GetSubmission (GET /api/submissions/:id) serves the answers only while
// consent is accessible.
func (ctrl *ConsentController) GetSubmission(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	sub, view, err := ctrl.ConsentSvc.AccessSubmission(actor, id)
	if errors.Is(err, services.ErrConsentInactive) {
		_ = c.Error(err)
		c.JSON(http.StatusForbidden, gin.H{
			"success":        false,
			"error":          "consent is not active",
			"consent_status": view,
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, services.SubmissionView{
		Submission: sub,
		FormTitle:  sub.Form.Title,
		Consent:    view,
	})
}
