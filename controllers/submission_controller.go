package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chkin-backend/services"
	"chkin-backend/utils"
)

type SubmitRequest struct {
	Answers      map[string]interface{} `json:"answers"`
	ConsentGiven bool                   `json:"consent_given"`
}

type SubmissionController struct {
	SubmissionSvc *services.SubmissionService
}

func NewSubmissionController(svc *services.SubmissionService) *SubmissionController {
	return &SubmissionController{SubmissionSvc: svc}
}

// Submit (POST /api/public/forms/:code/submissions) requires a patient login.
func (ctrl *SubmissionController) Submit(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorDetail(c, http.StatusBadRequest, "invalid payload", err)
		return
	}
	view, err := ctrl.SubmissionSvc.Submit(actor, c.Param("code"), services.SubmissionInput{
		Answers:      req.Answers,
		ConsentGiven: req.ConsentGiven,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, view)
}

// ListMine (GET /api/patient/submissions)
func (ctrl *SubmissionController) ListMine(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	views, err := ctrl.SubmissionSvc.ListForPatient(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, views)
}

// ListForForm (GET /api/forms/:id/submissions)
func (ctrl *SubmissionController) ListForForm(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	views, err := ctrl.SubmissionSvc.ListForForm(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, views)
}
