package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chkin-backend/models"
	"chkin-backend/services"
	"chkin-backend/utils"
)

type FormRequest struct {
	Title                 string `json:"title"`
	Description           string `json:"description"`
	ConsentDurationMonths *int   `json:"consent_duration_months"`
	GracePeriodDays       *int   `json:"grace_period_days"`
	AutoRenew             *bool  `json:"auto_renew"`
	Published             *bool  `json:"published"`
}

func (r FormRequest) input() services.FormInput {
	return services.FormInput{
		Title:                 r.Title,
		Description:           r.Description,
		ConsentDurationMonths: r.ConsentDurationMonths,
		GracePeriodDays:       r.GracePeriodDays,
		AutoRenew:             r.AutoRenew,
		Published:             r.Published,
	}
}

type FieldRequest struct {
	Label    string `json:"label" binding:"required"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

type ReorderFieldsRequest struct {
	FieldIDs []uint `json:"field_ids" binding:"required"`
}

// FormResponse is a form plus the link patients use to fill it in.
type FormResponse struct {
	models.Form
	PublicURL string `json:"public_url"`
}

type FormController struct {
	FormSvc     *services.FormService
	FrontendURL string
}

func NewFormController(svc *services.FormService, frontendURL string) *FormController {
	return &FormController{FormSvc: svc, FrontendURL: frontendURL}
}

func (ctrl *FormController) response(f models.Form) FormResponse {
	return FormResponse{Form: f, PublicURL: utils.BuildPublicFormURL(ctrl.FrontendURL, f.ShortCode)}
}

// CreateForm (POST /api/forms)
func (ctrl *FormController) CreateForm(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req FormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorDetail(c, http.StatusBadRequest, "invalid payload", err)
		return
	}
	form, err := ctrl.FormSvc.Create(actor, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, ctrl.response(form))
}

// GetForms (GET /api/forms) lists the caller's forms.
func (ctrl *FormController) GetForms(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	forms, err := ctrl.FormSvc.ListForProvider(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]FormResponse, 0, len(forms))
	for _, f := range forms {
		out = append(out, ctrl.response(f))
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}

func (ctrl *FormController) GetForm(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	form, err := ctrl.FormSvc.Get(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, ctrl.response(form))
}

func (ctrl *FormController) UpdateForm(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req FormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorDetail(c, http.StatusBadRequest, "invalid payload", err)
		return
	}
	form, err := ctrl.FormSvc.Update(actor, id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, ctrl.response(form))
}

func (ctrl *FormController) DeleteForm(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.FormSvc.Delete(actor, id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"id": id})
}

// AddField (POST /api/forms/:id/fields)
func (ctrl *FormController) AddField(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req FieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorDetail(c, http.StatusBadRequest, "invalid payload", err)
		return
	}
	field, err := ctrl.FormSvc.AddField(actor, id, services.FieldInput{Label: req.Label, Type: req.Type, Required: req.Required})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, field)
}

// ReorderFields (PUT /api/forms/:id/fields/order)
func (ctrl *FormController) ReorderFields(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ReorderFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorDetail(c, http.StatusBadRequest, "invalid payload", err)
		return
	}
	fields, err := ctrl.FormSvc.ReorderFields(actor, id, req.FieldIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, fields)
}

// GetPublicForm (GET /api/public/forms/:code) needs no login.
func (ctrl *FormController) GetPublicForm(c *gin.Context) {
	form, err := ctrl.FormSvc.GetPublished(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, ctrl.response(form))
}
