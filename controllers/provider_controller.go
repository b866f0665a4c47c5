package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chkin-backend/services"
	"chkin-backend/utils"
)

type ProviderRegisterRequest struct {
	OrganizationName string `json:"organization_name" binding:"required"`
	ContactName      string `json:"contact_name"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required"`
}

type RejectProviderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ProviderController struct {
	ProviderSvc *services.ProviderService
}

func NewProviderController(svc *services.ProviderService) *ProviderController {
	return &ProviderController{ProviderSvc: svc}
}

// Register (POST /api/providers/register) queues an organisation for review.
func (ctrl *ProviderController) Register(c *gin.Context) {
	var req ProviderRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorDetail(c, http.StatusBadRequest, "invalid payload", err)
		return
	}
	provider, err := ctrl.ProviderSvc.Register(services.ProviderRegistration{
		OrganizationName: req.OrganizationName,
		ContactName:      req.ContactName,
		Email:            req.Email,
		Password:         req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, provider)
}

// List (GET /api/admin/providers?status=PENDING)
func (ctrl *ProviderController) List(c *gin.Context) {
	providers, err := ctrl.ProviderSvc.List(c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, providers)
}

func (ctrl *ProviderController) Approve(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	provider, err := ctrl.ProviderSvc.Approve(id, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, provider)
}

func (ctrl *ProviderController) Reject(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req RejectProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorDetail(c, http.StatusBadRequest, "a rejection reason is required", err)
		return
	}
	provider, err := ctrl.ProviderSvc.Reject(id, actor, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, provider)
}
