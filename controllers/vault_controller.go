package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"chkin-backend/services"
	"chkin-backend/utils"
)

type VaultItemRequest struct {
	Category string          `json:"category" binding:"required"`
	Label    string          `json:"label" binding:"required"`
	Data     json.RawMessage `json:"data" binding:"required"`
}

type VaultController struct {
	VaultSvc *services.VaultService
}

func NewVaultController(svc *services.VaultService) *VaultController {
	return &VaultController{VaultSvc: svc}
}

// GetItems (GET /api/vault?category=)
func (ctrl *VaultController) GetItems(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	items, err := ctrl.VaultSvc.List(actor, c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, items)
}

// PutItem (PUT /api/vault) creates or replaces by category and label.
func (ctrl *VaultController) PutItem(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req VaultItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorDetail(c, http.StatusBadRequest, "invalid payload", err)
		return
	}
	item, err := ctrl.VaultSvc.Put(actor, req.Category, req.Label, req.Data)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, item)
}

func (ctrl *VaultController) DeleteItem(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.VaultSvc.Delete(actor, id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"id": id})
}
