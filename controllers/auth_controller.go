package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chkin-backend/services"
	"chkin-backend/utils"
)

type RegisterRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthController struct {
	AuthSvc *services.AuthService
}

func NewAuthController(svc *services.AuthService) *AuthController {
	return &AuthController{AuthSvc: svc}
}

// Register (POST /api/auth/register) creates a patient account.
func (ctrl *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorDetail(c, http.StatusBadRequest, "invalid payload", err)
		return
	}
	user, err := ctrl.AuthSvc.RegisterPatient(req.FullName, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, user)
}

// Login (POST /api/auth/login)
func (ctrl *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorDetail(c, http.StatusBadRequest, "invalid payload", err)
		return
	}
	token, user, err := ctrl.AuthSvc.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"token": token, "user": user})
}
