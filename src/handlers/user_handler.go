// backend/src/handlers/user_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/merkaz770/shluchim/backend/src/config"
	"github.com/merkaz770/shluchim/backend/src/database"
	"github.com/merkaz770/shluchim/backend/src/logger"
	"github.com/merkaz770/shluchim/backend/src/model"
	"github.com/merkaz770/shluchim/backend/src/security"
	"github.com/merkaz770/shluchim/backend/src/security/validation"
	"github.com/merkaz770/shluchim/backend/src/services"
	"github.com/merkaz770/shluchim/backend/src/utils"
)

type UserHandler struct {
	authService        *security.AuthService
	transactionService *services.TransactionService
}

func NewUserHandler(authService *security.AuthService, transactionService *services.TransactionService) *UserHandler {
	return &UserHandler{
		authService:        authService,
		transactionService: transactionService,
	}
}

type loginRequest struct {
	IDNumber string `json:"id_number"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         *model.User `json:"user"`
}

// LoginUserHandler authenticates by id-document number and password.
func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateIDNumber(req.IDNumber); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByIDNumber(database.DB, req.IDNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.SendJSONError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		logger.FromContext(r.Context()).Error("Login: user lookup failed", "error", err)
		utils.SendJSONError(w, "login failed", http.StatusInternalServerError)
		return
	}
	if err := user.CheckPassword(req.Password); err != nil {
		utils.SendJSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	accessToken, err := h.authService.GenerateAccessToken(user.ID, user.IsAdmin, config.Cfg.AccessTokenExpiry)
	if err != nil {
		logger.FromContext(r.Context()).Error("Login: token generation failed", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "login failed", http.StatusInternalServerError)
		return
	}
	refreshToken := h.authService.GenerateRefreshToken()

	session := &model.Session{
		UserID:       user.ID,
		Token:        accessToken,
		RefreshToken: refreshToken,
		UserAgent:    r.UserAgent(),
		ClientIP:     r.RemoteAddr,
		ExpiresAt:    time.Now().Add(config.Cfg.RefreshTokenExpiry),
	}
	if err := model.CreateSession(database.DB, session); err != nil {
		logger.FromContext(r.Context()).Error("Login: session creation failed", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "login failed", http.StatusInternalServerError)
		return
	}

	logger.FromContext(r.Context()).Info("User logged in", "userID", user.ID)
	utils.SendJSONResponse(w, tokenResponse{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, http.StatusOK)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshTokenHandler exchanges a valid refresh token for a new access token.
func (h *UserHandler) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := model.GetSessionByRefreshToken(database.DB, req.RefreshToken)
	if err != nil {
		utils.SendJSONError(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	user, err := model.GetUserByID(database.DB, session.UserID)
	if err != nil {
		utils.SendJSONError(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	accessToken, err := h.authService.GenerateAccessToken(user.ID, user.IsAdmin, config.Cfg.AccessTokenExpiry)
	if err != nil {
		logger.FromContext(r.Context()).Error("Refresh: token generation failed", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "refresh failed", http.StatusInternalServerError)
		return
	}

	utils.SendJSONResponse(w, tokenResponse{AccessToken: accessToken, RefreshToken: req.RefreshToken, User: user}, http.StatusOK)
}

// LogoutUserHandler removes the current session.
func (h *UserHandler) LogoutUserHandler(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	tokenString := ""
	if len(authHeader) > 7 {
		tokenString = authHeader[7:]
	}
	if tokenString != "" {
		if err := model.DeleteSessionByToken(database.DB, tokenString); err != nil {
			logger.FromContext(r.Context()).Warn("Logout: session deletion failed", "error", err)
		}
	}
	utils.SendJSONResponse(w, map[string]string{"message": "logged out"}, http.StatusOK)
}

// HandleGetAdminSummary returns the manager dashboard: every representative's
// approved balance and pending queue depth.
func (h *UserHandler) HandleGetAdminSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.transactionService.AdminSummary()
	if err != nil {
		logger.FromContext(r.Context()).Error("AdminSummary failed", "error", err)
		utils.SendJSONError(w, "failed to build summary", http.StatusInternalServerError)
		return
	}
	utils.SendJSONResponse(w, summaries, http.StatusOK)
}
