package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/laneboard/internal/api/shared"
	"github.com/phrazzld/laneboard/internal/service"
	"github.com/phrazzld/laneboard/internal/service/auth"
)

// AuthHandler handles user registration and login.
type AuthHandler struct {
	users      service.UserService
	jwtService auth.JWTService
	logger     *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users service.UserService, jwtService auth.JWTService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:      users,
		jwtService: jwtService,
		logger:     logger.With("component", "auth_handler"),
	}
}

// Register handles POST /api/auth/register. It creates the account and
// returns a signed access token so the client is logged in immediately.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context(), user.ID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"failed to generate authentication token", err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "user registered", "user_id", user.ID)
	shared.RespondWithJSON(w, http.StatusCreated, AuthResponse{UserID: user.ID, Token: token})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, h.logger)
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context(), user.ID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"failed to generate authentication token", err, h.logger)
		return
	}

	shared.RespondWithJSON(w, http.StatusOK, AuthResponse{UserID: user.ID, Token: token})
}
