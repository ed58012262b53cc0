package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/Low-P1ng/Doodlerush/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var (
	ErrMissingTokenStr         = "missing-token"
	ErrExpiredTokenStr         = "expired-token"
	ErrInvalidRequestFormatStr = "bad-request-format"
	ErrInvalidNameStr          = "invalid-name"
	ErrUnknownStr              = "unknown-error"
)

type authHandler struct {
	authService  AuthService
	cookieMaxAge time.Duration
	logger       zerolog.Logger
}

func NewAuthHandler(service AuthService, cookieMaxAge time.Duration, logger zerolog.Logger) *authHandler {
	return &authHandler{authService: service, cookieMaxAge: cookieMaxAge, logger: logger}
}

func (ah *authHandler) setToken(ctx *gin.Context, token string) {
	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie("token", token, int(ah.cookieMaxAge.Seconds()), "/", "", true, true)
}

func (ah *authHandler) RequireAuthMiddleware(trollTime time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie("token")
		if err != nil {
			ctx.String(http.StatusUnauthorized, ErrMissingTokenStr)
			ctx.Abort()
			return
		}
		guest, err := ah.authService.VerifyToken(token)

		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidSigningAlg), errors.Is(err, domain.ErrInvalidTokenSignature), errors.Is(err, domain.ErrCorruptedToken):
				ah.logger.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("forged token")
				time.Sleep(trollTime)
				ctx.Status(http.StatusInternalServerError)
				ctx.Abort()
			case errors.Is(err, domain.ErrExpiredToken):
				ctx.String(http.StatusUnauthorized, ErrExpiredTokenStr)
				ctx.Abort()
			default:
				ah.logger.Error().Err(err).Msg("verifying token")
				ctx.String(http.StatusInternalServerError, ErrUnknownStr)
				ctx.Abort()
			}

			return
		}

		ctx.Set("id", guest.Id)
		ctx.Set("name", guest.Name)
		ctx.Next()
	}
}

func (ah *authHandler) GuestHandler(ctx *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}

	guest, token, err := ah.authService.Guest(body.Name)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidName):
			ctx.String(http.StatusBadRequest, ErrInvalidNameStr)
		default:
			ah.logger.Error().Err(err).Msg("issuing guest token")
			ctx.String(http.StatusInternalServerError, ErrUnknownStr)
		}
		ctx.Abort()
		return
	}

	ah.setToken(ctx, token)
	ctx.JSON(http.StatusCreated, guest)
}

func (ah *authHandler) RefreshSessionHandler(ctx *gin.Context) {
	token, err := ctx.Cookie("token")
	if err != nil {
		ctx.String(http.StatusUnauthorized, "unauthenticated")
		return
	}

	guest, err := ah.authService.VerifyToken(token)
	if err != nil {
		ctx.String(http.StatusUnauthorized, "bad-token")
		return
	}

	newToken, err := ah.authService.GenerateToken(guest)
	if err != nil {
		ah.logger.Error().Err(err).Str("player", guest.Id).Msg("refreshing token")
		ctx.Status(http.StatusInternalServerError)
		return
	}

	ah.setToken(ctx, newToken)
	ctx.JSON(http.StatusOK, guest)
}

func (ah *authHandler) LogoutHandler(ctx *gin.Context) {
	ctx.SetCookie("token", "", -1, "/", "", true, true)
}
