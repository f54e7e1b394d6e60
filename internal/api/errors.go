package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"
	"github.com/TezottoWell/app-rodrigo-martins/internal/service"
	"github.com/TezottoWell/app-rodrigo-martins/internal/session"
)

// abortWithServiceError maps a service error onto a status code and body.
func abortWithServiceError(c *gin.Context, err error) {
	_ = c.Error(err)

	var confirmErr *domain.ConfirmationError
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &confirmErr):
		code := "confirmation_required"
		if errors.Is(err, service.ErrDuplicateAssignment) {
			code = "duplicate_assignment"
		}
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":  confirmErr.Prompt.Message,
			"code":   code,
			"prompt": confirmErr.Prompt,
		})
	case errors.As(err, &validationErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		})
	case errors.Is(err, domain.ErrNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAuthenticationFailed):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAccessInactive), errors.Is(err, service.ErrForbidden):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrCancelled),
		errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrDuplicateRequest):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUploadURLError), errors.Is(err, service.ErrDownloadURLError):
		abortWithError(c, http.StatusBadGateway, err.Error())
	case errors.Is(err, repository.ErrWatchNotReady):
		abortWithError(c, http.StatusServiceUnavailable, "Live updates are not available.")
	case errors.Is(err, domain.ErrPersistence):
		abortWithError(c, http.StatusInternalServerError, "Could not save your changes. Please try again.")
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

// confirmFromQuery is the confirmation port over HTTP: ?confirm=true
// answers yes to whatever the operation asks.
func confirmFromQuery(c *gin.Context) domain.Confirm {
	if ok, _ := strconv.ParseBool(c.Query("confirm")); ok {
		return domain.Confirmed
	}
	return domain.Declined
}

func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

func pathInt(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+": must be a number.")
		return 0, false
	}
	return n, true
}

// bindJSON binds the body or aborts with 400.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return false
	}
	return true
}
