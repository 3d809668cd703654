package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type APIResponse struct {
	Status    string      `json:"status"`
	Code      int         `json:"code"`
	Message   string      `json:"message,omitempty"`
	ErrorCode string      `json:"error_code,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func traceID(c *gin.Context) string {
	if v, ok := c.Get("trace_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

// RespondAccepted is used by operations whose crawl/analyze tail finishes out
// of band; the client is expected to poll the place row.
func RespondAccepted(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusAccepted, APIResponse{
		Status:  "success",
		Code:    http.StatusAccepted,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
	})
}

func respondErrCode(c *gin.Context, httpCode int, errorCode, message string) {
	c.JSON(httpCode, APIResponse{
		Status:    "error",
		Code:      httpCode,
		ErrorCode: errorCode,
		Message:   message,
		TraceID:   traceID(c),
	})
}

// HandleServiceError maps service sentinel errors onto the HTTP surface.
// Entitlement rejections carry a machine-readable error_code because the UI
// branches on them (upsell dialogs, cooldown countdown).
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidPlaceURL):
		respondErrCode(c, http.StatusBadRequest, "INVALID_URL", "Could not extract a place id from the given URL")
	case errors.Is(err, ErrInvalidCredentials):
		RespondError(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, ErrEmailAlreadyExists):
		RespondError(c, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, ErrPlaceLimitExceeded):
		respondErrCode(c, http.StatusForbidden, "LIMIT_EXCEEDED", "Place limit for this plan exceeded")
	case errors.Is(err, ErrChangeCooldown):
		respondErrCode(c, http.StatusForbidden, "COOLDOWN_ACTIVE", err.Error())
	case errors.Is(err, ErrSubscriptionRequired):
		respondErrCode(c, http.StatusForbidden, "SUBSCRIPTION_REQUIRED", "A paid plan is required for this action")
	case errors.Is(err, ErrNoChangesLeft):
		respondErrCode(c, http.StatusForbidden, "NO_CHANGES_LEFT", "No place changes left this period")
	case errors.Is(err, ErrNoRefreshesLeft):
		respondErrCode(c, http.StatusForbidden, "NO_REFRESHES_LEFT", "No refreshes left today")
	case errors.Is(err, ErrPlaceNotFound), errors.Is(err, ErrNotOwner), errors.Is(err, ErrAccountNotFound):
		RespondError(c, http.StatusNotFound, "Not found")
	case errors.Is(err, ErrPlanNotFound):
		RespondError(c, http.StatusNotFound, "Plan not found")
	case errors.Is(err, ErrAlreadyProcessing):
		respondErrCode(c, http.StatusConflict, "ALREADY_PROCESSING", "This place is already being processed")
	case errors.Is(err, ErrPlaceNotReady):
		respondErrCode(c, http.StatusConflict, "NOT_READY", "Place analysis has not completed yet")
	case errors.Is(err, ErrCrawlFailed), errors.Is(err, ErrAnalysisDispatchFailed), errors.Is(err, ErrCopyGenerationFailed):
		log.Error().Err(err).Str("trace_id", traceID(c)).Msg("upstream provider failure")
		RespondError(c, http.StatusInternalServerError, "An external service failed, please try again")
	case errors.Is(err, ErrDatabaseError):
		log.Error().Err(err).Str("trace_id", traceID(c)).Msg("database error")
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		log.Error().Err(err).Str("trace_id", traceID(c)).Msg("unhandled service error")
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
