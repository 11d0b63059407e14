package response

import (
	"net/http"

	"github.com/go-chi/render"
)

// Error kinds returned in ApiError.Error
const (
	KindInvalidRequest          = "INVALID_REQUEST"
	KindInvalidEmail            = "INVALID_EMAIL"
	KindInvalidShareMethod      = "INVALID_SHARE_METHOD"
	KindInvalidUserId           = "INVALID_USER_ID"
	KindInvalidReferralCode     = "INVALID_REFERRAL_CODE"
	KindUserNotFound            = "USER_NOT_FOUND"
	KindReferralNotFound        = "REFERRAL_NOT_FOUND"
	KindTooManyPendingReferrals = "TOO_MANY_PENDING_REFERRALS"
	KindReferralCompleted       = "REFERRAL_ALREADY_COMPLETED"
	KindReferralExpired         = "REFERRAL_EXPIRED"
	KindMethodNotAllowed        = "METHOD_NOT_ALLOWED"
	KindNotFound                = "NOT_FOUND"
	KindInternal                = "INTERNAL_ERROR"
)

type ApiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func Error(kind, message string, code int) ApiError {
	return ApiError{
		Error:   kind,
		Message: message,
		Code:    code,
	}
}

// Fail writes an ApiError with its code as the HTTP status
func Fail(w http.ResponseWriter, r *http.Request, kind, message string, code int) {
	render.Status(r, code)
	render.JSON(w, r, Error(kind, message, code))
}

func Internal(w http.ResponseWriter, r *http.Request) {
	Fail(w, r, KindInternal, "Internal server error", http.StatusInternalServerError)
}
