package referrals

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"refsync/entity"
	"refsync/internal/store"
	"refsync/lib/api/response"
	"refsync/lib/codegen"
	"refsync/lib/sl"
	"refsync/lib/validate"
)

type Core interface {
	ValidateReferralCode(code string) *entity.ValidateReferralResponse
	CreateReferral(ctx context.Context, req *entity.CreateReferralRequest) (*entity.CreateReferralResponse, error)
	CompleteReferral(ctx context.Context, id, referredUserId string) (*entity.Referral, error)
}

func Validate(log *slog.Logger, handler Core) http.HandlerFunc {
	mod := sl.Module("http.handlers.referrals")

	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		logger := log.With(
			mod,
			slog.String("referral_code", code),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if len(code) != codegen.CodeLength {
			response.Fail(w, r, response.KindInvalidReferralCode, "Invalid referral code required", http.StatusBadRequest)
			return
		}
		if handler == nil {
			logger.Error("referrals service not available")
			response.Internal(w, r)
			return
		}

		result := handler.ValidateReferralCode(code)
		logger.With(
			slog.Bool("valid", result.IsValid),
			slog.String("reason", string(result.Reason)),
		).Debug("referral code validated")

		render.JSON(w, r, result)
	}
}

func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	mod := sl.Module("http.handlers.referrals")

	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("referrals service not available")
			response.Internal(w, r)
			return
		}

		var req entity.CreateReferralRequest
		if err := render.Bind(r, &req); err != nil {
			logger.With(sl.Err(err)).Debug("invalid create request")
			kind, message := createRequestError(err)
			response.Fail(w, r, kind, message, http.StatusBadRequest)
			return
		}
		logger = logger.With(
			slog.String("referrer", req.ReferrerUserId),
			sl.Email("email", req.ReferredUserEmail),
		)

		result, err := handler.CreateReferral(r.Context(), &req)
		if err != nil {
			logger.With(sl.Err(err)).Warn("create referral")
			switch {
			case errors.Is(err, store.ErrReferrerNotFound):
				response.Fail(w, r, response.KindUserNotFound, "Referrer not found", http.StatusNotFound)
			case errors.Is(err, store.ErrInvalidShareMethod):
				response.Fail(w, r, response.KindInvalidShareMethod, "Invalid share method", http.StatusBadRequest)
			case errors.Is(err, store.ErrTooManyPendingReferrals):
				response.Fail(w, r, response.KindTooManyPendingReferrals, "Too many pending referrals", http.StatusBadRequest)
			default:
				response.Internal(w, r)
			}
			return
		}

		logger.With(slog.String("referral_id", result.Referral.Id)).Info("referral created")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, result)
	}
}

func Complete(log *slog.Logger, handler Core) http.HandlerFunc {
	mod := sl.Module("http.handlers.referrals")

	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		logger := log.With(
			mod,
			slog.String("referral_id", id),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("referrals service not available")
			response.Internal(w, r)
			return
		}

		var req entity.CompleteReferralRequest
		if err := render.Bind(r, &req); err != nil {
			logger.With(sl.Err(err)).Debug("invalid complete request")
			response.Fail(w, r, response.KindInvalidRequest, "Missing required fields", http.StatusBadRequest)
			return
		}

		referral, err := handler.CompleteReferral(r.Context(), id, req.ReferredUserId)
		if err != nil {
			logger.With(sl.Err(err)).Warn("complete referral")
			switch {
			case errors.Is(err, store.ErrReferralNotFound):
				response.Fail(w, r, response.KindReferralNotFound, "Referral not found", http.StatusNotFound)
			case errors.Is(err, store.ErrReferralAlreadyCompleted):
				response.Fail(w, r, response.KindReferralCompleted, "Referral already completed", http.StatusConflict)
			case errors.Is(err, store.ErrReferralExpired):
				response.Fail(w, r, response.KindReferralExpired, "Referral expired", http.StatusConflict)
			default:
				response.Internal(w, r)
			}
			return
		}

		logger.Info("referral completed")
		render.JSON(w, r, referral)
	}
}

// createRequestError maps a bind failure to the error kind reported to the
// client; missing fields win over format errors
func createRequestError(err error) (string, string) {
	var verr *validate.Error
	if !errors.As(err, &verr) {
		return response.KindInvalidRequest, "Invalid request body"
	}
	for _, field := range []string{"referrerUserId", "referredUserEmail", "sharedMethod"} {
		if verr.Failed(field, "required") {
			return response.KindInvalidRequest, "Missing required fields"
		}
	}
	if verr.Failed("referredUserEmail", "") {
		return response.KindInvalidEmail, "Invalid email address"
	}
	if verr.Failed("sharedMethod", "") {
		return response.KindInvalidShareMethod, "Invalid share method"
	}
	return response.KindInvalidRequest, "Invalid request body"
}
