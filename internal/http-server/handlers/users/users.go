package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"refsync/entity"
	"refsync/lib/api/cont"
	"refsync/lib/api/response"
	"refsync/lib/paging"
	"refsync/lib/sl"
)

type Core interface {
	ListUsers(limit, offset int) paging.Page[entity.User]
	UserReferrals(userId string, limit, offset int) paging.Page[entity.Referral]
	ReferralInfo(userId string) (*entity.ReferralInfo, bool)
}

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	mod := sl.Module("http.handlers.users")

	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("users service not available")
			response.Internal(w, r)
			return
		}

		query := r.URL.Query()
		window := paging.Parse(query.Get("limit"), query.Get("offset"), paging.DefaultUserLimit, paging.MaxUserLimit)
		// a zero limit means the default for the user listing
		if window.Limit == 0 {
			window.Limit = paging.DefaultUserLimit
		}
		page := handler.ListUsers(window.Limit, window.Offset)

		logger.With(
			slog.Int("limit", page.Limit),
			slog.Int("offset", page.Offset),
			slog.Int("total", page.Total),
		).Debug("users listed")

		render.JSON(w, r, entity.UserList{
			Users:  page.Items,
			Total:  page.Total,
			Limit:  page.Limit,
			Offset: page.Offset,
		})
	}
}

// Referrals lists the referrals of the user resolved by the userctx middleware
func Referrals(log *slog.Logger, handler Core) http.HandlerFunc {
	mod := sl.Module("http.handlers.users")

	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		user := cont.GetUser(r.Context())
		if handler == nil || user == nil {
			logger.Error("user referrals not available")
			response.Internal(w, r)
			return
		}

		query := r.URL.Query()
		window := paging.Parse(query.Get("limit"), query.Get("offset"), paging.DefaultReferralLimit, 0)
		page := handler.UserReferrals(user.Id, window.Limit, window.Offset)

		logger.With(
			slog.String("user_id", user.Id),
			slog.Int("total", page.Total),
		).Debug("user referrals listed")

		render.JSON(w, r, entity.ReferralList{
			Referrals: page.Items,
			Total:     page.Total,
			Limit:     page.Limit,
			Offset:    page.Offset,
			HasMore:   page.HasMore,
		})
	}
}

func Stats(log *slog.Logger, handler Core) http.HandlerFunc {
	mod := sl.Module("http.handlers.users")

	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		user := cont.GetUser(r.Context())
		if handler == nil || user == nil {
			logger.Error("referral stats not available")
			response.Internal(w, r)
			return
		}

		info, ok := handler.ReferralInfo(user.Id)
		if !ok {
			response.Fail(w, r, response.KindUserNotFound, "User not found", http.StatusNotFound)
			return
		}

		render.JSON(w, r, info)
	}
}
