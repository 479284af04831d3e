package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/review-service/internal/http/response"
	"github.com/magabrotheeeer/review-service/internal/lib/sl"
	"github.com/magabrotheeeer/review-service/internal/models"
)

// AccessChecker определяет интерфейс проверки доступа по статусу подписки.
type AccessChecker interface {
	CheckAccess(ctx context.Context, userUID string) error
}

// SubscriptionStatusMiddleware пропускает запрос, только если подписка пользователя
// даёт доступ к сервису. Должен стоять после JWTMiddleware.
func SubscriptionStatusMiddleware(log *slog.Logger, subService AccessChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if identity == nil {
				log.Warn("user identification missing")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("Unauthorized"))
				return
			}

			err := subService.CheckAccess(r.Context(), identity.UserUID)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, models.ErrSubscriptionInactive), errors.Is(err, models.ErrUserNotFound):
				log.Info("access denied", sl.UserUID(identity.UserUID), sl.Err(err))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("subscription inactive"))
			default:
				log.Error("failed to check subscription status", sl.UserUID(identity.UserUID), sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal error"))
			}
		})
	}
}
