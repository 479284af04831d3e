// Package end реализует HTTP-обработчик завершения активной сессии.
package end

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/review-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/review-service/internal/http/response"
	"github.com/magabrotheeeer/review-service/internal/lib/sl"
	"github.com/magabrotheeeer/review-service/internal/models"
)

type Service interface {
	EndSession(ctx context.Context, identity *models.Identity) (*models.ReviewSession, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Завершить сессию
// @Tags Sessions
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.ReviewSession}
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Нет активной сессии"
// @Router /sessions/end [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.end"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	session, err := h.service.EndSession(r.Context(), middlewarectx.IdentityFromContext(r.Context()))
	if err != nil {
		log.Error("failed to end session", sl.Err(err))
		code, body := response.FromError(err)
		w.WriteHeader(code)
		render.JSON(w, r, body)
		return
	}

	log.Info("session ended", slog.String("session_id", session.ID))
	render.JSON(w, r, response.StatusOKWithData(session))
}
