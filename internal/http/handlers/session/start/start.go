// Package start реализует HTTP-обработчик начала сессии ревью.
package start

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
	StartSession(ctx context.Context, identity *models.Identity) (*models.ReviewSession, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Начать сессию
// @Description Открывает сессию, если нет активной и истек период охлаждения.
// @Tags Sessions
// @Produce  json
// @Security BearerAuth
// @Success 201 {object} response.Response{data=models.ReviewSession}
// @Failure 401 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Сессия уже активна или идет период охлаждения"
// @Router /sessions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.start"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	session, err := h.service.StartSession(r.Context(), middlewarectx.IdentityFromContext(r.Context()))
	if err != nil {
		log.Error("failed to start session", sl.Err(err))
		code, body := response.FromError(err)
		w.WriteHeader(code)
		render.JSON(w, r, body)
		return
	}

	log.Info("session started", slog.String("session_id", session.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(session))
}
