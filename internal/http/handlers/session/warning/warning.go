// Package warning реализует HTTP-обработчик предупреждения о расходе ревью.
// Анонимный вызов получает нулевой результат.
package warning

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

// Service возвращает предупреждение о расходе ревью в активной сессии.
type Service interface {
	GetSessionWarning(ctx context.Context, identity *models.Identity) (models.SessionWarning, error)
}

// Handler обрабатывает запрос предупреждения о расходе ревью.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Предупреждение о расходе ревью
// @Tags Sessions
// @Produce  json
// @Success 200 {object} response.Response{data=models.SessionWarning}
// @Failure 500 {object} response.ErrorResponse
// @Router /sessions/warning [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.warning"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.GetSessionWarning(r.Context(), middlewarectx.IdentityFromContext(r.Context()))
	if err != nil {
		log.Error("failed to get session warning", sl.Err(err))
		code, body := response.FromError(err)
		w.WriteHeader(code)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(res))
}
