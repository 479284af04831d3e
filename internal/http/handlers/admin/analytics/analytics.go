// Package analytics реализует HTTP-обработчик аналитики для администратора.
package analytics

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/review-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/review-service/internal/http/response"
	"github.com/magabrotheeeer/review-service/internal/lib/sl"
	"github.com/magabrotheeeer/review-service/internal/models"
)

// Service строит отчет. Проверка роли выполняется в сервисе.
type Service interface {
	GetAdminAnalytics(ctx context.Context, identity *models.Identity, days int) (*models.AnalyticsReport, error)
}

// Handler обрабатывает запрос аналитики сессий.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Аналитика сессий
// @Description Агрегаты по уровням подписки и последние события сессий. Только для ADMIN.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param days query int false "Размер окна в днях (по умолчанию 30)"
// @Success 200 {object} response.Response{data=models.AnalyticsReport}
// @Failure 400 {object} response.ErrorResponse "Некорректный параметр days"
// @Failure 401 {object} response.ErrorResponse "Нет прав администратора"
// @Router /admin/analytics [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.analytics"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			log.Error("failed to parse days", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("days must be an integer"))
			return
		}
		days = v
	}

	report, err := h.service.GetAdminAnalytics(r.Context(), middlewarectx.IdentityFromContext(r.Context()), days)
	if err != nil {
		log.Error("failed to build analytics", sl.Err(err))
		code, body := response.FromError(err)
		w.WriteHeader(code)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(report))
}
