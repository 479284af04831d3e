// Package create реализует HTTP-обработчик отправки файла на ревью.
//
// Файл проверяется по лимиту уровня подписки и квоте активной сессии,
// затем анализируется. В ответе возвращается анализ и обновленное
// предупреждение о расходе ревью.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/review-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/review-service/internal/http/response"
	"github.com/magabrotheeeer/review-service/internal/lib/sl"
	"github.com/magabrotheeeer/review-service/internal/lib/tier"
	"github.com/magabrotheeeer/review-service/internal/models"
	reviewsvc "github.com/magabrotheeeer/review-service/internal/services/review"
)

// maxRequestBytes ограничивает тело запроса: самый большой лимит уровня с
// запасом на JSON-экранирование исходника и остальные поля.
const maxRequestBytes = 2*tier.LegendFileSizeLimit + 64*1024

// Service выполняет ревью файла.
type Service interface {
	SubmitReview(ctx context.Context, identity *models.Identity, req models.ReviewRequest) (*models.ReviewResult, error)
}

// Handler обрабатывает отправку файлов на ревью.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис ревью
	validate *validator.Validate // Валидатор структуры входящих данных
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Отправить файл на ревью
// @Tags Reviews
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.ReviewRequest true "Файл для ревью"
// @Success 200 {object} response.Response{data=models.ReviewResult}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse "Подписка неактивна"
// @Failure 404 {object} response.ErrorResponse "Нет активной сессии"
// @Failure 413 {object} response.ErrorResponse "Файл превышает лимит уровня"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Квота ревью исчерпана"
// @Failure 503 {object} response.ErrorResponse "Анализатор не сконфигурирован"
// @Router /reviews [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.review.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req models.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			render.JSON(w, r, response.Error("request body too large"))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded",
		slog.String("filename", req.Filename),
		slog.String("language", req.Language),
		slog.Int("size", len(req.Source)),
	)

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res, err := h.service.SubmitReview(r.Context(), middlewarectx.IdentityFromContext(r.Context()), req)
	if err != nil {
		log.Error("review failed", sl.Err(err))
		var tooLarge *reviewsvc.FileTooLargeError
		if errors.As(err, &tooLarge) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			render.JSON(w, r, response.Error(tooLarge.Validation.Message))
			return
		}
		code, body := response.FromError(err)
		w.WriteHeader(code)
		render.JSON(w, r, body)
		return
	}

	log.Info("review completed", slog.String("session_id", res.SessionID), slog.Int("score", res.Analysis.Score))
	render.JSON(w, r, response.StatusOKWithData(res))
}
