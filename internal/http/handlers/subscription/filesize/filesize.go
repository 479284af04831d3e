// Package filesize реализует HTTP-обработчик проверки размера файла
// по лимиту уровня подписки.
//
// Превышение лимита не является ошибкой запроса: ответ 200 с valid=false
// и сообщением о возможности перейти на следующий уровень.
package filesize

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/review-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/review-service/internal/http/response"
	"github.com/magabrotheeeer/review-service/internal/lib/sl"
	"github.com/magabrotheeeer/review-service/internal/models"
)

// Request: размер файла в байтах.
type Request struct {
	Size *int64 `json:"size" validate:"required,gte=0"`
}

// Service проверяет размер файла.
type Service interface {
	ValidateFileSize(ctx context.Context, identity *models.Identity, size int64) (models.FileSizeValidation, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Проверка размера файла
// @Tags Subscription
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Размер файла"
// @Success 200 {object} response.Response{data=models.FileSizeValidation}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /subscription/file-size [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.filesize"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res, err := h.service.ValidateFileSize(r.Context(), middlewarectx.IdentityFromContext(r.Context()), *req.Size)
	if err != nil {
		log.Error("failed to validate file size", sl.Err(err))
		code, body := response.FromError(err)
		w.WriteHeader(code)
		render.JSON(w, r, body)
		return
	}

	log.Info("file size checked", slog.Int64("size", *req.Size), slog.Bool("valid", res.Valid))
	render.JSON(w, r, response.StatusOKWithData(res))
}
