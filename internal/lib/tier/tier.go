// Package tier содержит таблицу лимитов по уровням подписки и проверку размера файла.
//
// Все функции чистые: результат зависит только от аргументов.
package tier

import (
	"fmt"
	"math"

	"github.com/magabrotheeeer/review-service/internal/models"
)

// Лимиты размера файла в байтах.
const (
	StarterFileSizeLimit int64 = 50 * 1024
	HeroFileSizeLimit    int64 = 100 * 1024
	LegendFileSizeLimit  int64 = 500 * 1024
)

// GetFileSizeLimit возвращает максимальный размер файла для уровня подписки.
//
// Неизвестный уровень в хранилище не попадает (ParseTier отсекает его раньше),
// но на всякий случай получает минимальный лимит.
func GetFileSizeLimit(t models.Tier) int64 {
	switch t {
	case models.TierStarter:
		return StarterFileSizeLimit
	case models.TierHero:
		return HeroFileSizeLimit
	case models.TierLegend:
		return LegendFileSizeLimit
	}
	return StarterFileSizeLimit
}

// Next возвращает следующий уровень подписки. Для LEGEND ok == false.
func Next(t models.Tier) (models.Tier, bool) {
	switch t {
	case models.TierStarter:
		return models.TierHero, true
	case models.TierHero:
		return models.TierLegend, true
	}
	return "", false
}

// FormatFileSize переводит байты в килобайты с округлением до целого: 102400 -> "100KB".
func FormatFileSize(bytes int64) string {
	return fmt.Sprintf("%dKB", int64(math.Round(float64(bytes)/1024)))
}

// ValidateFileSize проверяет, укладывается ли файл в лимит уровня подписки.
// При превышении лимита Message содержит текст для пользователя с предложением
// перейти на следующий уровень.
func ValidateFileSize(size int64, t models.Tier) models.FileSizeValidation {
	limit := GetFileSizeLimit(t)
	if size <= limit {
		return models.FileSizeValidation{Valid: true, Limit: limit}
	}

	msg := fmt.Sprintf("File size (%s) exceeds the %s tier limit of %s.",
		FormatFileSize(size), t, FormatFileSize(limit))
	if next, ok := Next(t); ok {
		msg += fmt.Sprintf(" Upgrade to %s for files up to %s.", next, FormatFileSize(GetFileSizeLimit(next)))
	}

	return models.FileSizeValidation{
		Valid:   false,
		Limit:   limit,
		Message: msg,
	}
}
