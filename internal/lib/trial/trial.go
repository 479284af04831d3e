// Package trial вычисляет состояние пробного периода пользователя.
package trial

import (
	"time"

	"github.com/magabrotheeeer/review-service/internal/models"
)

// Day: длительность суток, по которой считаются оставшиеся дни.
const Day = 24 * time.Hour

// Evaluate возвращает состояние пробного периода на момент now.
//
// Для статуса, отличного от TRIALING, или без даты окончания результат всегда
// {false, 0, nil}. Иначе оставшиеся дни округляются вверх: любой положительный
// остаток меньше суток даёт 1, истёкший период даёт 0.
func Evaluate(status models.SubscriptionStatus, trialEndsAt *time.Time, now time.Time) models.TrialStatus {
	if status != models.StatusTrialing || trialEndsAt == nil {
		return models.TrialStatus{}
	}

	days := DaysRemaining(*trialEndsAt, now)
	endsAt := *trialEndsAt

	return models.TrialStatus{
		IsInTrial:     days > 0,
		DaysRemaining: days,
		TrialEndsAt:   &endsAt,
	}
}

// DaysRemaining возвращает ceil((endsAt - now) / сутки), но не меньше нуля.
// Считается в секундах, а не через time.Duration: разница больше ~292 лет
// не помещается в Duration.
func DaysRemaining(endsAt, now time.Time) int {
	secs := endsAt.Unix() - now.Unix()
	nanos := endsAt.Nanosecond() - now.Nanosecond()
	if nanos < 0 {
		secs--
		nanos += int(time.Second)
	}
	if secs < 0 || (secs == 0 && nanos == 0) {
		return 0
	}

	const daySeconds = int64(Day / time.Second)
	days := secs / daySeconds
	if secs%daySeconds != 0 || nanos > 0 {
		days++
	}
	return int(days)
}
