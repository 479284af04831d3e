package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/review-service/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// IdentityKey: ключ для *models.Identity в контексте.
const IdentityKey Key = "identity"

// WithIdentity кладёт удостоверение пользователя в контекст.
func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// IdentityFromContext достаёт удостоверение пользователя. Для анонимного
// запроса возвращает nil.
func IdentityFromContext(ctx context.Context) *models.Identity {
	id, _ := ctx.Value(IdentityKey).(*models.Identity)
	return id
}
