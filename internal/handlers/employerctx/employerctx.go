package employerctx

import (
	"context"

	"github.com/wervio/wervio/internal/models"
)

type ctxKey string

const employerKey ctxKey = "employer"

// Create a new context with the employer
func New(ctx context.Context, e models.Employer) context.Context {
	return context.WithValue(ctx, employerKey, e)
}

// Extract the employer from the context
func FromContext(ctx context.Context) (models.Employer, bool) {
	e, ok := ctx.Value(employerKey).(models.Employer)
	return e, ok
}
