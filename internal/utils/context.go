package utils

import (
	"context"
	"time"
)

const AppSourceMailchecker = "mailchecker"

type CustomContext struct {
	AppSource string
	RunId     string
	Mode      string
}

type customContextKey struct{}

func WithCustomContext(ctx context.Context, customContext *CustomContext) context.Context {
	return context.WithValue(ctx, customContextKey{}, customContext)
}

func GetContext(ctx context.Context) *CustomContext {
	customContext, ok := ctx.Value(customContextKey{}).(*CustomContext)
	if !ok {
		return new(CustomContext)
	}
	return customContext
}

func GetAppSourceFromContext(ctx context.Context) string {
	return GetContext(ctx).AppSource
}

func GetRunIdFromContext(ctx context.Context) string {
	return GetContext(ctx).RunId
}

func GetModeFromContext(ctx context.Context) string {
	return GetContext(ctx).Mode
}

func Now() time.Time {
	return time.Now().UTC()
}
