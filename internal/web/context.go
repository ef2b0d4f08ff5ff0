package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/xlimport/internal/core"
	mw "github.com/JonMunkholm/xlimport/internal/web/middleware"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx for import logs.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithClientIP(ctx, mw.ClientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
