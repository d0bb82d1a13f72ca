package controllers

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kreasivisual/kreasivisual-backend/api/middleware"
	"github.com/kreasivisual/kreasivisual-backend/pkg/logger"
)

func testLogg() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test-controllers", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

// asBuyer seeds the request context the way the auth middleware would.
func asBuyer(req *http.Request, buyerID uuid.UUID) *http.Request {
	ctx := middleware.WithUserID(req.Context(), buyerID.String())
	ctx = middleware.WithRole(ctx, "buyer")
	return req.WithContext(ctx)
}

func withURLParam(t *testing.T, req *http.Request, key, value string) *http.Request {
	t.Helper()
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return req
}
