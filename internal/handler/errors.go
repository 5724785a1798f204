package handler

import (
	"errors"
	"runtime/debug"

	"github.com/valyala/fasthttp"

	"proposal-generator/internal/extract"
	"proposal-generator/internal/model"
	"proposal-generator/internal/places"
	"proposal-generator/internal/render"
	"proposal-generator/internal/validation"
)

const missingFields = "Missing required fields"

func writeError(ctx *fasthttp.RequestCtx, status int, body model.ErrorResponse) {
	writeJSON(ctx, status, body)
}

// fail maps err to a status and body. Unexpected errors are logged and
// reported under title; the stack is included outside production.
func (h *Handler) fail(ctx *fasthttp.RequestCtx, err error, title string) {
	if verr, ok := validation.AsError(err); ok {
		writeError(ctx, fasthttp.StatusBadRequest, model.ErrorResponse{
			Error:   missingFields,
			Message: verr.Message(),
			Fields:  verr.Fields,
		})
		return
	}

	status := fasthttp.StatusInternalServerError
	switch {
	case errors.Is(err, extract.ErrUnsupportedType), errors.Is(err, extract.ErrEmptyDocument),
		errors.Is(err, extract.ErrDocumentTooLarge):
		writeError(ctx, fasthttp.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, extract.ErrUnusableResponse):
		writeError(ctx, fasthttp.StatusBadGateway, model.ErrorResponse{Error: extract.ErrUnusableResponse.Error()})
		return
	case errors.Is(err, extract.ErrUpstream):
		h.logger.WarnContext(ctx, "extraction upstream failed", "request_id", requestID(ctx), "error", err)
		writeError(ctx, fasthttp.StatusBadGateway, model.ErrorResponse{Error: extract.ErrUpstream.Error()})
		return
	case errors.Is(err, places.ErrUpstream):
		h.logger.WarnContext(ctx, "places upstream failed", "request_id", requestID(ctx), "error", err)
		writeError(ctx, fasthttp.StatusBadGateway, model.ErrorResponse{Error: places.ErrUpstream.Error()})
		return
	case errors.Is(err, extract.ErrNotConfigured):
		status = fasthttp.StatusServiceUnavailable
	case errors.Is(err, render.ErrTemplateNotFound):
		title = render.ErrTemplateNotFound.Error()
	case isCanceled(err):
		status = fasthttp.StatusServiceUnavailable
	}

	h.logger.ErrorContext(ctx, title, "request_id", requestID(ctx), "error", err)
	body := model.ErrorResponse{Error: title, Message: err.Error()}
	if !h.opts.Production {
		body.Stack = string(debug.Stack())
	}
	writeError(ctx, status, body)
}
