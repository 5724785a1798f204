// Package handler serves the proposal generator HTTP API on fasthttp.
package handler

import (
	"context"
	"errors"
	"log/slog"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"proposal-generator/internal/address"
	"proposal-generator/internal/engine"
	"proposal-generator/internal/model"
)

// Generator renders the two document kinds.
type Generator interface {
	GeneratePDF(ctx context.Context, req *model.GeneratePDFRequest) (*engine.Document, error)
	GenerateProposal(ctx context.Context, req *model.GenerateProposalRequest) (*engine.Document, error)
}

type BioLister interface {
	ListBios(ctx context.Context) ([]model.Bio, error)
}

type PlacesProxy interface {
	Autocomplete(ctx context.Context, input string) ([]byte, error)
}

type Options struct {
	Production     bool
	CORSOrigin     string
	MaxUploadBytes int
	RateLimitRPS   float64
	RateLimitBurst int
	Catalog        model.CatalogResponse
}

type Handler struct {
	generator Generator
	bios      BioLister
	places    PlacesProxy
	extractor address.Extractor
	limiter   *RateLimiter
	logger    *slog.Logger
	opts      Options
	serve     fasthttp.RequestHandler
}

func New(gen Generator, bios BioLister, places PlacesProxy, extractor address.Extractor, logger *slog.Logger, opts Options) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "*"
	}
	var limiter *RateLimiter
	if opts.RateLimitRPS > 0 {
		limiter = NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	}
	h := &Handler{
		generator: gen,
		bios:      bios,
		places:    places,
		extractor: extractor,
		limiter:   limiter,
		logger:    logger,
		opts:      opts,
	}
	h.serve = h.middleware(h.route)
	return h
}

// Handle is the server's root request handler.
func (h *Handler) Handle(ctx *fasthttp.RequestCtx) {
	h.serve(ctx)
}

func (h *Handler) route(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	switch path {
	case "/healthz":
		h.only(ctx, fasthttp.MethodGet, h.handleHealth)
	case "/api/generate-pdf":
		h.only(ctx, fasthttp.MethodPost, h.handleGeneratePDF)
	case "/api/generate-proposal":
		h.only(ctx, fasthttp.MethodPost, h.handleGenerateProposal)
	case "/api/catalog":
		h.only(ctx, fasthttp.MethodGet, h.handleCatalog)
	case "/api/bios":
		h.only(ctx, fasthttp.MethodGet, h.handleListBios)
	case "/api/map-places":
		h.only(ctx, fasthttp.MethodGet, h.limited(h.handleMapPlaces))
	case "/api/extract":
		h.only(ctx, fasthttp.MethodPost, h.limited(h.handleExtract))
	default:
		writeError(ctx, fasthttp.StatusNotFound, model.ErrorResponse{Error: "Not found"})
	}
}

func (h *Handler) only(ctx *fasthttp.RequestCtx, method string, next fasthttp.RequestHandler) {
	if string(ctx.Method()) != method {
		ctx.Response.Header.Set(fasthttp.HeaderAllow, method)
		writeError(ctx, fasthttp.StatusMethodNotAllowed, model.ErrorResponse{Error: "Method not allowed"})
		return
	}
	next(ctx)
}

func (h *Handler) handleHealth(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleGeneratePDF(ctx *fasthttp.RequestCtx) {
	var req model.GeneratePDFRequest
	if !h.decode(ctx, &req) {
		return
	}
	doc, err := h.generator.GeneratePDF(ctx, &req)
	if err != nil {
		h.fail(ctx, err, "Failed to generate PDF")
		return
	}
	writeDocument(ctx, doc)
}

func (h *Handler) handleGenerateProposal(ctx *fasthttp.RequestCtx) {
	var req model.GenerateProposalRequest
	if !h.decode(ctx, &req) {
		return
	}
	doc, err := h.generator.GenerateProposal(ctx, &req)
	if err != nil {
		h.fail(ctx, err, "Failed to generate proposal")
		return
	}
	writeDocument(ctx, doc)
}

func (h *Handler) handleCatalog(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, h.opts.Catalog)
}

func (h *Handler) handleListBios(ctx *fasthttp.RequestCtx) {
	list, err := h.bios.ListBios(ctx)
	if err != nil {
		h.fail(ctx, err, "Failed to load bios")
		return
	}
	if list == nil {
		list = []model.Bio{}
	}
	writeJSON(ctx, fasthttp.StatusOK, list)
}

func (h *Handler) decode(ctx *fasthttp.RequestCtx, v any) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, model.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return false
	}
	return true
}

func writeDocument(ctx *fasthttp.RequestCtx, doc *engine.Document) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType(doc.ContentType)
	ctx.Response.Header.Set(fasthttp.HeaderContentDisposition, `attachment; filename="`+doc.Filename+`"`)
	ctx.Response.Header.Set("X-Document-ID", doc.ID)
	ctx.SetBody(doc.Data)
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.Error(`{"error":"Failed to encode response"}`, fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType(model.ContentTypeJSON)
	ctx.SetBody(body)
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
