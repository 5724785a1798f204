package handler

import (
	"errors"
	"io"
	"mime/multipart"

	"github.com/valyala/fasthttp"

	"proposal-generator/internal/address"
	"proposal-generator/internal/extract"
	"proposal-generator/internal/model"
	"proposal-generator/internal/places"
)

const uploadField = "file"

func (h *Handler) handleExtract(ctx *fasthttp.RequestCtx) {
	fh, err := ctx.FormFile(uploadField)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, model.ErrorResponse{Error: extract.ErrEmptyDocument.Error()})
		return
	}
	if h.opts.MaxUploadBytes > 0 && fh.Size > int64(h.opts.MaxUploadBytes) {
		writeError(ctx, fasthttp.StatusBadRequest, model.ErrorResponse{Error: "File too large"})
		return
	}

	doc, err := readUpload(fh)
	if err != nil {
		h.fail(ctx, err, "Failed to read upload")
		return
	}
	if extract.Sniff(doc.Data, doc.ContentType) == "" {
		writeError(ctx, fasthttp.StatusBadRequest, model.ErrorResponse{Error: extract.ErrUnsupportedType.Error()})
		return
	}

	candidates, err := h.extractor.Extract(ctx, doc)
	if err != nil {
		h.fail(ctx, err, address.ErrExtractionFailed.Error())
		return
	}
	if len(candidates) == 0 {
		writeError(ctx, fasthttp.StatusNotFound, model.ErrorResponse{Error: address.ErrNoAddressFound.Error()})
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, model.ExtractResponse{Result: candidates})
}

func readUpload(fh *multipart.FileHeader) (address.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return address.Document{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return address.Document{}, err
	}
	if len(data) == 0 {
		return address.Document{}, extract.ErrEmptyDocument
	}
	return address.Document{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h *Handler) handleMapPlaces(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	if !args.Has("input") {
		writeError(ctx, fasthttp.StatusBadRequest, model.ErrorResponse{Error: places.ErrMissingInput.Error()})
		return
	}

	body, err := h.places.Autocomplete(ctx, string(args.Peek("input")))
	if err != nil {
		if errors.Is(err, places.ErrMissingInput) {
			writeError(ctx, fasthttp.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
			return
		}
		h.fail(ctx, err, "Failed to fetch suggestions")
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType(model.ContentTypeJSON)
	ctx.SetBody(body)
}
