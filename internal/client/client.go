// Package client calls the proposal generator API over HTTP.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"proposal-generator/internal/address"
	"proposal-generator/internal/engine"
	"proposal-generator/internal/model"
	"proposal-generator/internal/places"
	"proposal-generator/internal/validation"
)

const defaultTimeout = 60 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	Status int
	Body   model.ErrorResponse
}

func (e *APIError) Error() string {
	if e.Body.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Body.Error, e.Body.Message)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Body.Error)
}

type Client struct {
	baseURL string
	http    *fasthttp.Client
	timeout time.Duration
}

var _ address.Extractor = (*Client)(nil)

func New(baseURL string, hc *fasthttp.Client) *Client {
	if hc == nil {
		hc = &fasthttp.Client{Name: "proposalctl", MaxResponseBodySize: 64 << 20}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc, timeout: defaultTimeout}
}

// Extract uploads doc to /api/extract. A 404 is reported as
// address.ErrNoAddressFound.
func (c *Client) Extract(ctx context.Context, doc address.Document) ([]string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, doc.Name))
	if doc.ContentType != "" {
		hdr.Set("Content-Type", doc.ContentType)
	}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(doc.Data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, fasthttp.MethodPost, "/api/extract", mw.FormDataContentType(), body.Bytes())
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == fasthttp.StatusNotFound {
			return nil, address.ErrNoAddressFound
		}
		return nil, err
	}
	var out model.ExtractResponse
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, fmt.Errorf("decode extract response: %w", err)
	}
	return out.Result, nil
}

func (c *Client) ListBios(ctx context.Context) ([]model.Bio, error) {
	resp, err := c.do(ctx, fasthttp.MethodGet, "/api/bios", "", nil)
	if err != nil {
		return nil, err
	}
	var out []model.Bio
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, fmt.Errorf("decode bios: %w", err)
	}
	return out, nil
}

// Suggestions returns address completions for input from /api/map-places.
func (c *Client) Suggestions(ctx context.Context, input string) ([]string, error) {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	args.Add("input", input)

	resp, err := c.do(ctx, fasthttp.MethodGet, "/api/map-places?"+args.String(), "", nil)
	if err != nil {
		return nil, err
	}
	return places.ParseSuggestions(resp.body)
}

func (c *Client) Catalog(ctx context.Context) (*model.CatalogResponse, error) {
	resp, err := c.do(ctx, fasthttp.MethodGet, "/api/catalog", "", nil)
	if err != nil {
		return nil, err
	}
	var out model.CatalogResponse
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &out, nil
}

func (c *Client) GeneratePDF(ctx context.Context, req *model.GeneratePDFRequest) (*engine.Document, error) {
	return c.generate(ctx, "/api/generate-pdf", req)
}

func (c *Client) GenerateProposal(ctx context.Context, req *model.GenerateProposalRequest) (*engine.Document, error) {
	return c.generate(ctx, "/api/generate-proposal", req)
}

func (c *Client) generate(ctx context.Context, path string, req any) (*engine.Document, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, fasthttp.MethodPost, path, model.ContentTypeJSON, payload)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == fasthttp.StatusBadRequest && len(apiErr.Body.Fields) > 0 {
			return nil, &validation.Error{Fields: apiErr.Body.Fields}
		}
		return nil, err
	}
	return &engine.Document{
		ID:          resp.documentID,
		Filename:    filename(resp.disposition),
		ContentType: resp.contentType,
		Data:        resp.body,
	}, nil
}

type response struct {
	body        []byte
	contentType string
	disposition string
	documentID  string
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte) (*response, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	if contentType != "" {
		req.Header.SetContentType(contentType)
	}
	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if status := resp.StatusCode(); status < 200 || status >= 300 {
		apiErr := &APIError{Status: status}
		if err := json.Unmarshal(resp.Body(), &apiErr.Body); err != nil || apiErr.Body.Error == "" {
			apiErr.Body.Error = fasthttp.StatusMessage(status)
		}
		return nil, apiErr
	}

	return &response{
		body:        append([]byte(nil), resp.Body()...),
		contentType: string(resp.Header.ContentType()),
		disposition: string(resp.Header.Peek(fasthttp.HeaderContentDisposition)),
		documentID:  string(resp.Header.Peek("X-Document-ID")),
	}, nil
}

func filename(disposition string) string {
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
