package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/arbor-insights/pulse-cli/internal/model"
	"github.com/arbor-insights/pulse-cli/internal/resilience"
)

const (
	// DefaultPageSize is requested per page when the caller does not choose.
	DefaultPageSize = 100

	// DefaultMaxPages is the hard safety cap against runaway pagination.
	DefaultMaxPages = 50
)

// Page is one fetched page of raw records plus its position in the sequence.
type Page struct {
	Number  int
	Records []model.RawRecord
}

// PageRequest describes a paginated endpoint and how to walk it.
type PageRequest struct {
	Endpoint string
	Auth     Auth
	Params   url.Values // merged into every page request

	PageParam string // e.g. "page" or "offset"
	SizeParam string // e.g. "page_size" or "limit"

	// PageSize is the requested page size. A returned page smaller than
	// this is treated as the last page. APIs that cap the page size below
	// the requested value terminate early under this heuristic; MaxPages
	// and re-running are the mitigations, not vendor-specific cursors.
	PageSize int

	StartPage int  // pagination origin, 0 or 1 depending on API convention
	ByOffset  bool // advance PageParam by PageSize instead of by 1

	// ItemsKey names the JSON object key holding the record array.
	// Empty means the response body is itself an array.
	ItemsKey string

	MaxPages int

	Retry resilience.RetryConfig
}

func (r PageRequest) withDefaults() PageRequest {
	if r.PageSize <= 0 {
		r.PageSize = DefaultPageSize
	}
	if r.MaxPages <= 0 {
		r.MaxPages = DefaultMaxPages
	}
	if r.PageParam == "" {
		r.PageParam = "page"
	}
	if r.SizeParam == "" {
		r.SizeParam = "page_size"
	}
	return r
}

// pageURL builds the URL for the given cursor value.
func (r PageRequest) pageURL(cursor int) string {
	q := url.Values{}
	for k, vs := range r.Params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set(r.PageParam, strconv.Itoa(cursor))
	q.Set(r.SizeParam, strconv.Itoa(r.PageSize))
	return r.Endpoint + "?" + q.Encode()
}

// FetchAll walks the endpoint page by page until an empty page, a page
// shorter than the requested size, or MaxPages. Each page request is retried
// per the request's retry config. On an auth rejection or exhausted retries
// the pages fetched so far are returned together with the error.
func (c *Client) FetchAll(ctx context.Context, req PageRequest) ([]Page, error) {
	req = req.withDefaults()
	log := zap.L().With(zap.String("component", "fetcher"), zap.String("endpoint", req.Endpoint))

	var pages []Page
	cursor := req.StartPage

	for n := 0; n < req.MaxPages; n++ {
		rawURL := req.pageURL(cursor)

		body, err := resilience.DoVal(ctx, req.Retry, func(ctx context.Context) ([]byte, error) {
			return c.GetJSON(ctx, rawURL, req.Auth)
		})
		if err != nil {
			var authErr *AuthError
			if errors.As(err, &authErr) {
				return pages, authErr
			}
			return pages, &FetchError{Endpoint: req.Endpoint, Page: n, Err: err}
		}

		records, err := decodeItems(body, req.ItemsKey)
		if err != nil {
			return pages, &FetchError{Endpoint: req.Endpoint, Page: n, Err: err}
		}

		if len(records) == 0 {
			break
		}

		pages = append(pages, Page{Number: n, Records: records})
		log.Debug("fetched page", zap.Int("page", n), zap.Int("records", len(records)))

		// Short page = last page.
		if len(records) < req.PageSize {
			break
		}

		if req.ByOffset {
			cursor += req.PageSize
		} else {
			cursor++
		}
	}

	return pages, nil
}

// decodeItems extracts the record array from a JSON payload, either at the
// top level or under itemsKey.
func decodeItems(body []byte, itemsKey string) ([]model.RawRecord, error) {
	if itemsKey == "" {
		var records []model.RawRecord
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, eris.Wrap(err, "fetcher: decode array payload")
		}
		return records, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, eris.Wrap(err, "fetcher: decode envelope")
	}

	raw, ok := envelope[itemsKey]
	if !ok {
		// Some APIs omit the key entirely on the page past the end.
		return nil, nil
	}

	var records []model.RawRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, eris.Wrapf(err, "fetcher: decode %q items", itemsKey)
	}
	return records, nil
}
