package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"emp-pipeline/internal/config"
	"emp-pipeline/internal/logging"
	"emp-pipeline/internal/util"

	"golang.org/x/sync/errgroup"
)

// Client fetches the complete employee dataset from the remote API. It is
// explicitly constructed and scoped to one run: no package-level session or
// credential state survives between runs.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	credentials string
	pageSize    int
	maxRetries  int
	backoffBase time.Duration
	concurrency int
	paging      config.PaginationConfig
}

// Result is the outcome of one complete ingestion run. Records mirror the
// API payload faithfully, duplicates included; validation happens downstream.
type Result struct {
	Records []map[string]interface{}
	Pages   int
	// Total is the record count reported by the API, -1 when it reports none.
	Total int
}

// page is one RawBatch: the records of a single API call plus the pagination
// metadata needed to continue.
type page struct {
	records   []map[string]interface{}
	nextToken string
	total     int
}

// NewClient builds a fetch client from the validated API configuration.
func NewClient(cfg config.APIConfig) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout()},
		endpoint:    cfg.Endpoint,
		credentials: cfg.Credentials,
		pageSize:    cfg.PageSize,
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBase(),
		concurrency: cfg.Concurrency,
		paging:      cfg.Pagination,
	}
}

// FetchAll performs one logical run: it iterates pages until the API signals
// exhaustion (empty page, absent next token, or reported total reached) and
// returns the accumulated records. Any error means no artifact should be
// committed.
func (c *Client) FetchAll(ctx context.Context) (*Result, error) {
	logging.Logf(logging.Info, "Fetching employee data from %s (pageSize=%d, mode=%s)", util.MaskCredentials(c.endpoint), c.pageSize, c.paging.Mode)

	var res *Result
	var err error
	if strings.EqualFold(c.paging.Mode, config.PaginationModeToken) {
		res, err = c.fetchByToken(ctx)
	} else {
		res, err = c.fetchByOffset(ctx)
	}
	if err != nil {
		return nil, err
	}

	logging.Logf(logging.Info, "Fetched %d records across %d pages", len(res.Records), res.Pages)
	return res, nil
}

// fetchByOffset pages through the API with offset/limit parameters. When the
// first page reports a total and concurrency allows, the remaining pages are
// fetched in parallel; otherwise the walk is sequential.
func (c *Client) fetchByOffset(ctx context.Context) (*Result, error) {
	first, err := c.getPage(ctx, c.offsetParams(0))
	if err != nil {
		return nil, err
	}

	res := &Result{Pages: 1, Total: first.total}
	res.Records = append(res.Records, first.records...)
	if len(first.records) == 0 {
		return res, nil
	}
	if res.Total >= 0 && len(res.Records) >= res.Total {
		return res, nil
	}

	if c.concurrency > 1 && res.Total >= 0 {
		return c.fetchRemainingConcurrent(ctx, res)
	}
	if c.concurrency > 1 {
		logging.Logf(logging.Debug, "API reports no total count; falling back to sequential paging")
	}

	for offset := len(res.Records); ; {
		p, err := c.getPage(ctx, c.offsetParams(offset))
		if err != nil {
			return nil, err
		}
		res.Pages++
		if len(p.records) == 0 {
			break
		}
		res.Records = append(res.Records, p.records...)
		offset += len(p.records)
		if p.total >= 0 {
			res.Total = p.total
		}
		if res.Total >= 0 && len(res.Records) >= res.Total {
			break
		}
	}
	return res, nil
}

// fetchRemainingConcurrent fetches the pages after the first in parallel.
// Page boundaries are known once a total is reported, so results reassemble
// in page order and final ordering is unaffected by interleaving.
func (c *Client) fetchRemainingConcurrent(ctx context.Context, res *Result) (*Result, error) {
	fetched := len(res.Records)
	remaining := res.Total - fetched
	pageCount := (remaining + c.pageSize - 1) / c.pageSize
	pages := make([][]map[string]interface{}, pageCount)

	logging.Logf(logging.Debug, "Fetching %d remaining pages with concurrency %d", pageCount, c.concurrency)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := 0; i < pageCount; i++ {
		i := i
		g.Go(func() error {
			p, err := c.getPage(gctx, c.offsetParams(fetched+i*c.pageSize))
			if err != nil {
				return err
			}
			pages[i] = p.records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, recs := range pages {
		res.Records = append(res.Records, recs...)
		res.Pages++
	}
	return res, nil
}

// fetchByToken walks the API's next-page tokens sequentially until the token
// disappears or a page comes back empty.
func (c *Client) fetchByToken(ctx context.Context) (*Result, error) {
	res := &Result{Total: -1}
	token := ""
	for {
		params := url.Values{}
		params.Set(c.paging.LimitParam, strconv.Itoa(c.pageSize))
		if token != "" {
			params.Set(c.paging.TokenParam, token)
		}
		p, err := c.getPage(ctx, params)
		if err != nil {
			return nil, err
		}
		res.Pages++
		res.Records = append(res.Records, p.records...)
		if p.total >= 0 {
			res.Total = p.total
		}
		if p.nextToken == "" || len(p.records) == 0 {
			break
		}
		token = p.nextToken
	}
	return res, nil
}

func (c *Client) offsetParams(offset int) url.Values {
	params := url.Values{}
	params.Set(c.paging.OffsetParam, strconv.Itoa(offset))
	params.Set(c.paging.LimitParam, strconv.Itoa(c.pageSize))
	return params
}

// getPage fetches one page, driving the bounded retry schedule. Transport
// errors and non-2xx statuses are retried; auth rejections, malformed
// payloads, and cancellation are not.
func (c *Client) getPage(ctx context.Context, params url.Values) (*page, error) {
	bo := newBackoff(c.backoffBase, c.maxRetries)
	var lastErr error
	for {
		body, retryable, err := c.doOnce(ctx, params)
		if err == nil {
			return c.decodePage(body)
		}
		if !retryable {
			return nil, err
		}
		lastErr = err

		delay, ok := bo.Next()
		if !ok {
			return nil, fmt.Errorf("%w: %d attempt(s) failed, last error: %v", ErrUnreachable, bo.Attempts(), lastErr)
		}
		logging.Logf(logging.Warning, "Fetch attempt %d failed (%v); retrying in %s", bo.Attempts(), err, delay)
		if serr := sleepCtx(ctx, delay); serr != nil {
			return nil, serr
		}
	}
}

// doOnce performs a single HTTP GET for one page. retryable reports whether
// the failure is transient; auth rejection and cancellation are terminal.
func (c *Client) doOnce(ctx context.Context, params url.Values) (body []byte, retryable bool, err error) {
	reqURL := c.endpoint
	if enc := params.Encode(); enc != "" {
		sep := "?"
		if strings.Contains(reqURL, "?") {
			sep = "&"
		}
		reqURL += sep + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request for '%s': %w", util.MaskCredentials(reqURL), err)
	}
	req.Header.Set("Accept", "application/json")
	if c.credentials != "" {
		req.Header.Set("Authorization", "Bearer "+c.credentials)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		// Timeouts are treated identically to non-2xx for retry purposes.
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, false, fmt.Errorf("%w: status %d (%s)", ErrAuthFailure, resp.StatusCode, util.Snippet(body))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, true, fmt.Errorf("unexpected status %d (%s)", resp.StatusCode, util.Snippet(body))
	}
	if readErr != nil {
		return nil, true, fmt.Errorf("reading response body: %w", readErr)
	}
	return body, false, nil
}

// decodePage parses a page body. Accepted shapes: a bare JSON array of
// record objects, or an object holding the record array under the configured
// records field plus optional total / next-token metadata.
func (c *Client) decodePage(body []byte) (*page, error) {
	var root interface{}
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("%w: %v (body: %s)", ErrMalformedResponse, err, util.Snippet(body))
	}

	p := &page{total: -1}
	switch v := root.(type) {
	case []interface{}:
		records, err := toRecords(v)
		if err != nil {
			return nil, err
		}
		p.records = records
	case map[string]interface{}:
		rawRecords, present := v[c.paging.RecordsField]
		if !present {
			return nil, fmt.Errorf("%w: response object has no '%s' field", ErrMalformedResponse, c.paging.RecordsField)
		}
		arr, ok := rawRecords.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: field '%s' is %T, expected an array", ErrMalformedResponse, c.paging.RecordsField, rawRecords)
		}
		records, err := toRecords(arr)
		if err != nil {
			return nil, err
		}
		p.records = records

		if total, ok := v[c.paging.TotalField].(float64); ok {
			p.total = int(total)
		}
		if token, ok := v[c.paging.NextTokenField].(string); ok {
			p.nextToken = token
		}
	default:
		return nil, fmt.Errorf("%w: top-level JSON is %T, expected array or object", ErrMalformedResponse, root)
	}
	return p, nil
}

// toRecords requires every array element to be a JSON object.
func toRecords(arr []interface{}) ([]map[string]interface{}, error) {
	records := make([]map[string]interface{}, 0, len(arr))
	for i, item := range arr {
		rec, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: record %d is %T, expected an object", ErrMalformedResponse, i, item)
		}
		records = append(records, rec)
	}
	return records, nil
}
