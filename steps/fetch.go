package steps

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/bucketrun/bucketrun/common/logger"
	"github.com/bucketrun/bucketrun/engine"
)

// URLFunc derives the URL to fetch for a single row from that row's input
// cell.
type URLFunc func(in interface{}) (string, error)

// FetchStep issues one retrying HTTP GET per row of its dependency column
// and resolves each row to the response body. It is never sync-and-safe:
// every row's result is an Awaitable that performs its request when
// awaited, and the scheduler awaits those cells one at a time in row order.
type FetchStep struct {
	engine.BaseStep
	URL    URLFunc
	Client *retryablehttp.Client
	log    logger.Log
}

// NewFetchStep builds a FetchStep with a retrying HTTP client configured
// the way the rest of a deployment configures one: bounded retries with
// exponential backoff, logging through the same structured logger.
func NewFetchStep(id engine.StepID, dependency engine.StepID, dependents []engine.StepID, url URLFunc, logFactory logger.LogFactory) *FetchStep {
	log := logFactory("FetchStep")
	client := retryablehttp.NewClient()
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.RetryMax = 3
	client.Logger = newLeveledLogger(log)
	return &FetchStep{
		BaseStep: engine.NewBaseStep(id, []engine.StepID{dependency}, dependents),
		URL:      url,
		Client:   client,
		log:      log,
	}
}

func (s *FetchStep) IsSyncAndSafe() bool { return false }

func (s *FetchStep) Execute(ctx context.Context, deps []engine.Column, extra engine.Extra) (engine.Column, error) {
	in := deps[0]
	s.log.Debugf("fetching %d rows", len(in))
	out := make(engine.Column, len(in))
	for i, cell := range in {
		if engine.IsError(cell) {
			out[i] = cell
			continue
		}
		out[i] = s.fetchCell(cell)
	}
	return out, nil
}

// fetchCell returns the Awaitable that, once awaited, performs the actual
// request. Dispatch happens lazily on Await rather than here, so that the
// scheduler (not this loop) controls concurrency across rows.
func (s *FetchStep) fetchCell(in interface{}) engine.Awaitable {
	return fetchAwaitable{step: s, in: in}
}

type fetchAwaitable struct {
	step *FetchStep
	in   interface{}
}

func (f fetchAwaitable) Await(ctx context.Context) (interface{}, error) {
	url, err := f.step.URL(f.in)
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.step.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &httpStatusError{url: url, statusCode: resp.StatusCode}
	}
	return string(body), nil
}

type httpStatusError struct {
	url        string
	statusCode int
}

func (e *httpStatusError) Error() string {
	return "fetch failed: " + e.url + " returned an error status"
}
