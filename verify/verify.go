// Package verify implements a black-box smoke test of a key-value
// controller's HTTP API. It puts a pair, waits, and gets it back, printing
// what it sends and receives. A check passes if and only if the response
// status code is 200; response bodies are printed but never parsed.
package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultPause   = time.Second

	// The pair Run puts and then gets.
	SmokeKey   = "testKey1"
	SmokeValue = "testValue1"
)

type options struct {
	baseURL string
	client  *http.Client
	out     io.Writer
	pause   time.Duration
}

type Option func(*options)

// WithBaseURL sets the controller address, e.g. "http://localhost:8080".
func WithBaseURL(value string) Option {
	return func(o *options) {
		o.baseURL = value
	}
}

func WithHTTPClient(value *http.Client) Option {
	return func(o *options) {
		o.client = value
	}
}

// WithOutput sets where the console transcript is written.
func WithOutput(value io.Writer) Option {
	return func(o *options) {
		o.out = value
	}
}

// WithPause sets how long Run waits between the put and the get, to let the
// controller make the written value visible.
func WithPause(value time.Duration) Option {
	return func(o *options) {
		o.pause = value
	}
}

// Harness runs checks against a single controller. It holds no state
// between checks.
type Harness struct {
	opts options
}

func New(opts ...Option) *Harness {
	var h Harness
	h.opts.baseURL = DefaultBaseURL
	h.opts.client = http.DefaultClient
	h.opts.out = os.Stdout
	h.opts.pause = DefaultPause
	for _, o := range opts {
		o(&h.opts)
	}
	return &h
}

// TestPut sends PUT /put with the pair as a JSON body.
func (h *Harness) TestPut(ctx context.Context, key, value string) Result {
	h.printf("Testing PUT key=%s value=%s...\n", key, value)
	return h.check(ctx, "PUT", http.MethodPut, "/put", PutRequest{Key: key, Value: value})
}

// TestGet sends POST /get with the key as a JSON body. The controller
// exposes reads as POST, so that is what is checked.
func (h *Harness) TestGet(ctx context.Context, key string) Result {
	h.printf("Testing GET key=%s...\n", key)
	return h.check(ctx, "GET", http.MethodPost, "/get", GetRequest{Key: key})
}

// Run prints a banner, checks a put of SmokeKey, pauses, then checks a get
// of the same key, printing whether each check passed. Failures are only
// reported, never returned as errors.
func (h *Harness) Run(ctx context.Context) Report {
	var report Report
	h.printf("Starting API Verification...\n")
	report.Put = h.TestPut(ctx, SmokeKey, SmokeValue)
	h.printOutcome(report.Put)
	h.sleep(ctx)
	report.Get = h.TestGet(ctx, SmokeKey)
	h.printOutcome(report.Get)
	return report
}

func (h *Harness) check(ctx context.Context, op, method, path string, payload interface{}) (r Result) {
	r.Op = op
	url := strings.TrimSuffix(h.opts.baseURL, "/") + path
	logger := log.WithFields(log.Fields{
		"op":     op,
		"method": method,
		"url":    url,
	})
	start := time.Now()
	defer func() {
		logger.WithFields(log.Fields{
			"status":  r.StatusCode,
			"kind":    r.Kind(),
			"elapsed": time.Since(start),
		}).Debug("Check done")
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return h.transportFailure(r, err)
	}
	request, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return h.transportFailure(r, err)
	}
	request.Header.Set("Content-Type", "application/json")
	response, err := h.opts.client.Do(request)
	if response != nil && response.Body != nil {
		defer func() {
			_ = response.Body.Close()
		}()
	}
	if err != nil {
		return h.transportFailure(r, err)
	}
	r.StatusCode = response.StatusCode
	h.printf("Status: %d\n", response.StatusCode)
	b, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return h.transportFailure(r, err)
	}
	r.Body = string(b)
	h.printf("Response: %s\n", r.Body)
	return r
}

func (h *Harness) transportFailure(r Result, err error) Result {
	r.Err = err
	h.printf("%s failed: %v\n", r.Op, err)
	return r
}

func (h *Harness) printOutcome(r Result) {
	if r.OK() {
		h.printf("%s Test Passed\n", r.Op)
	} else {
		h.printf("%s Test Failed\n", r.Op)
	}
}

// sleep blocks for the configured pause, or until ctx is done.
func (h *Harness) sleep(ctx context.Context) {
	if h.opts.pause <= 0 {
		return
	}
	t := time.NewTimer(h.opts.pause)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
		log.WithField("err", ctx.Err()).Debug("Pause interrupted")
	}
}

func (h *Harness) printf(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(h.opts.out, format, args...); err != nil {
		log.WithField("err", err).Warn("Could not write output")
	}
}
