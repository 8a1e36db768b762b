package verify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nicolagi/kvverify/controller"
	"github.com/nicolagi/kvverify/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHarness returns a harness pointed at h, writing its transcript to the
// returned buffer.
func newHarness(t *testing.T, h http.Handler, opts ...verify.Option) (*verify.Harness, *bytes.Buffer, func()) {
	t.Helper()
	srv := httptest.NewServer(h)
	var out bytes.Buffer
	opts = append([]verify.Option{
		verify.WithBaseURL(srv.URL),
		verify.WithOutput(&out),
	}, opts...)
	return verify.New(opts...), &out, srv.Close
}

func reply(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}
}

func TestPut(t *testing.T) {
	t.Run("passes on 200", func(t *testing.T) {
		h, out, cleanup := newHarness(t, reply(http.StatusOK, "OK"))
		defer cleanup()
		r := h.TestPut(context.Background(), "testKey1", "testValue1")
		assert.True(t, r.OK())
		assert.Equal(t, verify.Passed, r.Kind())
		assert.Equal(t, "OK", r.Body)
		assert.Nil(t, r.Err)
		assert.Equal(t, "Testing PUT key=testKey1 value=testValue1...\nStatus: 200\nResponse: OK\n", out.String())
	})
	t.Run("passes on 200 for arbitrary pairs", func(t *testing.T) {
		h, _, cleanup := newHarness(t, controller.New())
		defer cleanup()
		pairs := [][2]string{
			{"a", "b"},
			{"key with spaces", "value with spaces"},
			{"ключ", "значение"},
			{`"quoted"`, `{"json":"inside"}`},
			{strings.Repeat("k", 1024), strings.Repeat("v", 64*1024)},
		}
		for _, p := range pairs {
			assert.True(t, h.TestPut(context.Background(), p[0], p[1]).OK(), "key %.20q", p[0])
		}
	})
	t.Run("fails on 503 and still prints the status", func(t *testing.T) {
		h, out, cleanup := newHarness(t, reply(http.StatusServiceUnavailable, "Service Unavailable"))
		defer cleanup()
		r := h.TestPut(context.Background(), "testKey1", "testValue1")
		assert.False(t, r.OK())
		assert.Equal(t, verify.StatusFailure, r.Kind())
		assert.Equal(t, http.StatusServiceUnavailable, r.StatusCode)
		assert.Nil(t, r.Err)
		assert.Contains(t, out.String(), "Status: 503\n")
		assert.Contains(t, out.String(), "Response: Service Unavailable\n")
	})
	t.Run("fails on any other status", func(t *testing.T) {
		for _, code := range []int{201, 204, 400, 404, 500} {
			h, out, cleanup := newHarness(t, reply(code, ""))
			r := h.TestPut(context.Background(), "k", "v")
			cleanup()
			assert.False(t, r.OK(), "status %d", code)
			assert.Equal(t, verify.StatusFailure, r.Kind(), "status %d", code)
			assert.Equal(t, code, r.StatusCode)
			assert.Contains(t, out.String(), "Status: ")
		}
	})
	t.Run("sends the pair as JSON with PUT", func(t *testing.T) {
		var method, contentType, path string
		var body verify.PutRequest
		h, _, cleanup := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			path = r.URL.Path
			contentType = r.Header.Get("Content-Type")
			assert.Nil(t, json.NewDecoder(r.Body).Decode(&body))
		}))
		defer cleanup()
		require.True(t, h.TestPut(context.Background(), "k1", "v1").OK())
		assert.Equal(t, http.MethodPut, method)
		assert.Equal(t, "/put", path)
		assert.Equal(t, "application/json", contentType)
		assert.Equal(t, verify.PutRequest{Key: "k1", Value: "v1"}, body)
	})
}

func TestGet(t *testing.T) {
	t.Run("sends the key as JSON with POST", func(t *testing.T) {
		var method, path string
		var raw []byte
		h, out, cleanup := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			path = r.URL.Path
			raw, _ = ioutil.ReadAll(r.Body)
			_, _ = w.Write([]byte(`{"value":"testValue1"}`))
		}))
		defer cleanup()
		r := h.TestGet(context.Background(), "testKey1")
		assert.True(t, r.OK())
		assert.Equal(t, http.MethodPost, method)
		assert.Equal(t, "/get", path)
		assert.JSONEq(t, `{"key":"testKey1"}`, string(raw))
		assert.Equal(t, "Testing GET key=testKey1...\nStatus: 200\nResponse: {\"value\":\"testValue1\"}\n", out.String())
	})
	t.Run("fails on 404", func(t *testing.T) {
		h, out, cleanup := newHarness(t, controller.New())
		defer cleanup()
		r := h.TestGet(context.Background(), "never-put")
		assert.Equal(t, verify.StatusFailure, r.Kind())
		assert.Contains(t, out.String(), "Status: 404\n")
	})
}

func TestTransportFailure(t *testing.T) {
	// Nothing listens on a closed test server's address.
	srv := httptest.NewServer(reply(http.StatusOK, ""))
	url := srv.URL
	srv.Close()

	var out bytes.Buffer
	h := verify.New(verify.WithBaseURL(url), verify.WithOutput(&out))

	put := h.TestPut(context.Background(), "testKey1", "testValue1")
	assert.False(t, put.OK())
	assert.Equal(t, verify.TransportFailure, put.Kind())
	assert.Equal(t, 0, put.StatusCode)
	require.NotNil(t, put.Err)
	assert.Contains(t, out.String(), "PUT failed: "+put.Err.Error())

	get := h.TestGet(context.Background(), "testKey1")
	assert.Equal(t, verify.TransportFailure, get.Kind())
	require.NotNil(t, get.Err)
	assert.Contains(t, out.String(), "GET failed: "+get.Err.Error())

	assert.NotContains(t, out.String(), "Status:")
}

func TestTransportFailureOnMalformedURL(t *testing.T) {
	var out bytes.Buffer
	h := verify.New(verify.WithBaseURL("://nowhere"), verify.WithOutput(&out))
	r := h.TestPut(context.Background(), "k", "v")
	assert.Equal(t, verify.TransportFailure, r.Kind())
	assert.Contains(t, out.String(), "PUT failed: ")
}

func TestTransportFailureOnTruncatedBody(t *testing.T) {
	h, out, cleanup := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Promise more than is sent, so reading the body fails.
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("short"))
	}))
	defer cleanup()
	r := h.TestPut(context.Background(), "k", "v")
	assert.Equal(t, verify.TransportFailure, r.Kind())
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.False(t, r.OK())
	assert.Contains(t, out.String(), "Status: 200\n")
	assert.Contains(t, out.String(), "PUT failed: ")
}

func TestRoundTrip(t *testing.T) {
	c := controller.New(controller.WithRecording())
	h, _, cleanup := newHarness(t, c)
	defer cleanup()

	require.True(t, h.TestPut(context.Background(), "k1", "v1").OK())
	puts := c.Puts()
	require.Len(t, puts, 1)
	assert.Equal(t, "k1", puts[0].Key)
	assert.Equal(t, "v1", puts[0].Value)

	get := h.TestGet(context.Background(), "k1")
	assert.True(t, get.OK())
	assert.Contains(t, get.Body, `"value":"v1"`)
}

func TestGetIgnoresReturnedValue(t *testing.T) {
	h, _, cleanup := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"value":"something else entirely"}`))
	}))
	defer cleanup()
	assert.True(t, h.TestPut(context.Background(), "k1", "v1").OK())
	assert.True(t, h.TestGet(context.Background(), "k1").OK())
}

func TestRun(t *testing.T) {
	t.Run("both pass against a working controller", func(t *testing.T) {
		h, out, cleanup := newHarness(t, controller.New(), verify.WithPause(time.Millisecond))
		defer cleanup()
		report := h.Run(context.Background())
		assert.True(t, report.OK())
		var lines []string
		for _, line := range strings.Split(out.String(), "\n") {
			if line != "" {
				lines = append(lines, line)
			}
		}
		require.Len(t, lines, 9)
		assert.Equal(t, "Starting API Verification...", lines[0])
		assert.Equal(t, "Testing PUT key=testKey1 value=testValue1...", lines[1])
		assert.Equal(t, "Status: 200", lines[2])
		assert.Equal(t, "PUT Test Passed", lines[4])
		assert.Equal(t, "Testing GET key=testKey1...", lines[5])
		assert.Equal(t, "Status: 200", lines[6])
		assert.Equal(t, "GET Test Passed", lines[8])
	})
	t.Run("failures are reported, not returned", func(t *testing.T) {
		h, out, cleanup := newHarness(t, reply(http.StatusServiceUnavailable, "Service Unavailable"), verify.WithPause(0))
		defer cleanup()
		report := h.Run(context.Background())
		assert.False(t, report.OK())
		assert.Equal(t, verify.StatusFailure, report.Put.Kind())
		assert.Equal(t, verify.StatusFailure, report.Get.Kind())
		assert.Contains(t, out.String(), "PUT Test Failed\n")
		assert.Contains(t, out.String(), "GET Test Failed\n")
	})
	t.Run("get still runs after the put fails", func(t *testing.T) {
		h, out, cleanup := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/put" {
				w.WriteHeader(http.StatusInternalServerError)
			}
		}), verify.WithPause(0))
		defer cleanup()
		report := h.Run(context.Background())
		assert.False(t, report.Put.OK())
		assert.True(t, report.Get.OK())
		assert.Contains(t, out.String(), "PUT Test Failed\n")
		assert.Contains(t, out.String(), "GET Test Passed\n")
	})
}

func TestRunPausesBetweenPutAndGet(t *testing.T) {
	var mu sync.Mutex
	var putDone, getStart time.Time
	c := controller.New()
	h, _, cleanup := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/get" {
			mu.Lock()
			getStart = time.Now()
			mu.Unlock()
		}
		c.ServeHTTP(w, r)
		if r.URL.Path == "/put" {
			mu.Lock()
			putDone = time.Now()
			mu.Unlock()
		}
	}))
	defer cleanup()

	report := h.Run(context.Background())
	require.True(t, report.OK())
	mu.Lock()
	defer mu.Unlock()
	assert.True(t, getStart.Sub(putDone) >= verify.DefaultPause, "pause was %v", getStart.Sub(putDone))
}

func TestRunPauseEndsWithContext(t *testing.T) {
	h, _, cleanup := newHarness(t, controller.New(), verify.WithPause(time.Hour))
	defer cleanup()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	report := h.Run(ctx)
	assert.True(t, time.Since(start) < time.Minute)
	assert.Equal(t, verify.TransportFailure, report.Get.Kind())
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "PUT: passed", verify.Result{Op: "PUT", StatusCode: 200}.String())
	assert.Equal(t, "GET: status 503", verify.Result{Op: "GET", StatusCode: 503}.String())
	assert.Equal(t, "transport failure", verify.TransportFailure.String())
}
