// Package controller implements the client-facing HTTP API of a key-value
// controller, backed by a storage.Store.
//
// Pairs are written with PUT /put and a JSON body {"key": k, "value": v}, and
// read with POST /get and a JSON body {"key": k}. Every response carries a
// JSON envelope:
//
//	{"status": "success", "code": 200, "payload": ...}
//	{"status": "fail", "code": 404, "errorMessage": "Key not found"}
//
// A missing key or value yields 400, a key that was never put yields 404, and
// a failing store yields 503.
package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nicolagi/kvverify/storage"
	log "github.com/sirupsen/logrus"
)

// Response is the envelope of every controller response.
type Response struct {
	Status       string      `json:"status"`
	Code         int         `json:"code"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
	Payload      interface{} `json:"payload,omitempty"`
}

// KeyValue is the payload of a successful get.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// PutRecord is an applied put, as received.
type PutRecord struct {
	Key      string
	Value    string
	Received time.Time
}

type options struct {
	store  storage.Store
	record bool
}

type Option func(*options)

func WithStore(value storage.Store) Option {
	return func(o *options) {
		o.store = value
	}
}

// WithRecording makes the controller keep every applied put, for Puts. The
// record is never trimmed, so it is meant for tests.
func WithRecording() Option {
	return func(o *options) {
		o.record = true
	}
}

// Controller is an http.Handler serving /put and /get.
type Controller struct {
	opts options
	mux  *http.ServeMux

	mu   sync.Mutex
	puts []PutRecord
}

func New(opts ...Option) *Controller {
	var c Controller
	for _, o := range opts {
		o(&c.opts)
	}
	if c.opts.store == nil {
		c.opts.store = storage.NewInMemoryStore()
	}
	c.mux = http.NewServeMux()
	c.mux.HandleFunc("/put", c.handle(http.MethodPut, c.put))
	c.mux.HandleFunc("/get", c.handle(http.MethodPost, c.get))
	return &c
}

func (c *Controller) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mux.ServeHTTP(w, r)
}

// Puts returns the puts applied so far, oldest first. It is always empty
// unless the controller was created WithRecording.
func (c *Controller) Puts() []PutRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	puts := make([]PutRecord, len(c.puts))
	copy(puts, c.puts)
	return puts
}

func (c *Controller) handle(method string, fn func(map[string]string) Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.WithFields(log.Fields{
			"op":   r.Method,
			"path": r.URL.Path,
		})
		response := func() Response {
			if r.Method != method {
				return fail(http.StatusMethodNotAllowed, fmt.Sprintf("%q: invalid method, expecting %s", r.Method, method))
			}
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				return fail(http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			}
			return fn(body)
		}()
		logger = logger.WithField("code", response.Code)
		if response.Code == http.StatusOK {
			logger.Debug("Success")
		} else {
			logger.WithField("err", response.ErrorMessage).Debug("Failure")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(response.Code)
		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.WithField("err", err).Error("Failed writing response")
		}
	}
}

func (c *Controller) put(body map[string]string) Response {
	key, value, ok := putEntry(body)
	if !ok || isBlank(key) || isBlank(value) {
		return fail(http.StatusBadRequest, "Key and value are required")
	}
	if err := c.opts.store.Put(key, value); err != nil {
		log.WithFields(log.Fields{
			"key": key,
			"err": err,
		}).Error("Could not store pair")
		return fail(http.StatusServiceUnavailable, fmt.Sprintf("Failed to store key: %v", err))
	}
	if c.opts.record {
		c.mu.Lock()
		c.puts = append(c.puts, PutRecord{Key: key, Value: value, Received: time.Now()})
		c.mu.Unlock()
	}
	return success(fmt.Sprintf("Stored key=%s", key))
}

func (c *Controller) get(body map[string]string) Response {
	key, ok := getKey(body)
	if !ok || isBlank(key) {
		return fail(http.StatusBadRequest, "Key is required")
	}
	value, err := c.opts.store.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return fail(http.StatusNotFound, "Key not found")
	}
	if err != nil {
		log.WithFields(log.Fields{
			"key": key,
			"err": err,
		}).Error("Could not load pair")
		return fail(http.StatusServiceUnavailable, fmt.Sprintf("Failed to load key: %v", err))
	}
	return success(KeyValue{Key: key, Value: value})
}

// putEntry accepts {"key": k, "value": v}, or a single {k: v} member.
func putEntry(body map[string]string) (key, value string, ok bool) {
	if len(body) == 0 {
		return "", "", false
	}
	key, hasKey := body["key"]
	value, hasValue := body["value"]
	if hasKey && hasValue {
		return key, value, true
	}
	if len(body) == 1 {
		for k, v := range body {
			return k, v, true
		}
	}
	return "", "", false
}

// getKey accepts {"key": k}, or a single member whose name is the key.
func getKey(body map[string]string) (key string, ok bool) {
	if len(body) == 0 {
		return "", false
	}
	if key, ok := body["key"]; ok {
		return key, true
	}
	if len(body) == 1 {
		for k := range body {
			return k, true
		}
	}
	return "", false
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func success(payload interface{}) Response {
	return Response{Status: "success", Code: http.StatusOK, Payload: payload}
}

func fail(code int, message string) Response {
	return Response{Status: "fail", Code: code, ErrorMessage: message}
}
