package verify

import (
	"fmt"
	"net/http"
)

// Kind classifies the outcome of a single check.
type Kind int

const (
	// Passed means a response arrived with status code 200.
	Passed Kind = iota
	// StatusFailure means a response arrived with any other status code.
	StatusFailure
	// TransportFailure means no usable response arrived: the request could
	// not be built or sent, or the response body could not be read.
	TransportFailure
)

func (k Kind) String() string {
	switch k {
	case Passed:
		return "passed"
	case StatusFailure:
		return "status failure"
	case TransportFailure:
		return "transport failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is what a check observed. StatusCode is zero if no response
// arrived. Err is non-nil only for transport failures.
type Result struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (r Result) Kind() Kind {
	if r.Err != nil {
		return TransportFailure
	}
	if r.StatusCode != http.StatusOK {
		return StatusFailure
	}
	return Passed
}

// OK reports whether the check passed. The body is not inspected.
func (r Result) OK() bool {
	return r.Kind() == Passed
}

func (r Result) String() string {
	switch r.Kind() {
	case Passed:
		return fmt.Sprintf("%s: passed", r.Op)
	case StatusFailure:
		return fmt.Sprintf("%s: status %d", r.Op, r.StatusCode)
	default:
		return fmt.Sprintf("%s: %v", r.Op, r.Err)
	}
}

// Report holds the results of Run.
type Report struct {
	Put Result
	Get Result
}

// OK reports whether both checks passed.
func (r Report) OK() bool {
	return r.Put.OK() && r.Get.OK()
}
