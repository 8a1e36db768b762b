// Verifyapis is a smoke test for a key-value controller listening on
// localhost:8080. It puts testKey1=testValue1 with PUT /put, waits a second
// for the write to become visible, then reads testKey1 back with POST /get.
// Each check prints the status code and response body it got and passes if
// and only if the status code is 200.
//
// There are no flags. The exit status is 0 even if checks fail; read the
// output.
package main // import "github.com/nicolagi/kvverify/cmd/verifyapis"
