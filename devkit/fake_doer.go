// Package devkit provides scripted vendor doubles for tests.
package devkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/goliatone/go-vendorgate/core"
)

// Script is one canned vendor reply.
type Script struct {
	Status int
	Header map[string]string
	Body   string
	Err    error
}

// RecordedRequest is a copy of what the fake received.
type RecordedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// FakeDoer replays scripts in order and repeats the last one when exhausted.
type FakeDoer struct {
	mu       sync.Mutex
	scripts  []Script
	requests []RecordedRequest
}

func NewFakeDoer(scripts ...Script) *FakeDoer {
	return &FakeDoer{scripts: append([]Script(nil), scripts...)}
}

func (d *FakeDoer) Do(req *http.Request) (*http.Response, error) {
	if d == nil {
		return nil, fmt.Errorf("devkit: fake doer is nil")
	}
	var body []byte
	if req.Body != nil {
		read, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		_ = req.Body.Close()
		body = read
	}

	d.mu.Lock()
	d.requests = append(d.requests, RecordedRequest{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
		Body:   body,
	})
	index := len(d.requests) - 1
	script := Script{Status: http.StatusOK}
	switch {
	case index < len(d.scripts):
		script = d.scripts[index]
	case len(d.scripts) > 0:
		script = d.scripts[len(d.scripts)-1]
	}
	d.mu.Unlock()

	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	if script.Err != nil {
		return nil, script.Err
	}
	status := script.Status
	if status == 0 {
		status = http.StatusOK
	}
	header := http.Header{}
	for key, value := range script.Header {
		header.Set(key, value)
	}
	return &http.Response{
		StatusCode:    status,
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:        header,
		Body:          io.NopCloser(strings.NewReader(script.Body)),
		ContentLength: int64(len(script.Body)),
		Request:       req,
	}, nil
}

func (d *FakeDoer) Requests() []RecordedRequest {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]RecordedRequest, 0, len(d.requests))
	for _, item := range d.requests {
		out = append(out, RecordedRequest{
			Method: item.Method,
			URL:    item.URL,
			Header: item.Header.Clone(),
			Body:   bytes.Clone(item.Body),
		})
	}
	return out
}

// Last returns the most recent request or a zero value.
func (d *FakeDoer) Last() RecordedRequest {
	requests := d.Requests()
	if len(requests) == 0 {
		return RecordedRequest{}
	}
	return requests[len(requests)-1]
}

var _ core.HTTPDoer = (*FakeDoer)(nil)
