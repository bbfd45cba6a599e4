package devkit

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestFakeDoer_ReplaysScriptsAndRecordsRequests(t *testing.T) {
	doer := NewFakeDoer(
		Script{Status: http.StatusCreated, Body: "first"},
		Script{Err: errors.New("boom")},
	)

	req, _ := http.NewRequest(http.MethodPost, "https://api.apollo.io/v1/x", strings.NewReader("payload"))
	req.Header.Set("X-Api-Key", "k")
	resp, err := doer.Do(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected first reply %v %v", resp, err)
	}

	req, _ = http.NewRequest(http.MethodGet, "https://api.apollo.io/v1/y", nil)
	if _, err := doer.Do(req); err == nil {
		t.Fatalf("expected scripted error")
	}
	if _, err := doer.Do(req); err == nil {
		t.Fatalf("expected last script to repeat")
	}

	requests := doer.Requests()
	if len(requests) != 3 {
		t.Fatalf("expected 3 recorded requests, got %d", len(requests))
	}
	if string(requests[0].Body) != "payload" || requests[0].Header.Get("X-Api-Key") != "k" {
		t.Fatalf("unexpected recorded request %+v", requests[0])
	}
	if doer.Last().URL != "https://api.apollo.io/v1/y" {
		t.Fatalf("unexpected last url %q", doer.Last().URL)
	}
}
