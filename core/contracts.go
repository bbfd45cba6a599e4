package core

import (
	"context"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// BaseURLResolver maps a vendor and datacenter to an absolute base URL.
type BaseURLResolver interface {
	ResolveBaseURL(vendor Vendor, dc Datacenter) (string, error)
}

type ActivityOutcome string

const (
	ActivityOutcomeSuccess     ActivityOutcome = "success"
	ActivityOutcomeRejected    ActivityOutcome = "rejected"
	ActivityOutcomeUnreachable ActivityOutcome = "unreachable"
	ActivityOutcomeInvalid     ActivityOutcome = "invalid"
)

// ActivityEntry describes one proxied vendor call. It never carries
// credentials, bodies or query strings.
type ActivityEntry struct {
	Vendor     Vendor
	Operation  string
	Method     string
	Host       string
	Path       string
	StatusCode int
	Outcome    ActivityOutcome
	Duration   time.Duration
	TextCode   string
	Metadata   map[string]any
	OccurredAt time.Time
}

type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) error
}

type NopActivityRecorder struct{}

func (NopActivityRecorder) Record(context.Context, ActivityEntry) error {
	return nil
}
