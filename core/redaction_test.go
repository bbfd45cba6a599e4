package core

import (
	"strings"
	"testing"
)

func TestRedactSensitiveMapPreservesTraceabilityMetadata(t *testing.T) {
	redacted := RedactSensitiveMap(map[string]any{
		"vendor":        "apollo",
		"request_id":    "req_1",
		"status_code":   200,
		"access_token":  "secret-token",
		"authorization": "Zoho-oauthtoken secret-token",
		"nested":        map[string]any{"refresh_token": "refresh", "trace_id": "trace_nested"},
		"headers":       map[string]string{"X-Api-Key": "key_1", "Accept": "application/json"},
		"events":        []any{map[string]any{"client_secret": "s"}, map[string]any{"external_id": "ext_1"}},
	})

	if redacted["vendor"] != "apollo" || redacted["status_code"] != 200 {
		t.Fatalf("expected traceability keys to remain visible, got %#v", redacted)
	}
	if redacted["access_token"] != RedactedValue || redacted["authorization"] != RedactedValue {
		t.Fatalf("expected credentials to be redacted, got %#v", redacted)
	}
	nested := redacted["nested"].(map[string]any)
	if nested["refresh_token"] != RedactedValue || nested["trace_id"] != "trace_nested" {
		t.Fatalf("unexpected nested redaction %#v", nested)
	}
	headers := redacted["headers"].(map[string]string)
	if headers["X-Api-Key"] != RedactedValue || headers["Accept"] != "application/json" {
		t.Fatalf("unexpected header redaction %#v", headers)
	}
	events := redacted["events"].([]any)
	if events[0].(map[string]any)["client_secret"] != RedactedValue {
		t.Fatalf("expected list entries to be redacted")
	}
}

func TestRedactURL_MasksCredentialQuery(t *testing.T) {
	got := RedactURL("https://user:pw@accounts.zoho.eu/oauth/v2/token?client_id=abc&client_secret=shh&grant_type=refresh_token&refresh_token=r1")
	for _, leaked := range []string{"shh", "r1", "pw"} {
		if strings.Contains(got, leaked) {
			t.Fatalf("expected %q to be redacted from %q", leaked, got)
		}
	}
	if !strings.Contains(got, "grant_type=refresh_token") {
		t.Fatalf("expected non-sensitive query to remain, got %q", got)
	}
}
