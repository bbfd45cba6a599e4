package core

import "testing"

func TestParseDatacenter(t *testing.T) {
	for _, code := range []string{"com", "EU", " in ", "ae", "com.au", "com.cn"} {
		if _, ok := ParseDatacenter(code); !ok {
			t.Fatalf("expected %q to be supported", code)
		}
	}
	for _, code := range []string{"", "us", "evil.com", "com.au.attacker"} {
		if _, ok := ParseDatacenter(code); ok {
			t.Fatalf("expected %q to be rejected", code)
		}
	}
}

func TestParseHTTPMethod(t *testing.T) {
	method, ok := ParseHTTPMethod("")
	if !ok || method != MethodGet {
		t.Fatalf("expected empty method to default to GET")
	}
	if _, ok := ParseHTTPMethod("TRACE"); ok {
		t.Fatalf("expected TRACE to be rejected")
	}
	if !MethodPatch.CarriesBody() || MethodDelete.CarriesBody() {
		t.Fatalf("unexpected body semantics")
	}
}

func TestVendorCredentialRefreshable(t *testing.T) {
	if (VendorCredential{Kind: CredentialKindAPIKey, Value: "k", RefreshToken: "r"}).Refreshable() {
		t.Fatalf("api keys never refresh")
	}
	if !(VendorCredential{Kind: CredentialKindOAuthToken, Value: "t", RefreshToken: "r"}).Refreshable() {
		t.Fatalf("oauth token with refresh token should be refreshable")
	}
}
