package drive

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/devkit"
)

func TestList_ParsesJSONAPIListing(t *testing.T) {
	doer := devkit.NewFakeDoer(devkit.Script{
		Header: map[string]string{"Content-Type": "application/vnd.api+json"},
		Body: `{"data":[
			{"id":"f1","type":"files","attributes":{"name":"Leads.csv","type":"spreadsheet","extn":"csv","is_folder":false,
				"storage_info":{"size_in_bytes":2048},"modified_time_in_millisecond":1700000000000,"permalink":"https://workdrive.zoho.com/file/f1"}},
			{"id":"d1","type":"files","attributes":{"name":"Archive","type":"folder"}}
		]}`,
	})
	svc := newTestService(t, doer, nil)

	entries, err := svc.List(context.Background(), ListRequest{FolderID: "root-1", AuthToken: "t", Limit: 500})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	first := entries[0]
	if first.Name != "Leads.csv" || first.Extension != "csv" || first.IsFolder {
		t.Fatalf("unexpected first entry %+v", first)
	}
	if first.SizeBytes == nil || *first.SizeBytes != 2048 || first.ModifiedAt == nil {
		t.Fatalf("expected size and modified time, got %+v", first)
	}
	if !entries[1].IsFolder || entries[1].SizeBytes != nil {
		t.Fatalf("unexpected folder entry %+v", entries[1])
	}

	sent := doer.Last()
	if sent.Header.Get("Accept") != "application/vnd.api+json" {
		t.Fatalf("expected json:api accept header")
	}
	parsed, _ := url.Parse(sent.URL)
	if parsed.Path != "/workdrive/api/v1/files/root-1/files" || parsed.Query().Get("page[limit]") != "200" {
		t.Fatalf("unexpected list url %s", sent.URL)
	}
}

func TestList_VendorErrorAndValidation(t *testing.T) {
	doer := devkit.NewFakeDoer(devkit.Script{Status: http.StatusUnauthorized, Body: `{"errors":[{"id":"F6016"}]}`})
	svc := newTestService(t, doer, nil)
	if _, err := svc.List(context.Background(), ListRequest{AuthToken: "t"}); !core.HasTextCode(err, core.ErrorBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
	_, err := svc.List(context.Background(), ListRequest{FolderID: "x", AuthToken: "t"})
	if status, _, _, ok := core.VendorPayload(err); !ok || status != http.StatusUnauthorized {
		t.Fatalf("expected relayed 401, got %v", err)
	}
}
