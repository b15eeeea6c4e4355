package sentinel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	"github.com/Popoo2020/Sentinel-AI-AutoTriage/internal/incident"
)

type fakeCredential struct{}

func (fakeCredential) GetToken(_ context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "test-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func testConfig() Config {
	return Config{
		SubscriptionID: "sub-1",
		ResourceGroup:  "rg-1",
		WorkspaceName:  "ws-1",
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return newWithCredential(testConfig(), fakeCredential{}, srv.URL)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	empty := Config{}
	err := empty.Validate()
	if err == nil {
		t.Fatal("expected error for empty config")
	}
	for _, want := range []string{"subscription-id", "resource-group", "workspace-name"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestListIncidents_Paged(t *testing.T) {
	t.Parallel()

	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /subscriptions/sub-1/resourceGroups/rg-1/providers/Microsoft.OperationalInsights/workspaces/ws-1/providers/Microsoft.SecurityInsights/incidents",
		func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
				t.Errorf("Authorization = %q", got)
			}
			if r.URL.Query().Get("api-version") != apiVersion {
				t.Errorf("api-version = %q", r.URL.Query().Get("api-version"))
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"value": []map[string]any{
					{
						"name": "inc-1",
						"etag": `"e1"`,
						"properties": map[string]any{
							"title":    "Suspicious login",
							"severity": "High",
							"status":   "New",
						},
					},
				},
				"nextLink": srvURL + "/page2",
			})
		})
	mux.HandleFunc("GET /page2", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{
					"name": "inc-2",
					"properties": map[string]any{
						"status": "Closed",
					},
				},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	srvURL = srv.URL
	c := newWithCredential(testConfig(), fakeCredential{}, srv.URL)

	records, err := c.ListIncidents(context.Background())
	if err != nil {
		t.Fatalf("ListIncidents: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].ID != "inc-1" {
		t.Errorf("ID = %q, want inc-1", records[0].ID)
	}
	if records[0].Title == nil || *records[0].Title != "Suspicious login" {
		t.Error("expected title from properties")
	}
	if records[0].Status == nil || *records[0].Status != incident.StatusNew {
		t.Error("expected status New")
	}
	if records[0].Description != nil {
		t.Error("absent description must stay nil")
	}
	if records[1].Status == nil || *records[1].Status != incident.StatusClosed {
		t.Error("expected status Closed on second page record")
	}
}

func TestGetIncident_NotFound(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":"NotFound"}}`, http.StatusNotFound)
	}))

	_, ok, err := c.GetIncident(context.Background(), "gone")
	if err != nil {
		t.Fatalf("GetIncident: %v", err)
	}
	if ok {
		t.Error("expected ok=false for 404")
	}
}

func TestGetIncident_ServerError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, _, err := c.GetIncident(context.Background(), "inc-1")
	if err == nil {
		t.Fatal("expected error for 500")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %v, want status code included", err)
	}
}

func TestUpdateIncident_MergesUntouchedFields(t *testing.T) {
	t.Parallel()

	var putBody []byte
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": "inc-1",
			"etag": `"e7"`,
			"properties": map[string]any{
				"title":    "Suspicious login",
				"severity": "High",
				"status":   "Active",
				"owner":    map[string]any{"email": "analyst@example.com"},
			},
		})
	})
	mux.HandleFunc("PUT /", func(w http.ResponseWriter, r *http.Request) {
		var buf map[string]any
		if err := json.NewDecoder(r.Body).Decode(&buf); err != nil {
			t.Errorf("decode PUT body: %v", err)
		}
		putBody, _ = json.Marshal(buf)
		_ = json.NewEncoder(w).Encode(buf)
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	rec, ok, err := c.GetIncident(ctx, "inc-1")
	if err != nil || !ok {
		t.Fatalf("GetIncident: ok=%v err=%v", ok, err)
	}

	closed := incident.StatusClosed
	benign := incident.ClassBenign
	comment := "Known scanner."
	rec.Status = &closed
	rec.Classification = &benign
	rec.ClassificationComment = &comment

	if err := c.UpdateIncident(ctx, rec); err != nil {
		t.Fatalf("UpdateIncident: %v", err)
	}

	var sent struct {
		Etag       string         `json:"etag"`
		Properties map[string]any `json:"properties"`
	}
	if err := json.Unmarshal(putBody, &sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	if sent.Etag != `"e7"` {
		t.Errorf("etag = %q, want the fetched one", sent.Etag)
	}
	if sent.Properties["status"] != "Closed" {
		t.Errorf("status = %v, want Closed", sent.Properties["status"])
	}
	if sent.Properties["classification"] != "Benign" {
		t.Errorf("classification = %v, want Benign", sent.Properties["classification"])
	}
	if sent.Properties["classificationComment"] != "Known scanner." {
		t.Errorf("classificationComment = %v", sent.Properties["classificationComment"])
	}
	// Fields this service never touches must survive the round trip.
	if sent.Properties["title"] != "Suspicious login" {
		t.Errorf("title = %v, want preserved", sent.Properties["title"])
	}
	if _, ok := sent.Properties["owner"].(map[string]any); !ok {
		t.Error("owner must be carried through the update")
	}
}

func TestUpdateIncident_NeverFetched(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))

	err := c.UpdateIncident(context.Background(), &incident.Record{ID: "unknown"})
	if err == nil {
		t.Fatal("expected error updating an incident that was never fetched")
	}
}
