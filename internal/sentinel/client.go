// Package sentinel implements the Microsoft Sentinel incident store on the
// Azure Security Insights REST API.
package sentinel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/Popoo2020/Sentinel-AI-AutoTriage/internal/incident"
)

const (
	defaultBaseURL = "https://management.azure.com"
	apiVersion     = "2023-02-01"
	tokenScope     = "https://management.azure.com/.default"
)

// Config identifies the Sentinel workspace to operate on.
type Config struct {
	SubscriptionID string
	ResourceGroup  string
	WorkspaceName  string
}

// Validate reports all missing workspace identifiers.
func (c *Config) Validate() error {
	var errs []error
	if c.SubscriptionID == "" {
		errs = append(errs, errors.New("subscription-id is required"))
	}
	if c.ResourceGroup == "" {
		errs = append(errs, errors.New("resource-group is required"))
	}
	if c.WorkspaceName == "" {
		errs = append(errs, errors.New("workspace-name is required"))
	}
	return errors.Join(errs...)
}

// Client talks to the Security Insights incident API. It implements
// triage.IncidentStore.
type Client struct {
	cfg        Config
	cred       azcore.TokenCredential
	baseURL    string
	httpClient *http.Client

	// etags and raw properties from the last read of each incident, so
	// that a full-record PUT does not drop fields this service never
	// touches (owner, labels, timestamps).
	mu   sync.Mutex
	seen map[string]*armIncident
}

// New builds a client using DefaultAzureCredential and validates the
// credential chain with an early token probe.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	if _, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{tokenScope}}); err != nil {
		return nil, fmt.Errorf("azure token probe: %w", err)
	}

	return newWithCredential(cfg, cred, defaultBaseURL), nil
}

func newWithCredential(cfg Config, cred azcore.TokenCredential, baseURL string) *Client {
	return &Client{
		cfg:        cfg,
		cred:       cred,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		seen:       make(map[string]*armIncident),
	}
}

// armIncident is the Security Insights wire representation.
type armIncident struct {
	ID         string          `json:"id,omitempty"`
	Name       string          `json:"name"`
	Etag       string          `json:"etag,omitempty"`
	Type       string          `json:"type,omitempty"`
	Properties json.RawMessage `json:"properties"`
}

// armProperties covers the fields this service reads and writes. Everything
// else stays in the raw properties blob and is carried through updates.
type armProperties struct {
	Title                 *string `json:"title,omitempty"`
	Description           *string `json:"description,omitempty"`
	Severity              *string `json:"severity,omitempty"`
	Status                *string `json:"status,omitempty"`
	Classification        *string `json:"classification,omitempty"`
	ClassificationComment *string `json:"classificationComment,omitempty"`
}

type armIncidentList struct {
	Value    []armIncident `json:"value"`
	NextLink string        `json:"nextLink,omitempty"`
}

// ListIncidents fetches every incident in the workspace, following nextLink
// pages until exhausted.
func (c *Client) ListIncidents(ctx context.Context) ([]*incident.Record, error) {
	next := fmt.Sprintf("%s%s?api-version=%s", c.baseURL, c.incidentsPath(), apiVersion)

	var records []*incident.Record
	for next != "" {
		body, _, err := c.do(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, fmt.Errorf("list incidents: %w", err)
		}

		var page armIncidentList
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode incident list: %w", err)
		}

		for i := range page.Value {
			rec, err := c.remember(&page.Value[i])
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
		next = page.NextLink
	}
	return records, nil
}

// GetIncident fetches a single incident. ok is false when the incident no
// longer exists.
func (c *Client) GetIncident(ctx context.Context, id string) (*incident.Record, bool, error) {
	u := fmt.Sprintf("%s%s/%s?api-version=%s", c.baseURL, c.incidentsPath(), url.PathEscape(id), apiVersion)

	body, status, err := c.do(ctx, http.MethodGet, u, nil)
	if status == http.StatusNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get incident %s: %w", id, err)
	}

	var arm armIncident
	if err := json.Unmarshal(body, &arm); err != nil {
		return nil, false, fmt.Errorf("decode incident %s: %w", id, err)
	}
	rec, err := c.remember(&arm)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// UpdateIncident submits the full incident record back to the API, merging
// the changed fields into the last raw representation seen for that ID.
func (c *Client) UpdateIncident(ctx context.Context, rec *incident.Record) error {
	arm, err := c.merge(rec)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(arm)
	if err != nil {
		return fmt.Errorf("encode incident %s: %w", rec.ID, err)
	}

	u := fmt.Sprintf("%s%s/%s?api-version=%s", c.baseURL, c.incidentsPath(), url.PathEscape(rec.ID), apiVersion)
	body, _, err := c.do(ctx, http.MethodPut, u, payload)
	if err != nil {
		return fmt.Errorf("update incident %s: %w", rec.ID, err)
	}

	// The PUT response carries the new etag; remember it so a later
	// update in the same process does not conflict.
	var updated armIncident
	if err := json.Unmarshal(body, &updated); err == nil && updated.Name != "" {
		if _, err := c.remember(&updated); err != nil {
			return err
		}
	}
	return nil
}

// remember caches the wire form and converts it to the domain record.
func (c *Client) remember(arm *armIncident) (*incident.Record, error) {
	var props armProperties
	if len(arm.Properties) > 0 {
		if err := json.Unmarshal(arm.Properties, &props); err != nil {
			return nil, fmt.Errorf("decode incident %s properties: %w", arm.Name, err)
		}
	}

	cp := *arm
	c.mu.Lock()
	c.seen[arm.Name] = &cp
	c.mu.Unlock()

	rec := &incident.Record{
		ID:                    arm.Name,
		Title:                 props.Title,
		Description:           props.Description,
		Severity:              props.Severity,
		Classification:        (*incident.Classification)(props.Classification),
		ClassificationComment: props.ClassificationComment,
	}
	if props.Status != nil {
		st := incident.Status(*props.Status)
		rec.Status = &st
	}
	return rec, nil
}

// merge overlays the record's fields onto the cached raw properties so the
// PUT carries everything the API returned on the last read.
func (c *Client) merge(rec *incident.Record) (*armIncident, error) {
	c.mu.Lock()
	cached, ok := c.seen[rec.ID]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("incident %s was never fetched", rec.ID)
	}

	props := map[string]any{}
	if len(cached.Properties) > 0 {
		if err := json.Unmarshal(cached.Properties, &props); err != nil {
			return nil, fmt.Errorf("decode cached properties for %s: %w", rec.ID, err)
		}
	}

	if rec.Status != nil {
		props["status"] = string(*rec.Status)
	}
	if rec.Classification != nil {
		props["classification"] = string(*rec.Classification)
	}
	if rec.ClassificationComment != nil {
		props["classificationComment"] = *rec.ClassificationComment
	}

	raw, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("encode properties for %s: %w", rec.ID, err)
	}

	return &armIncident{
		Name:       rec.ID,
		Etag:       cached.Etag,
		Properties: raw,
	}, nil
}

func (c *Client) incidentsPath() string {
	return fmt.Sprintf(
		"/subscriptions/%s/resourceGroups/%s/providers/Microsoft.OperationalInsights/workspaces/%s/providers/Microsoft.SecurityInsights/incidents",
		url.PathEscape(c.cfg.SubscriptionID), url.PathEscape(c.cfg.ResourceGroup), url.PathEscape(c.cfg.WorkspaceName),
	)
}

// do issues one authenticated request and returns the response body and
// status code. A non-2xx response is returned as an error alongside its
// status code.
func (c *Client) do(ctx context.Context, method, u string, payload []byte) ([]byte, int, error) {
	token, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{tokenScope}})
	if err != nil {
		return nil, 0, fmt.Errorf("get token: %w", err)
	}

	var reqBody io.Reader = http.NoBody
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20)) // 10 MB
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("sentinel api %d: %s", resp.StatusCode, string(body))
	}
	return body, resp.StatusCode, nil
}
