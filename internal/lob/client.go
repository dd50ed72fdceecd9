// Package lob is a client for the Lob print-and-mail API, covering US
// address verification and postcard order submission.
package lob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ScoeScoe/POSTANOS/internal/domain/model"
	apperrors "github.com/ScoeScoe/POSTANOS/internal/errors"
)

const (
	defaultBaseURL = "https://api.lob.com/v1"
	defaultVersion = "2024-01-01"

	postcardSize = "4x6"

	// maxErrorBodyBytes caps how much of a provider error response is kept
	// in error messages that end up persisted on failed jobs.
	maxErrorBodyBytes = 512
)

// Config captures the subset of Lob API behaviour we need.
type Config struct {
	APIKey      string
	BaseURL     string
	Version     string
	SandboxMode bool
	Timeout     time.Duration
	Client      *http.Client
}

// Client talks to the Lob API with basic auth and a pinned API version.
type Client struct {
	apiKey      string
	baseURL     string
	version     string
	sandboxMode bool
	client      *http.Client
}

// NewClient builds a Lob API client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("lob api key is required")
	}

	baseURL := strings.TrimSpace(strings.TrimSuffix(cfg.BaseURL, "/"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	version := strings.TrimSpace(cfg.Version)
	if version == "" {
		version = defaultVersion
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		apiKey:      apiKey,
		baseURL:     baseURL,
		version:     version,
		sandboxMode: cfg.SandboxMode,
		client:      hc,
	}, nil
}

type usVerificationRequest struct {
	PrimaryLine   string `json:"primary_line"`
	SecondaryLine string `json:"secondary_line,omitempty"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
}

type usVerificationResponse struct {
	ID             string `json:"id"`
	Deliverability string `json:"deliverability"`
	PrimaryLine    string `json:"primary_line"`
	SecondaryLine  string `json:"secondary_line"`
	Components     struct {
		City    string `json:"city"`
		State   string `json:"state"`
		ZipCode string `json:"zip_code"`
	} `json:"components"`
	DeliverabilityAnalysis struct {
		// lacs_indicator "Y" means the recipient filed a change of address.
		LacsIndicator string `json:"lacs_indicator"`
	} `json:"deliverability_analysis"`
}

// VerifyAddress submits an address to Lob US verification and returns the
// normalized judgment. The caller decides whether the deliverability
// classification is acceptable.
func (c *Client) VerifyAddress(ctx context.Context, addr model.Address) (*model.VerificationResult, error) {
	if err := addr.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "verify address")
	}

	reqBody := usVerificationRequest{
		PrimaryLine:   addr.Line1,
		SecondaryLine: addr.Line2,
		City:          addr.City,
		State:         addr.State,
		ZipCode:       addr.PostalCode,
	}

	var resp usVerificationResponse
	if err := c.postJSON(ctx, "/us_verifications", apperrors.ErrCodeVerification, reqBody, &resp); err != nil {
		return nil, err
	}

	return &model.VerificationResult{
		ID:             resp.ID,
		Deliverability: model.Deliverability(resp.Deliverability),
		RecipientMoved: resp.DeliverabilityAnalysis.LacsIndicator == "Y",
		PrimaryLine:    resp.PrimaryLine,
		SecondaryLine:  resp.SecondaryLine,
		City:           resp.Components.City,
		State:          resp.Components.State,
		ZipCode:        resp.Components.ZipCode,
	}, nil
}

type postcardAPIRequest struct {
	To          model.PostcardAddress `json:"to"`
	From        model.PostcardAddress `json:"from"`
	Front       string                `json:"front"`
	Back        string                `json:"back"`
	Size        string                `json:"size"`
	Description string                `json:"description,omitempty"`
	Metadata    map[string]string     `json:"metadata,omitempty"`
	Test        bool                  `json:"test,omitempty"`
}

type postcardAPIResponse struct {
	ID                   string  `json:"id"`
	URL                  string  `json:"url"`
	Carrier              string  `json:"carrier"`
	TrackingNumber       *string `json:"tracking_number"`
	ExpectedDeliveryDate string  `json:"expected_delivery_date"`
}

// CreatePostcard submits a postcard order. In sandbox mode the order is
// flagged as a test resource so no physical mail is produced.
func (c *Client) CreatePostcard(ctx context.Context, req *model.PostcardRequest) (*model.FulfillmentOrder, error) {
	if req == nil {
		return nil, apperrors.Validation("postcard request is required")
	}
	if req.Front == "" || req.Back == "" {
		return nil, apperrors.Validation("postcard front and back are required")
	}

	size := req.Size
	if size == "" {
		size = postcardSize
	}

	apiReq := postcardAPIRequest{
		To:          req.To,
		From:        req.From,
		Front:       req.Front,
		Back:        req.Back,
		Size:        size,
		Description: req.Description,
		Metadata:    req.Metadata,
		Test:        c.sandboxMode,
	}

	var resp postcardAPIResponse
	if err := c.postJSON(ctx, "/postcards", apperrors.ErrCodeFulfillment, apiReq, &resp); err != nil {
		return nil, err
	}

	return &model.FulfillmentOrder{
		ID:                   resp.ID,
		URL:                  resp.URL,
		Carrier:              resp.Carrier,
		TrackingNumber:       resp.TrackingNumber,
		ExpectedDeliveryDate: resp.ExpectedDeliveryDate,
	}, nil
}

// postJSON performs an authenticated POST and decodes the JSON response.
// Network faults and 5xx/429 responses map to transient errors; other
// non-2xx responses are permanent failures carrying a body excerpt.
func (c *Client) postJSON(ctx context.Context, path string, code apperrors.ErrorCode, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return apperrors.Wrapf(err, code, "encode lob %s request", path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrapf(err, code, "create lob %s request", path)
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Lob-Version", c.version)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return apperrors.Wrapf(ctx.Err(), apperrors.ErrCodeTimeout, "lob %s call", path)
		}
		return apperrors.TransientWrapf(err, code, "lob %s request failed", path)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			_ = cerr
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp, path, code)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrapf(err, code, "decode lob %s response", path)
	}
	return nil
}

func (c *Client) errorFromResponse(resp *http.Response, path string, code apperrors.ErrorCode) error {
	excerpt := readBodyExcerpt(resp.Body)

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return apperrors.Transientf(code, "lob %s returned %s: %s", path, resp.Status, excerpt)
	}

	return &apperrors.AppError{
		Code:    code,
		Message: fmt.Sprintf("lob %s returned %s: %s", path, resp.Status, excerpt),
	}
}

func readBodyExcerpt(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil {
		return "<unreadable body>"
	}
	return strings.TrimSpace(string(raw))
}
