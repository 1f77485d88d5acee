// ABOUTME: HTTP client for the survey upload endpoint
// ABOUTME: Posts serialized responses and image payloads as a form submission
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harperreed/fieldwork/models"
)

// DefaultUploadPath is the server route survey responses are posted to.
const DefaultUploadPath = "/app/survey/upload"

// Client posts survey responses to the upload endpoint.
type Client struct {
	BaseURL    string
	UploadPath string
	User       string
	Password   string
	ClientName string
	HTTPClient *http.Client
}

// NewClient creates an upload client with the default path and a 30s
// request timeout.
func NewClient(baseURL, user, password, clientName string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		UploadPath: DefaultUploadPath,
		User:       user,
		Password:   password,
		ClientName: clientName,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// serverResponse is the upload endpoint's reply envelope.
type serverResponse struct {
	Result string        `json:"result"`
	Errors []serverError `json:"errors,omitempty"`
}

type serverError struct {
	Code string `json:"code,omitempty"`
	Text string `json:"text,omitempty"`
}

// Upload sends one serialized survey response plus its image payloads.
// The surveys field is a JSON array holding the single item; images maps
// asset uuid to base64 payload without a data-URI prefix. Exactly one
// network call is made per invocation.
func (c *Client) Upload(ctx context.Context, campaignURN, campaignCreated string, item models.UploadItem, images map[string]string) error {
	surveysJSON, err := json.Marshal([]models.UploadItem{item})
	if err != nil {
		return fmt.Errorf("failed to encode surveys: %w", err)
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("failed to encode images: %w", err)
	}

	form := url.Values{
		"campaign_urn":                {campaignURN},
		"campaign_creation_timestamp": {campaignCreated},
		"user":                        {c.User},
		"password":                    {c.Password},
		"client":                      {c.ClientName},
		"surveys":                     {string(surveysJSON)},
		"images":                      {string(imagesJSON)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+c.UploadPath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	var body serverResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode upload response: %w", err)
	}
	if body.Result != "success" {
		if len(body.Errors) > 0 {
			return fmt.Errorf("server rejected upload: %s %s", body.Errors[0].Code, body.Errors[0].Text)
		}
		return fmt.Errorf("server rejected upload: result %q", body.Result)
	}
	return nil
}
