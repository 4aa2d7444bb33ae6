// Package gemini is a small REST client for the Generative Language API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	defaultPollInterval = 8 * time.Second
	maxErrorBody        = 4096
)

var ErrMissingAPIKey = errors.New("gemini: API key is not configured")

// RemoteError is a non-2xx answer from the API.
type RemoteError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini API error %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini API error %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
}

func NewClient(apiKey, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       httpClient,
		pollInterval: defaultPollInterval,
	}
}

// SetPollInterval changes how often a long-running video operation is checked.
func (c *Client) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.pollInterval = d
	}
}

func (c *Client) GenerateContent(ctx context.Context, model string, req *GenerateRequest) (*GenerateResponse, error) {
	var resp GenerateResponse
	if err := c.do(ctx, http.MethodPost, "/models/"+model+":generateContent", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateVideo starts a video generation and blocks until the operation finishes
// or ctx is done. It returns the URI of the first generated sample.
func (c *Client) GenerateVideo(ctx context.Context, model, prompt, aspectRatio string) (string, error) {
	body := videoRequest{
		Instances: []videoInstance{{Prompt: prompt}},
		Parameters: videoParameters{
			AspectRatio: aspectRatio,
			Resolution:  "720p",
			SampleCount: 1,
		},
	}

	var op operation
	if err := c.do(ctx, http.MethodPost, "/models/"+model+":predictLongRunning", body, &op); err != nil {
		return "", err
	}
	if op.Name == "" && !op.Done {
		return "", fmt.Errorf("gemini: video operation has no name")
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for !op.Done {
		logrus.WithField("operation", op.Name).Debug("Waiting for video generation")
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		name := op.Name
		op = operation{}
		if err := c.do(ctx, http.MethodGet, "/"+strings.TrimLeft(name, "/"), nil, &op); err != nil {
			return "", err
		}
		if op.Name == "" {
			op.Name = name
		}
	}

	if op.Error != nil {
		return "", &RemoteError{StatusCode: op.Error.Code, Status: op.Error.Status, Message: op.Error.Message}
	}
	uri := op.videoURI()
	if uri == "" {
		return "", fmt.Errorf("gemini: video operation %s finished without a sample", op.Name)
	}
	return uri, nil
}

// Download fetches a generated file. The API key is appended to the URI.
func (c *Client) Download(ctx context.Context, uri string) ([]byte, string, error) {
	if c.apiKey == "" {
		return nil, "", ErrMissingAPIKey
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, "", fmt.Errorf("gemini: bad download uri: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, "", decodeError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("gemini: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	logrus.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("Gemini request")

	if resp.StatusCode/100 != 2 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gemini: decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	remote := &RemoteError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}

	var envelope struct {
		Error apiError `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
		remote.Message = envelope.Error.Message
		remote.Status = envelope.Error.Status
	}
	if remote.Message == "" {
		remote.Message = http.StatusText(resp.StatusCode)
	}
	return remote
}
