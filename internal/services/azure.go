package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// AzureClient is an HTTP client for the Azure speech-to-text REST endpoint.
type AzureClient struct {
	endpoint string
	key      string
	language string
	client   *http.Client
}

// NewAzureClient creates a new AzureClient. An empty endpoint makes the
// client return a deterministic stub transcription, which keeps local
// development working without Azure credentials.
func NewAzureClient(endpoint, key, language string) *AzureClient {
	if language == "" {
		language = "en-US"
	}
	return &AzureClient{
		endpoint: endpoint,
		key:      key,
		language: language,
		client:   http.DefaultClient,
	}
}

// Transcribe sends the audio to Azure and returns the recognized text.
func (c *AzureClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if c.endpoint == "" {
		return fmt.Sprintf("[Azure-%s] dummy azure transcription", c.language), nil
	}

	url := fmt.Sprintf("%s/speech/recognition/conversation/cognitiveservices/v1?language=%s", c.endpoint, c.language)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("azure transcription failed: status code %d", resp.StatusCode)
	}

	var result struct {
		DisplayText string `json:"DisplayText"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	return result.DisplayText, nil
}
