package externalcall

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ImportClient triggers the import collaborator, which downloads an external
// dataset and loads it into the local row store. The call is synchronous:
// it returns once the collaborator reports the table as loaded.
type ImportClient interface {
	ImportToLocalStore(externalID string, targetTable string) (bool, error)
}

type importClientImpl struct {
	BaseURL    string
	HTTPClient *http.Client
	APIKey     string
}

type importRequest struct {
	ExternalID  string `json:"external_id"`
	TargetTable string `json:"target_table"`
}

type importResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewImportClient creates an import client against the catalog service.
// Imports can move large datasets, so the timeout is generous.
func NewImportClient(baseURL string, apiKey string) ImportClient {
	return &importClientImpl{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
		APIKey: apiKey,
	}
}

func (c *importClientImpl) ImportToLocalStore(externalID string, targetTable string) (bool, error) {
	payload, err := json.Marshal(importRequest{ExternalID: externalID, TargetTable: targetTable})
	if err != nil {
		return false, err
	}

	requestURL := fmt.Sprintf("%s/api/v1/datasets/import", c.BaseURL)
	req, err := http.NewRequest(http.MethodPost, requestURL, bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("external_id", externalID).Msg("Import request failed")
		return false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return false, fmt.Errorf("import returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed importResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false, fmt.Errorf("decoding import response: %w", err)
	}
	if !parsed.Success && parsed.Error != "" {
		return false, fmt.Errorf("import failed: %s", parsed.Error)
	}
	return parsed.Success, nil
}
