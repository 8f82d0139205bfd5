package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/solorpg/chronicle/internal/engine"
	"github.com/solorpg/chronicle/internal/handlers"
	"github.com/solorpg/chronicle/pkg/chat"
	"github.com/solorpg/chronicle/pkg/memory"
)

// apiClient wraps the HTTP calls against the running API.
type apiClient struct {
	baseURL string
	client  *http.Client
}

func newAPIClient(baseURL string, client *http.Client) *apiClient {
	return &apiClient{baseURL: baseURL, client: client}
}

func (a *apiClient) healthy() bool {
	resp, err := a.client.Get(a.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return resp.StatusCode == http.StatusOK
}

// post sends a JSON body and decodes the JSON response into out.
func (a *apiClient) post(path string, body any, wantStatus int, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := a.client.Post(a.baseURL+path, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != wantStatus {
		return apiError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (a *apiClient) get(path string, out any) error {
	resp, err := a.client.Get(a.baseURL + path)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return apiError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func apiError(status int, body []byte) error {
	var errResp handlers.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("API returned status %d: %s", status, string(body))
	}
	return fmt.Errorf("%s", errResp.Error)
}

func (a *apiClient) createCampaign(req handlers.CreateCampaignRequest) (*handlers.CreateCampaignResponse, error) {
	var resp handlers.CreateCampaignResponse
	if err := a.post("/v1/campaigns", req, http.StatusCreated, &resp); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return &resp, nil
}

func (a *apiClient) sendTurn(campaignID uuid.UUID, message string) (*engine.TurnResult, error) {
	var res engine.TurnResult
	req := handlers.SendTurnRequest{TurnRequest: chat.TurnRequest{CampaignID: campaignID, Message: message}}
	if err := a.post("/v1/turns", req, http.StatusOK, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *apiClient) continueNarration(campaignID uuid.UUID) (*engine.TurnResult, error) {
	var res engine.TurnResult
	req := handlers.SendTurnRequest{TurnRequest: chat.TurnRequest{CampaignID: campaignID}}
	if err := a.post("/v1/turns/continue", req, http.StatusOK, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *apiClient) arrest(req handlers.ArrestRequest) (*engine.ArrestResult, error) {
	var res engine.ArrestResult
	if err := a.post("/v1/arrest", req, http.StatusOK, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *apiClient) campaignState(campaignID uuid.UUID) (*handlers.CampaignStateResponse, error) {
	var resp handlers.CampaignStateResponse
	if err := a.get("/v1/campaigns/"+campaignID.String()+"/state", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *apiClient) campaignMemory(campaignID uuid.UUID) (*memory.Snapshot, error) {
	var snap memory.Snapshot
	if err := a.get("/v1/memory/"+campaignID.String(), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
