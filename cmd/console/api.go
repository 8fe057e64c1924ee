package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// BalanceInfo mirrors the API's balance response.
type BalanceInfo struct {
	CharacterID    string  `json:"character_id"`
	Balance        int     `json:"balance"`
	LifetimeEarned int     `json:"lifetime_earned"`
	LifetimeSpent  int     `json:"lifetime_spent"`
	SessionEarned  int     `json:"session_earned"`
	SessionSpent   int     `json:"session_spent"`
	Pressure       float64 `json:"pressure"`
	PressureBand   string  `json:"pressure_band"`
}

// EarnReceipt mirrors the API's earn response.
type EarnReceipt struct {
	Base     int `json:"base"`
	Bonus    int `json:"bonus"`
	Credited int `json:"credited"`
	Balance  int `json:"balance"`
}

// SpendOutcome mirrors the API's spend response.
type SpendOutcome struct {
	Success   bool `json:"success"`
	Cost      int  `json:"cost"`
	Shortfall int  `json:"shortfall,omitempty"`
	Balance   int  `json:"balance"`
}

// OpportunityInfo mirrors one entry of the API's opportunities response.
type OpportunityInfo struct {
	Trigger     string `json:"trigger"`
	Description string `json:"description"`
	Reward      int    `json:"potential_reward"`
	Difficulty  string `json:"difficulty"`
	Rarity      string `json:"rarity"`
}

type opportunitiesPayload struct {
	Opportunities []OpportunityInfo `json:"opportunities"`
	Suggestions   []string          `json:"suggestions"`
}

func decodeOrError(body []byte, statusCode int, v interface{}) error {
	if statusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", statusCode, string(body))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func postJSON(client *http.Client, url string, payload interface{}, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	return decodeOrError(body, resp.StatusCode, out)
}

func getBalance(client *http.Client, baseURL, characterID string) (*BalanceInfo, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/points/%s", baseURL, characterID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var info BalanceInfo
	if err := decodeOrError(body, resp.StatusCode, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func earnPoints(client *http.Client, baseURL, characterID, trigger, description string) (*EarnReceipt, error) {
	var receipt EarnReceipt
	err := postJSON(client, baseURL+"/v1/points/earn", map[string]string{
		"character_id": characterID,
		"trigger":      trigger,
		"description":  description,
	}, &receipt)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func spendPoints(client *http.Client, baseURL, characterID, activity, description string) (*SpendOutcome, error) {
	var outcome SpendOutcome
	err := postJSON(client, baseURL+"/v1/points/spend", map[string]string{
		"character_id": characterID,
		"activity":     activity,
		"description":  description,
	}, &outcome)
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

func getOpportunities(client *http.Client, baseURL, characterID string) (*opportunitiesPayload, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/points/%s/opportunities", baseURL, characterID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var payload opportunitiesPayload
	if err := decodeOrError(body, resp.StatusCode, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// requestNarration posts an action and returns the request ID the server
// assigned to the queued narration.
func requestNarration(client *http.Client, baseURL, characterID, action string) (string, error) {
	jsonData, err := json.Marshal(map[string]string{
		"character_id": characterID,
		"action":       action,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(baseURL+"/v1/narrate", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusAccepted {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return "", fmt.Errorf("%s", errorResp.Error)
	}

	var accepted struct {
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(body, &accepted); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return accepted.RequestID, nil
}

// awaitNarration follows the character's SSE stream until the narration for
// requestID completes or fails. The caller's timeout bounds the wait.
func awaitNarration(baseURL, characterID, requestID string, timeout time.Duration) (string, error) {
	streamClient := &http.Client{Timeout: timeout}

	resp, err := streamClient.Get(fmt.Sprintf("%s/v1/events/characters/%s", baseURL, characterID))
	if err != nil {
		return "", fmt.Errorf("failed to open event stream: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("event stream returned status %d", resp.StatusCode)
	}

	var eventType string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if eventType != "narration.completed" && eventType != "narration.failed" {
				continue
			}

			var data struct {
				Narration string `json:"narration"`
				Error     string `json:"error"`
			}
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &data); err != nil {
				continue
			}

			// Completion events carry no request filter in data, so match
			// conservatively: the stream is per character and the worker
			// serializes narration per character.
			if eventType == "narration.failed" {
				return "", fmt.Errorf("narration failed: %s", data.Error)
			}
			return data.Narration, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("event stream ended: %w", err)
	}
	return "", fmt.Errorf("event stream closed before narration %s completed", requestID)
}
