package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/omondijeff/errorlytic/internal/config"
	"github.com/omondijeff/errorlytic/internal/domain"
)

const chatCompletionsEndpoint = "https://api.openai.com/v1/chat/completions"

const providerOpenAI = "openai"

var assessSystemPrompt = "You are an experienced automotive diagnostic technician. " +
	"Given a list of OBD-II fault codes and vehicle details, give a short overall assessment " +
	"of the vehicle's condition and the likely root causes. Be concise and practical."

// OpenAIService talks to the OpenAI chat completions API over plain HTTP.
// Every call is a single bounded attempt; retries are the caller's problem.
type OpenAIService struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

func NewOpenAIService(cfg config.Config) *OpenAIService {
	return &OpenAIService{
		apiKey:   cfg.OpenAIAPIKey,
		model:    cfg.OpenAIModel,
		endpoint: chatCompletionsEndpoint,
		httpClient: &http.Client{
			Timeout: cfg.EnrichTimeout,
		},
	}
}

func (s *OpenAIService) Provider() string {
	return providerOpenAI
}

func (s *OpenAIService) Assess(ctx context.Context, faults []domain.FaultEntry, vehicle domain.VehicleInfo) (string, error) {
	var sb strings.Builder
	if vehicle.VIN != "" {
		fmt.Fprintf(&sb, "VIN: %s\n", vehicle.VIN)
	}
	if vehicle.Mileage > 0 {
		fmt.Fprintf(&sb, "Mileage: %d km\n", vehicle.Mileage)
	}
	sb.WriteString("Fault codes:\n")
	for _, fault := range faults {
		fmt.Fprintf(&sb, "- %s: %s (%s, %s)\n", fault.Code, fault.Description, fault.Severity, fault.Category)
	}

	return s.complete(ctx, assessSystemPrompt, sb.String())
}

func (s *OpenAIService) Explain(ctx context.Context, faultCode string) (string, error) {
	prompt := "Explain automotive fault code " + faultCode + " in plain language for a vehicle owner. Two sentences maximum."
	return s.complete(ctx, "You are an automotive diagnostic assistant.", prompt)
}

func (s *OpenAIService) Troubleshoot(ctx context.Context, faultCode string) (string, error) {
	prompt := "List the most common troubleshooting steps for automotive fault code " + faultCode + ", in order of likelihood."
	return s.complete(ctx, "You are an automotive diagnostic assistant.", prompt)
}

func (s *OpenAIService) complete(ctx context.Context, system, user string) (string, error) {
	if err := s.ensureAPIKey(); err != nil {
		return "", err
	}

	payload := map[string]any{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": 0.2,
	}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode completion payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, buf)
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", s.decodeAPIError(resp)
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", errors.New("no completion returned")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// do issues the request. The deadline comes from the caller's context and
// the client timeout, both of which cover the body read, so nothing here
// may cancel before the response is consumed.
func (s *OpenAIService) do(req *http.Request) (*http.Response, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	return resp, nil
}

func (s *OpenAIService) decodeAPIError(resp *http.Response) error {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewBuffer(body))

	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("openai api error: status %d type %s message %s", resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
	}

	return fmt.Errorf("openai api error: status %d body %s", resp.StatusCode, string(body))
}

func (s *OpenAIService) ensureAPIKey() error {
	if strings.TrimSpace(s.apiKey) == "" {
		return errors.New("openai api key is not configured")
	}
	return nil
}
