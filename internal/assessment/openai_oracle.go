package assessment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/clearbid/tenderspace/internal/platform/errors"
	"github.com/clearbid/tenderspace/internal/procurement/domain"
)

const defaultOracleTimeout = 30 * time.Second

// OpenAIOracleConfig configures the responses endpoint and HTTP behavior.
type OpenAIOracleConfig struct {
	ResponsesURL     string
	Model            string
	CredentialSecret string
	HTTPClient       *http.Client
}

type openAIOracle struct {
	cfg OpenAIOracleConfig
}

// NewOpenAIOracle builds an Oracle backed by an OpenAI-responses-style
// HTTP endpoint.
func NewOpenAIOracle(cfg OpenAIOracleConfig) Oracle {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultOracleTimeout}
	}
	if strings.TrimSpace(cfg.ResponsesURL) == "" {
		cfg.ResponsesURL = "https://api.openai.com/v1/responses"
	}
	return &openAIOracle{cfg: cfg}
}

func (o *openAIOracle) Assess(ctx context.Context, solicitation domain.Solicitation, proposal domain.Proposal) (domain.Assessment, error) {
	model := strings.TrimSpace(o.cfg.Model)
	if model == "" {
		return domain.Assessment{}, fmt.Errorf("model is required")
	}

	requestBody, err := json.Marshal(map[string]any{
		"model": model,
		"input": assessmentPrompt(solicitation, proposal),
	})
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("marshal oracle request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.ResponsesURL, bytes.NewReader(requestBody))
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Credential material is sent only as an Authorization header and is
	// never echoed in errors.
	if secret := strings.TrimSpace(o.cfg.CredentialSecret); secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}

	res, err := o.cfg.HTTPClient.Do(req)
	if err != nil {
		return domain.Assessment{}, apperrors.Wrap(apperrors.CodeOracleUnavailable, "oracle request failed", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return domain.Assessment{}, apperrors.WithMetadata(apperrors.CodeOracleUnavailable, "oracle request rejected", map[string]string{
			"status": fmt.Sprintf("%d", res.StatusCode),
			"body":   strings.TrimSpace(string(body)),
		})
	}

	var payload struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return domain.Assessment{}, apperrors.Wrap(apperrors.CodeOracleParse, "decode oracle response", err)
	}
	outputText := strings.TrimSpace(payload.OutputText)
	if outputText == "" {
		for _, item := range payload.Output {
			for _, content := range item.Content {
				if strings.TrimSpace(content.Text) != "" {
					outputText = strings.TrimSpace(content.Text)
					break
				}
			}
			if outputText != "" {
				break
			}
		}
	}
	if outputText == "" {
		return domain.Assessment{}, ErrOracleParse
	}

	return parseAssessment(outputText)
}

// parseAssessment decodes the oracle's JSON reply. Malformed output is a
// typed parse failure, never a panic.
func parseAssessment(raw string) (domain.Assessment, error) {
	var assessment domain.Assessment
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&assessment); err != nil {
		return domain.Assessment{}, apperrors.Wrap(apperrors.CodeOracleParse, "decode oracle assessment", err)
	}
	if assessment.OverallScore < 0 || assessment.OverallScore > 100 {
		return domain.Assessment{}, apperrors.WithMetadata(apperrors.CodeOracleParse, "oracle overall score out of range", map[string]string{
			"overall_score": fmt.Sprintf("%v", assessment.OverallScore),
		})
	}
	return assessment, nil
}

func assessmentPrompt(solicitation domain.Solicitation, proposal domain.Proposal) string {
	var b strings.Builder
	b.WriteString("Assess how well the proposal fits the solicitation. Reply with a single JSON object ")
	b.WriteString(`with keys requirement_match {score, explanation}, financial_value {score, explanation}, `)
	b.WriteString("strengths, weaknesses, overall_score (0-100), recommendation, summary, improvement_suggestions.\n\n")
	b.WriteString("Solicitation title: " + solicitation.Title + "\n")
	b.WriteString("Requirements:\n" + solicitation.Requirements + "\n\n")
	fmt.Fprintf(&b, "Financial offer: %.2f %s\n", proposal.FinancialOffer, solicitation.Currency)
	b.WriteString("Team:\n")
	for _, member := range proposal.Team {
		fmt.Fprintf(&b, "- %s: %s (%d documents)\n", member.Name, member.Experience, len(member.Documents))
	}
	return b.String()
}
