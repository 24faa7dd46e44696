package ai

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pmforge/changeflow/internal/domain/entity"
)

// ImpactAssessor drafts impact analyses for change requests with an LLM.
// The draft is a starting point for the analyst, never an approval decision.
type ImpactAssessor struct {
	client *openai.Client
	model  string
	temp   float32
	logger *zap.Logger
}

// assessmentResponse is the JSON shape the model is asked to produce
type assessmentResponse struct {
	TotalCostImpact     float64  `json:"total_cost_impact"`
	ScheduleImpactDays  int      `json:"schedule_impact_days"`
	AffectsCriticalPath bool     `json:"affects_critical_path"`
	AffectedWorkItems   []string `json:"affected_work_items"`
	Summary             string   `json:"summary"`
	RiskNotes           []string `json:"risk_notes"`
}

// NewImpactAssessor creates a new impact assessor
func NewImpactAssessor(apiKey, model string, temperature float32, logger *zap.Logger) *ImpactAssessor {
	return &ImpactAssessor{
		client: openai.NewClient(apiKey),
		model:  model,
		temp:   temperature,
		logger: logger,
	}
}

// Assess drafts an impact analysis from the request fields and any text
// extracted from supporting documents
func (a *ImpactAssessor) Assess(ctx context.Context, request *entity.ChangeRequest, supportingText string) (*entity.ImpactAnalysis, error) {
	prompt := a.buildAssessmentPrompt(request, supportingText)

	a.logger.Debug("Sending assessment request to OpenAI",
		zap.Int64("request_id", request.ID),
		zap.String("request_number", request.RequestNumber))

	// Rely on prompt engineering for JSON output rather than the response
	// format option, which misbehaves with some models
	req := openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: a.temp,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a project controls analyst. Assess the cost and schedule impact of engineering change requests. Always respond with valid JSON only.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		a.logger.Error("OpenAI API call failed", zap.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content

	parsed, err := parseAssessment(content)
	if err != nil {
		a.logger.Error("Failed to parse OpenAI response",
			zap.Error(err),
			zap.String("content", content))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	a.logger.Info("Impact assessment drafted",
		zap.Int64("request_id", request.ID),
		zap.Float64("total_cost_impact", parsed.TotalCostImpact),
		zap.Int("schedule_impact_days", parsed.ScheduleImpactDays))

	return &entity.ImpactAnalysis{
		RequestID:           request.ID,
		TotalCostImpact:     parsed.TotalCostImpact,
		ScheduleImpactDays:  parsed.ScheduleImpactDays,
		AffectsCriticalPath: parsed.AffectsCriticalPath,
		AffectedWorkItems:   parsed.AffectedWorkItems,
		Summary:             parsed.Summary,
		RiskNotes:           parsed.RiskNotes,
		PreparedBy:          "ai-assessor",
	}, nil
}

// buildAssessmentPrompt builds the assessment prompt
func (a *ImpactAssessor) buildAssessmentPrompt(request *entity.ChangeRequest, supportingText string) string {
	prompt := fmt.Sprintf(`Assess the project impact of this change request:

**Change Request:**
- Number: %s
- Title: %s
- Description: %s
- Justification: %s
- Priority: %s
- Requester's cost estimate: %.2f
- Requester's schedule estimate: %d days`,
		request.RequestNumber,
		request.Title,
		request.Description,
		request.Justification,
		request.Priority,
		request.EstimatedCostImpact,
		request.EstimatedScheduleDays,
	)

	if supportingText != "" {
		prompt += fmt.Sprintf("\n\n**Supporting documents:**\n%s", supportingText)
	}

	prompt += `

Respond with ONLY a valid JSON object (no markdown, no explanation) with this exact structure:
{
  "total_cost_impact": number,
  "schedule_impact_days": integer,
  "affects_critical_path": boolean,
  "affected_work_items": [string array of work breakdown items],
  "summary": string,
  "risk_notes": [string array of risks]
}`

	return prompt
}

// parseAssessment unmarshals the model output, falling back to extracting
// the first balanced JSON object when the model wraps it in prose
func parseAssessment(content string) (*assessmentResponse, error) {
	var result assessmentResponse
	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return &result, nil
	}

	start := findJSONStart(content)
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in response")
	}
	end := findJSONEnd(content, start)
	if end <= start {
		return nil, fmt.Errorf("unbalanced JSON object in response")
	}

	if err := json.Unmarshal([]byte(content[start:end]), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// findJSONStart finds the first '{' in a string
func findJSONStart(content string) int {
	for i := 0; i < len(content); i++ {
		if content[i] == '{' {
			return i
		}
	}
	return -1
}

// findJSONEnd finds the end of the JSON object starting at a given position
// by counting braces outside string literals
func findJSONEnd(content string, start int) int {
	if start < 0 || start >= len(content) || content[start] != '{' {
		return -1
	}

	braceCount := 0
	inString := false
	escapeNext := false

	for i := start; i < len(content); i++ {
		char := content[i]

		if escapeNext {
			escapeNext = false
			continue
		}

		if char == '\\' {
			escapeNext = true
			continue
		}

		if char == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if char == '{' {
			braceCount++
		} else if char == '}' {
			braceCount--
			if braceCount == 0 {
				return i + 1
			}
		}
	}

	return -1
}
