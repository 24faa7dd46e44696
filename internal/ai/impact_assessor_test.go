package ai

import (
	"strings"
	"testing"

	"github.com/pmforge/changeflow/internal/domain/entity"
	"go.uber.org/zap"
)

func TestParseAssessment(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantCost float64
		wantErr  bool
	}{
		{
			name:     "clean JSON",
			content:  `{"total_cost_impact": 12000, "schedule_impact_days": 4, "affects_critical_path": true, "affected_work_items": ["WBS-1"], "summary": "s", "risk_notes": []}`,
			wantCost: 12000,
		},
		{
			name:     "JSON wrapped in prose",
			content:  "Here is my assessment:\n```json\n{\"total_cost_impact\": 8000, \"schedule_impact_days\": 2, \"affects_critical_path\": false, \"affected_work_items\": [], \"summary\": \"minor\", \"risk_notes\": []}\n```\nLet me know.",
			wantCost: 8000,
		},
		{
			name:     "braces inside string values",
			content:  `text {"total_cost_impact": 500, "schedule_impact_days": 0, "affects_critical_path": false, "affected_work_items": [], "summary": "uses {braces} and \"quotes\"", "risk_notes": []} trailing`,
			wantCost: 500,
		},
		{
			name:    "no JSON at all",
			content: "I cannot assess this request.",
			wantErr: true,
		},
		{
			name:    "unbalanced object",
			content: `{"total_cost_impact": 500, "summary": "cut off`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAssessment(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseAssessment() expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseAssessment() error = %v", err)
			}
			if got.TotalCostImpact != tt.wantCost {
				t.Errorf("TotalCostImpact = %v, want %v", got.TotalCostImpact, tt.wantCost)
			}
		})
	}
}

func TestBuildAssessmentPrompt(t *testing.T) {
	assessor := &ImpactAssessor{logger: zap.NewNop()}
	request := &entity.ChangeRequest{
		RequestNumber:         "CR-2026-007",
		Title:                 "Reroute chilled water line",
		Description:           "Clash with new ductwork",
		Justification:         "Coordination issue found on site",
		Priority:              entity.PriorityHigh,
		EstimatedCostImpact:   9500,
		EstimatedScheduleDays: 3,
	}

	prompt := assessor.buildAssessmentPrompt(request, "site memo: clash confirmed at level 3")

	for _, want := range []string{"CR-2026-007", "Reroute chilled water line", "9500.00", "3 days", "site memo"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.Contains(prompt, `"affects_critical_path"`) {
		t.Error("prompt missing response schema")
	}
}

func TestBuildAssessmentPrompt_NoSupportingText(t *testing.T) {
	assessor := &ImpactAssessor{logger: zap.NewNop()}
	prompt := assessor.buildAssessmentPrompt(&entity.ChangeRequest{RequestNumber: "CR-2026-001"}, "")

	if strings.Contains(prompt, "Supporting documents") {
		t.Error("prompt should omit supporting documents section when empty")
	}
}
