// Manual smoke test for the OpenAI connection. Drafts an impact analysis
// for a synthetic change request and prints the result.
//
// Usage: go run ./cmd/test-gpt-connection
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/pmforge/changeflow/internal/ai"
	"github.com/pmforge/changeflow/internal/config"
	"github.com/pmforge/changeflow/internal/domain/entity"
)

func main() {
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.OpenAI.APIKey == "" {
		log.Fatal("No OpenAI key configured (set OPENAI_API_KEY)")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	assessor := ai.NewImpactAssessor(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Temperature, logger)

	request := &entity.ChangeRequest{
		ID:                    1,
		RequestNumber:         "CR-0000-000",
		Title:                 "Reroute chilled water line around new ductwork",
		Description:           "Clash detected between CHW-2 and the supply duct at level 3",
		Justification:         "Coordination issue found during BIM review",
		Priority:              entity.PriorityHigh,
		EstimatedCostImpact:   9500,
		EstimatedScheduleDays: 3,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OpenAI.Timeout)
	defer cancel()

	analysis, err := assessor.Assess(ctx, request, "")
	if err != nil {
		log.Fatalf("Assessment failed: %v", err)
	}

	out, _ := json.MarshalIndent(analysis, "", "  ")
	fmt.Println(string(out))
}
