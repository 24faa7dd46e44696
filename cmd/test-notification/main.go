// Manual smoke test for Lark IM delivery. Sends one message through the
// configured notifier to the given email address.
//
// Usage: go run ./cmd/test-notification someone@example.com
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/pmforge/changeflow/internal/config"
	"github.com/pmforge/changeflow/internal/domain/entity"
	"github.com/pmforge/changeflow/internal/notification"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: test-notification <recipient-email>")
		os.Exit(1)
	}
	recipient := os.Args[1]

	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Lark.AppID == "" {
		log.Fatal("No Lark credentials configured (set LARK_APP_ID and LARK_APP_SECRET)")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	notifier := notification.NewLarkNotifier(notification.LarkConfig{
		AppID:     cfg.Lark.AppID,
		AppSecret: cfg.Lark.AppSecret,
	}, logger)

	request := &entity.ChangeRequest{
		RequestNumber: "CR-0000-000",
		Title:         "Delivery smoke test",
		RequestedBy:   recipient,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Lark.APITimeout)
	defer cancel()

	if err := notifier.NotifyRequester(ctx, request,
		fmt.Sprintf("Test message sent at %s", time.Now().Format(time.RFC3339))); err != nil {
		log.Fatalf("Delivery failed: %v", err)
	}

	fmt.Println("Message delivered")
}
