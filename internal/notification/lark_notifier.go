package notification

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/pmforge/changeflow/internal/domain/entity"
)

// LarkConfig holds Lark client configuration
type LarkConfig struct {
	AppID     string
	AppSecret string
}

// LarkNotifier delivers workflow notifications over Lark IM. Recipients are
// addressed by email; the requester address comes from the request itself.
type LarkNotifier struct {
	client *lark.Client
	logger *zap.Logger
}

// NewLarkNotifier creates a new Lark notifier
func NewLarkNotifier(cfg LarkConfig, logger *zap.Logger) *LarkNotifier {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)

	return &LarkNotifier{
		client: client,
		logger: logger,
	}
}

// NotifyApprovers sends the message to each recipient. Delivery stops at the
// first failure so the workflow engine sees it and aborts the transition.
func (n *LarkNotifier) NotifyApprovers(ctx context.Context, request *entity.ChangeRequest, recipients []string, message string) error {
	for _, recipient := range recipients {
		if err := n.send(ctx, recipient, request, message); err != nil {
			return fmt.Errorf("failed to notify %s: %w", recipient, err)
		}
	}
	return nil
}

// NotifyRequester informs the requester of a lifecycle outcome
func (n *LarkNotifier) NotifyRequester(ctx context.Context, request *entity.ChangeRequest, message string) error {
	if err := n.send(ctx, request.RequestedBy, request, message); err != nil {
		return fmt.Errorf("failed to notify requester: %w", err)
	}
	return nil
}

func (n *LarkNotifier) send(ctx context.Context, receiveID string, request *entity.ChangeRequest, message string) error {
	content, err := json.Marshal(map[string]string{
		"text": fmt.Sprintf("[%s] %s\n%s", request.RequestNumber, request.Title, message),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message content: %w", err)
	}

	req := larkIm.NewCreateMessageReqBuilder().
		ReceiveIdType("email").
		Body(larkIm.NewCreateMessageReqBodyBuilder().
			ReceiveId(receiveID).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := n.client.Im.Message.Create(ctx, req)
	if err != nil {
		n.logger.Error("Failed to send message",
			zap.String("receive_id", receiveID),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		n.logger.Error("API returned failure",
			zap.String("receive_id", receiveID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}

	n.logger.Info("Notification sent",
		zap.String("message_id", messageID),
		zap.String("receive_id", receiveID),
		zap.String("request_number", request.RequestNumber))

	return nil
}
