package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/pmforge/changeflow/internal/domain/entity"
)

// LogNotifier records notifications in the application log instead of
// delivering them. Used when no Lark credentials are configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyApprovers(ctx context.Context, request *entity.ChangeRequest, recipients []string, message string) error {
	n.logger.Info("Approver notification (log only)",
		zap.String("request_number", request.RequestNumber),
		zap.Strings("recipients", recipients),
		zap.String("message", message))
	return nil
}

func (n *LogNotifier) NotifyRequester(ctx context.Context, request *entity.ChangeRequest, message string) error {
	n.logger.Info("Requester notification (log only)",
		zap.String("request_number", request.RequestNumber),
		zap.String("requested_by", request.RequestedBy),
		zap.String("message", message))
	return nil
}
