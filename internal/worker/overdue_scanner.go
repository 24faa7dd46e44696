package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pmforge/changeflow/internal/application/port"
	"github.com/pmforge/changeflow/internal/domain/entity"
)

// ApprovalSource is the approval persistence surface the scanner needs
type ApprovalSource interface {
	ListOverduePending(ctx context.Context, asOf time.Time, limit int) ([]entity.ApprovalRecord, error)
	MarkOverdue(ctx context.Context, id int64) error
}

// RequestSource loads the request an approval belongs to
type RequestSource interface {
	GetByID(ctx context.Context, id int64) (*entity.ChangeRequest, error)
}

// OverdueScanner periodically finds pending approvals past their due date,
// marks them overdue, and reminds the approver. It is the safety net for
// approvals nobody acted on.
type OverdueScanner struct {
	approvals ApprovalSource
	requests  RequestSource
	notifier  port.Notifier
	logger    *zap.Logger

	pollInterval time.Duration
	batchSize    int

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
}

// NewOverdueScanner creates a new overdue scanner
func NewOverdueScanner(
	approvals ApprovalSource,
	requests RequestSource,
	notifier port.Notifier,
	logger *zap.Logger,
) *OverdueScanner {
	return &OverdueScanner{
		approvals:    approvals,
		requests:     requests,
		notifier:     notifier,
		logger:       logger,
		pollInterval: time.Minute,
		batchSize:    50,
	}
}

// SetPollInterval overrides the scan interval
func (s *OverdueScanner) SetPollInterval(interval time.Duration) {
	s.pollInterval = interval
}

// Start starts the scanner
func (s *OverdueScanner) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("overdue scanner is already running")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.isRunning = true

	s.logger.Info("OverdueScanner started",
		zap.Duration("poll_interval", s.pollInterval),
		zap.Int("batch_size", s.batchSize))

	go s.scanLoop(ctx)

	return nil
}

// Stop stops the scanner
func (s *OverdueScanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.isRunning = false
	s.cancel()

	s.logger.Info("OverdueScanner stopped")
}

func (s *OverdueScanner) scanLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	// Scan immediately on start
	s.scanOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scanOnce(ctx)
		}
	}
}

// scanOnce processes one batch of overdue approvals. Failures on single
// records are logged and skipped so one bad row cannot stall the scan.
func (s *OverdueScanner) scanOnce(ctx context.Context) {
	records, err := s.approvals.ListOverduePending(ctx, time.Now(), s.batchSize)
	if err != nil {
		s.logger.Error("Failed to scan for overdue approvals", zap.Error(err))
		return
	}

	for _, record := range records {
		if err := s.escalateRecord(ctx, record); err != nil {
			s.logger.Error("Failed to escalate overdue approval",
				zap.Int64("approval_id", record.ID),
				zap.Error(err))
		}
	}

	if len(records) > 0 {
		s.logger.Info("Overdue approvals processed", zap.Int("count", len(records)))
	}
}

func (s *OverdueScanner) escalateRecord(ctx context.Context, record entity.ApprovalRecord) error {
	request, err := s.requests.GetByID(ctx, record.RequestID)
	if err != nil {
		return err
	}

	if err := s.approvals.MarkOverdue(ctx, record.ID); err != nil {
		return err
	}

	message := fmt.Sprintf("Approval step %d is overdue (due %s). Please act on the request.",
		record.StepNumber, record.DueDate.Format("2006-01-02"))

	return s.notifier.NotifyApprovers(ctx, request, []string{record.ApproverName}, message)
}
