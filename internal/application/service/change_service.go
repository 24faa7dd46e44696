package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pmforge/changeflow/internal/application/dispatcher"
	"github.com/pmforge/changeflow/internal/application/port"
	appworkflow "github.com/pmforge/changeflow/internal/application/workflow"
	"github.com/pmforge/changeflow/internal/domain/entity"
	"github.com/pmforge/changeflow/internal/domain/event"
	domainwf "github.com/pmforge/changeflow/internal/domain/workflow"
	"go.uber.org/zap"
)

// ChangeRequestService drives change requests through the workflow engine.
// It owns the read-execute-persist cycle: load a snapshot, ask the engine,
// and apply the proposed state inside a transaction with an audit row.
type ChangeRequestService struct {
	engine       *domainwf.Engine
	requestRepo  port.ChangeRequestRepository
	approvalRepo port.ApprovalRepository
	historyRepo  port.HistoryRepository
	txManager    port.TransactionManager
	analysisRepo port.AnalysisRepository
	assessor     port.ImpactAssessor
	dispatcher   dispatcher.Dispatcher
	checker      *domainwf.ConsistencyChecker
	planner      *domainwf.EscalationPlanner
	resolver     *domainwf.ConflictResolver
	logger       *zap.Logger
}

// Option configures the service
type Option func(*ChangeRequestService)

// WithDispatcher sets the event dispatcher for emitting domain events
func WithDispatcher(d dispatcher.Dispatcher) Option {
	return func(s *ChangeRequestService) {
		s.dispatcher = d
	}
}

// WithAnalysisRepository enables impact analysis persistence
func WithAnalysisRepository(repo port.AnalysisRepository) Option {
	return func(s *ChangeRequestService) {
		s.analysisRepo = repo
	}
}

// WithAssessor enables AI-drafted impact analyses
func WithAssessor(assessor port.ImpactAssessor) Option {
	return func(s *ChangeRequestService) {
		s.assessor = assessor
	}
}

// NewChangeRequestService creates a new change request service
func NewChangeRequestService(
	engine *domainwf.Engine,
	requestRepo port.ChangeRequestRepository,
	approvalRepo port.ApprovalRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	logger *zap.Logger,
	opts ...Option,
) *ChangeRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ChangeRequestService{
		engine:       engine,
		requestRepo:  requestRepo,
		approvalRepo: approvalRepo,
		historyRepo:  historyRepo,
		txManager:    txManager,
		checker:      domainwf.NewConsistencyChecker(logger),
		planner:      domainwf.NewEscalationPlanner(logger),
		resolver:     domainwf.NewConflictResolver(logger),
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDraft persists a new change request in the initial state
func (s *ChangeRequestService) CreateDraft(ctx context.Context, request *entity.ChangeRequest) error {
	request.Status = string(domainwf.StateDraft)
	if request.Priority == "" {
		request.Priority = entity.PriorityMedium
	}
	if !entity.IsValidPriority(request.Priority) {
		return fmt.Errorf("unknown priority %q", request.Priority)
	}
	existing, err := s.requestRepo.GetByRequestNumber(ctx, request.RequestNumber)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("request number %s is already in use", request.RequestNumber)
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return fmt.Errorf("failed to create change request: %w", err)
	}
	s.logger.Info("Change request created",
		zap.Int64("request_id", request.ID),
		zap.String("requested_by", request.RequestedBy))
	return nil
}

// Get loads a change request snapshot with its approval chain attached
func (s *ChangeRequestService) Get(ctx context.Context, requestID int64) (*entity.ChangeRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load change request %d: %w", requestID, err)
	}
	approvals, err := s.approvalRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load approvals for request %d: %w", requestID, err)
	}
	request.PendingApprovals = approvals
	return request, nil
}

// ExecuteAction resolves the target state for the action from the rule
// table, runs the engine, and on success applies the proposed state and an
// audit row in one transaction. A rejected transition is a normal negative
// result, not an error.
func (s *ChangeRequestService) ExecuteAction(
	ctx context.Context,
	requestID int64,
	action domainwf.Action,
	user domainwf.User,
	metadata map[string]interface{},
) (domainwf.ExecutionResult, error) {
	request, err := s.Get(ctx, requestID)
	if err != nil {
		return domainwf.ExecutionResult{}, err
	}

	current := domainwf.State(request.Status)
	if !current.IsValid() {
		return domainwf.ExecutionResult{}, fmt.Errorf("%w: request %d has status %q",
			domainwf.ErrInvalidState, requestID, request.Status)
	}

	wctx := &domainwf.Context{
		User:     user,
		Request:  request,
		Metadata: metadata,
	}
	if s.analysisRepo != nil {
		analysis, err := s.analysisRepo.GetLatestByRequestID(ctx, requestID)
		if err != nil {
			return domainwf.ExecutionResult{}, err
		}
		wctx.ImpactAnalysis = analysis
	}

	target, ok := s.targetState(current, action, wctx)
	if !ok {
		return domainwf.ExecutionResult{
			Success:   false,
			NewStatus: current,
			Errors:    []string{fmt.Sprintf("no transition rule defined from %s via %s", current, action)},
		}, nil
	}

	result := s.engine.Execute(ctx, current, target, action, wctx)
	if !result.Success {
		return result, nil
	}

	if err := s.applyTransition(ctx, request, current, result.NewStatus, action, user, metadata); err != nil {
		return domainwf.ExecutionResult{}, err
	}

	s.emit(ctx, request, current, result.NewStatus, action, user, result.SideEffectsRun)
	return result, nil
}

// targetState picks the destination the rule table defines for (current,
// action). Distinct targets for one action from one state are not expected;
// the first registered rule wins.
func (s *ChangeRequestService) targetState(current domainwf.State, action domainwf.Action, wctx *domainwf.Context) (domainwf.State, bool) {
	for _, availability := range s.engine.AvailableActions(current, wctx) {
		if availability.Action == action {
			return availability.To, true
		}
	}
	return current, false
}

// applyTransition persists the engine's proposed state with an audit row
func (s *ChangeRequestService) applyTransition(
	ctx context.Context,
	request *entity.ChangeRequest,
	from, to domainwf.State,
	action domainwf.Action,
	user domainwf.User,
	metadata map[string]interface{},
) error {
	actionData, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal action data: %w", err)
	}

	return s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.requestRepo.UpdateStatus(ctx, request.ID, string(to)); err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}

		if err := s.recordDecision(ctx, request, action, user, metadata); err != nil {
			return err
		}

		history := &entity.ChangeHistory{
			RequestID:      request.ID,
			PreviousStatus: string(from),
			NewStatus:      string(to),
			Action:         string(action),
			ActorID:        user.ID,
			ActionData:     string(actionData),
		}
		if err := s.historyRepo.Create(ctx, history); err != nil {
			return fmt.Errorf("failed to create history: %w", err)
		}

		s.logger.Info("Status updated",
			zap.Int64("request_id", request.ID),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
			zap.String("action", action.String()),
			zap.String("actor", user.ID))
		return nil
	})
}

// recordDecision stamps the acting approver's pending approval row when the
// transition is a decision. Other actions leave the chain untouched.
func (s *ChangeRequestService) recordDecision(
	ctx context.Context,
	request *entity.ChangeRequest,
	action domainwf.Action,
	user domainwf.User,
	metadata map[string]interface{},
) error {
	var status string
	switch action {
	case domainwf.ActionApprove:
		status = entity.ApprovalStatusApproved
	case domainwf.ActionReject:
		status = entity.ApprovalStatusRejected
	default:
		return nil
	}

	comment, _ := metadata["comment"].(string)
	if comment == "" {
		comment, _ = metadata["reason"].(string)
	}

	for i := range request.PendingApprovals {
		record := &request.PendingApprovals[i]
		if record.ApproverName != user.ID || record.IsDecided() {
			continue
		}
		if err := s.approvalRepo.UpdateStatus(ctx, record.ID, status, comment); err != nil {
			return fmt.Errorf("failed to record approval decision: %w", err)
		}
		return nil
	}
	return nil
}

// AssignApprovals attaches an approval chain to the request. The chain must
// be in place before the route-approvals transition can pass validation.
func (s *ChangeRequestService) AssignApprovals(ctx context.Context, requestID int64, records []entity.ApprovalRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("at least one approval step is required")
	}
	for i := range records {
		if records[i].ApproverName == "" {
			return fmt.Errorf("approval step %d is missing an approver", i+1)
		}
		if records[i].DueDate.IsZero() {
			return fmt.Errorf("approval step %d is missing a due date", i+1)
		}
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		for i := range records {
			records[i].RequestID = request.ID
			records[i].Status = entity.ApprovalStatusPending
			if records[i].StepNumber == 0 {
				records[i].StepNumber = i + 1
			}
			if err := s.approvalRepo.Create(ctx, &records[i]); err != nil {
				return fmt.Errorf("failed to create approval step %d: %w", records[i].StepNumber, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Approval chain assigned",
		zap.Int64("request_id", request.ID),
		zap.Int("steps", len(records)))
	return nil
}

// RecordActuals stores the measured cost and schedule impact. Implementation
// cannot complete until actuals are on record.
func (s *ChangeRequestService) RecordActuals(ctx context.Context, requestID int64, costImpact float64, scheduleDays int) error {
	if costImpact < 0 {
		return fmt.Errorf("actual cost impact must not be negative")
	}
	if scheduleDays < 0 {
		return fmt.Errorf("actual schedule impact must not be negative")
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if err := s.requestRepo.UpdateActuals(ctx, request.ID, costImpact, scheduleDays); err != nil {
		return err
	}

	s.logger.Info("Actuals recorded",
		zap.Int64("request_id", request.ID),
		zap.Float64("cost_impact", costImpact),
		zap.Int("schedule_days", scheduleDays))
	return nil
}

func (s *ChangeRequestService) emit(ctx context.Context, request *entity.ChangeRequest, from, to domainwf.State, action domainwf.Action, user domainwf.User, sideEffectsRun []string) {
	if s.dispatcher == nil {
		return
	}

	eventType := event.TypeStatusChanged
	switch action {
	case domainwf.ActionSubmit:
		eventType = event.TypeRequestSubmitted
	case domainwf.ActionApprove:
		eventType = event.TypeRequestApproved
	case domainwf.ActionReject:
		eventType = event.TypeRequestRejected
	case domainwf.ActionCancel:
		eventType = event.TypeRequestCancelled
	case domainwf.ActionEscalate:
		eventType = event.TypeRequestEscalated
	}

	evt := event.NewEvent(eventType, request.ID, map[string]interface{}{
		"from":  from.String(),
		"to":    to.String(),
		"actor": user.ID,
	})
	s.dispatcher.DispatchAsync(ctx, evt)

	for _, name := range sideEffectsRun {
		if name == appworkflow.ExportRuleName {
			s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeRecordExported, request.ID, map[string]interface{}{
				"actor": user.ID,
			}))
		}
	}
}

// AvailableActions reports what the user could do with the request right now
func (s *ChangeRequestService) AvailableActions(ctx context.Context, requestID int64, user domainwf.User) ([]domainwf.ActionAvailability, error) {
	request, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	wctx := &domainwf.Context{User: user, Request: request}
	return s.engine.AvailableActions(domainwf.State(request.Status), wctx), nil
}

// Progress reports completion of the request against the happy path
func (s *ChangeRequestService) Progress(ctx context.Context, requestID int64) (domainwf.ProgressReport, error) {
	request, err := s.Get(ctx, requestID)
	if err != nil {
		return domainwf.ProgressReport{}, err
	}
	return domainwf.Progress(request), nil
}

// CheckConsistency cross-validates the request against its most recent
// impact analysis. With no stored analysis only request-level checks run.
func (s *ChangeRequestService) CheckConsistency(ctx context.Context, requestID int64) (domainwf.ConsistencyReport, error) {
	request, err := s.Get(ctx, requestID)
	if err != nil {
		return domainwf.ConsistencyReport{}, err
	}

	var analysis *entity.ImpactAnalysis
	if s.analysisRepo != nil {
		analysis, err = s.analysisRepo.GetLatestByRequestID(ctx, requestID)
		if err != nil {
			return domainwf.ConsistencyReport{}, err
		}
	}

	return s.checker.Check(request, analysis), nil
}

// AttachAnalysis persists an analyst-authored impact analysis
func (s *ChangeRequestService) AttachAnalysis(ctx context.Context, analysis *entity.ImpactAnalysis) error {
	if s.analysisRepo == nil {
		return fmt.Errorf("analysis storage is not configured")
	}
	if err := s.analysisRepo.Create(ctx, analysis); err != nil {
		return err
	}
	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeAnalysisDrafted, analysis.RequestID, map[string]interface{}{
			"prepared_by": analysis.PreparedBy,
		}))
	}
	return nil
}

// DraftAnalysis asks the AI assessor for an impact analysis draft and
// persists it. supportingText carries any extracted attachment content.
func (s *ChangeRequestService) DraftAnalysis(ctx context.Context, requestID int64, supportingText string) (*entity.ImpactAnalysis, error) {
	if s.assessor == nil {
		return nil, fmt.Errorf("AI assessor is not configured")
	}

	request, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	analysis, err := s.assessor.Assess(ctx, request, supportingText)
	if err != nil {
		return nil, fmt.Errorf("failed to draft analysis: %w", err)
	}

	if err := s.AttachAnalysis(ctx, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

// PlanEscalation derives the escalation chain for the request
func (s *ChangeRequestService) PlanEscalation(ctx context.Context, requestID int64) (domainwf.EscalationPlan, error) {
	request, err := s.Get(ctx, requestID)
	if err != nil {
		return domainwf.EscalationPlan{}, err
	}
	return s.planner.Plan(request), nil
}

// ResolveApprovals derives a single outcome from a batch of timestamped
// approval decisions
func (s *ChangeRequestService) ResolveApprovals(ctx context.Context, requestID int64, decisions []domainwf.ApprovalDecision) (domainwf.ConflictResolution, error) {
	request, err := s.Get(ctx, requestID)
	if err != nil {
		return domainwf.ConflictResolution{}, err
	}
	return s.resolver.Resolve(request, decisions), nil
}
