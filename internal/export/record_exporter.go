package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/pmforge/changeflow/internal/domain/entity"
)

// RecordExporter writes the change record workbook produced when a request
// reaches closure. One file per request, named by request number.
type RecordExporter struct {
	outputDir   string
	projectName string
	logger      *zap.Logger
}

// NewRecordExporter creates a new record exporter
func NewRecordExporter(outputDir, projectName string, logger *zap.Logger) *RecordExporter {
	return &RecordExporter{
		outputDir:   outputDir,
		projectName: projectName,
		logger:      logger,
	}
}

// Export writes the change record for a closed request and returns the file path
func (e *RecordExporter) Export(ctx context.Context, request *entity.ChangeRequest) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	e.setCell(f, sheet, "A1", "Change Record")
	e.setCell(f, sheet, "B2", e.projectName)
	e.setCell(f, sheet, "B3", request.RequestNumber)
	e.setCell(f, sheet, "B4", request.Title)
	e.setCell(f, sheet, "B5", request.Priority)
	e.setCell(f, sheet, "B6", request.RequestedBy)
	e.setCell(f, sheet, "B7", request.Department)
	e.setCell(f, sheet, "B8", request.SubmissionTime.Format("2006-01-02"))

	e.setCell(f, sheet, "A10", "Estimated cost impact")
	e.setCell(f, sheet, "B10", fmt.Sprintf("%.2f", request.EstimatedCostImpact))
	e.setCell(f, sheet, "A11", "Actual cost impact")
	e.setCell(f, sheet, "B11", fmt.Sprintf("%.2f", request.ActualCostImpact))
	e.setCell(f, sheet, "A12", "Estimated schedule impact (days)")
	e.setCell(f, sheet, "B12", fmt.Sprintf("%d", request.EstimatedScheduleDays))
	e.setCell(f, sheet, "A13", "Actual schedule impact (days)")
	e.setCell(f, sheet, "B13", fmt.Sprintf("%d", request.ActualScheduleDays))

	row := 15
	e.setCell(f, sheet, fmt.Sprintf("A%d", row), "Approvals")
	for _, approval := range request.PendingApprovals {
		row++
		e.setCell(f, sheet, fmt.Sprintf("A%d", row), approval.ApproverName)
		e.setCell(f, sheet, fmt.Sprintf("B%d", row), approval.ApproverRole)
		e.setCell(f, sheet, fmt.Sprintf("C%d", row), approval.Status)
		if approval.DecidedAt != nil {
			e.setCell(f, sheet, fmt.Sprintf("D%d", row), approval.DecidedAt.Format("2006-01-02"))
		}
	}

	if request.ApprovalTime != nil {
		row += 2
		e.setCell(f, sheet, fmt.Sprintf("A%d", row), "Approved on")
		e.setCell(f, sheet, fmt.Sprintf("B%d", row), request.ApprovalTime.Format("2006-01-02"))
	}

	row += 2
	e.setCell(f, sheet, fmt.Sprintf("A%d", row), "Exported")
	e.setCell(f, sheet, fmt.Sprintf("B%d", row), time.Now().Format("2006-01-02 15:04:05"))

	outputPath := filepath.Join(e.outputDir, fmt.Sprintf("%s.xlsx", request.RequestNumber))
	if err := f.SaveAs(outputPath); err != nil {
		e.logger.Error("Failed to save change record", zap.String("path", outputPath), zap.Error(err))
		return "", fmt.Errorf("failed to save change record: %w", err)
	}

	e.logger.Info("Change record exported",
		zap.String("request_number", request.RequestNumber),
		zap.String("path", outputPath))

	return outputPath, nil
}

// setCell sets a cell value, logging rather than failing on bad references
func (e *RecordExporter) setCell(f *excelize.File, sheet, cell, value string) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		e.logger.Warn("Failed to set cell",
			zap.String("cell", cell),
			zap.Error(err))
	}
}
