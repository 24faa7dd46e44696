package workflow

import (
	"math"

	"github.com/pmforge/changeflow/internal/domain/entity"
)

// ProgressReport projects a request's current state onto the linear
// reference ordering of happy-path states
type ProgressReport struct {
	CurrentStep        State   `json:"current_step"`
	CompletedSteps     []State `json:"completed_steps"`
	NextSteps          []State `json:"next_steps"`
	ProgressPercentage int     `json:"progress_percentage"`
}

// ReferenceOrdering returns the happy-path ordering used for progress
// computation. The returned slice is a copy.
func ReferenceOrdering() []State {
	return append([]State(nil), referenceOrdering...)
}

// Progress computes completion for the request's current state. A state
// outside the reference ordering (rejected, cancelled) reports zero
// progress with the full ordering still ahead; that asymmetry is intended.
func Progress(request *entity.ChangeRequest) ProgressReport {
	current := State(request.Status)
	index := -1
	for i, s := range referenceOrdering {
		if s == current {
			index = i
			break
		}
	}

	report := ProgressReport{
		CurrentStep:    current,
		CompletedSteps: []State{},
		NextSteps:      []State{},
	}

	if index < 0 {
		report.NextSteps = ReferenceOrdering()
		return report
	}

	report.CompletedSteps = append(report.CompletedSteps, referenceOrdering[:index]...)
	report.NextSteps = append(report.NextSteps, referenceOrdering[index+1:]...)
	report.ProgressPercentage = int(math.Round(float64(index) / float64(len(referenceOrdering)-1) * 100))
	return report
}
