package workflow

import "github.com/pmforge/changeflow/internal/domain/entity"

// User identifies the caller for a single engine invocation
type User struct {
	ID          string
	Role        string
	Permissions []string
}

// HasPermission reports whether the user holds the given permission
func (u User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Context carries everything a rule may inspect for one engine call.
// It is built per call and never persisted.
type Context struct {
	User           User
	Request        *entity.ChangeRequest
	ImpactAnalysis *entity.ImpactAnalysis
	Metadata       map[string]interface{}
}
