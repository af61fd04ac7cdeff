package rbac

// Role names. Keep these stable; they are part of auth contracts.
const (
	RoleAgent      = "agent"
	RoleCollector  = "collector"
	RoleQAReviewer = "qa_reviewer"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

// CanOverrideDialPolicy reports whether the role may dial past a policy block
// (out-of-window or restricted account).
func CanOverrideDialPolicy(role string) bool {
	return role == RoleSupervisor || role == RoleAdmin
}
