package rbac

// Role names. Keep these stable; they are part of the ops API contract.
const (
	// RoleOperator may trigger syncs and read reports.
	RoleOperator = "operator"
	// RoleAdmin may do everything, including destructive resets.
	RoleAdmin = "admin"
)

func IsAdmin(role string) bool { return role == RoleAdmin }
