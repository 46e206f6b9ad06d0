package rbac

type Role string
type Action string

const (
	RoleVisitor   Role = "visitor"
	RoleEditor    Role = "editor"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

const (
	ActionComment  Action = "comment"
	ActionModerate Action = "moderate"
	ActionAdmin    Action = "admin"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleModerator:
		return action == ActionComment || action == ActionModerate
	case RoleEditor:
		return action == ActionComment
	case RoleVisitor:
		return action == ActionComment
	default:
		return false
	}
}

// Privileged reports whether submissions from this role skip the pending
// queue. Evaluated once at creation time, never retroactively.
func Privileged(role Role) bool {
	return role == RoleEditor || role == RoleModerator || role == RoleAdmin
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleVisitor, RoleEditor, RoleModerator, RoleAdmin:
		return Role(role)
	default:
		return RoleVisitor
	}
}
