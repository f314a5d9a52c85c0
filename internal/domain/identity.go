package domain

// Role of a verified caller.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// Identity is the verified caller produced by an IdentityProvider.
type Identity struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// Profile is a teacher or student record owned by the identity system.
type Profile struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"displayName" yaml:"name"`
	AvatarToken string `json:"avatarToken,omitempty" yaml:"avatar"`
}
