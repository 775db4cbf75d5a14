package organization

// Type enumerates the hierarchy levels an organization can occupy.
// The recognized set is configurable; these are the defaults.
type Type string

const (
	TypeCompany     Type = "company"
	TypeBranch      Type = "branch"
	TypeDepartment  Type = "department"
	TypeDivision    Type = "division"
	TypeSubDivision Type = "sub_division"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// RoleManager is the join table role granting secondary management
// rights over an organization.
const RoleManager = "manager"

func DefaultTypes() []Type {
	return []Type{TypeCompany, TypeBranch, TypeDepartment, TypeDivision, TypeSubDivision}
}

func DefaultStatuses() []Status {
	return []Status{StatusActive, StatusInactive}
}
