// Package permissions enumerates the coarse permission strings the
// organization module consults. The configured PermissionOptions can
// override the defaults per deployment; these constants are the
// canonical names used in policy files and seeders.
package permissions

const (
	ResourceOrganization = "organization"

	OrganizationCreate         = "organization.create"
	OrganizationView           = "organization.view"
	OrganizationUpdate         = "organization.update"
	OrganizationDelete         = "organization.delete"
	OrganizationAssignManagers = "organization.assign_managers"
)

// All lists every permission the module defines, in a stable order.
func All() []string {
	return []string{
		OrganizationView,
		OrganizationCreate,
		OrganizationUpdate,
		OrganizationDelete,
		OrganizationAssignManagers,
	}
}
