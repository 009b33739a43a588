// Package authz provides authorization for the grievance API with
// separated concerns:
// - Role gate: coarse permission matrix checked first, before any scope
// - Scoper: SQL-backed ownership/assignment/department scope checks
// - Redaction: anonymity filtering applied at serialization time
package authz

import (
	"github.com/campusgrid/grievance/db"
)

// Action represents an operation a principal may attempt.
type Action string

const (
	ActionCreateComplaint         Action = "complaint:create"
	ActionViewOwnComplaints       Action = "complaint:view_own"
	ActionViewDeptComplaints      Action = "complaint:view_department"
	ActionViewAllComplaints       Action = "complaint:view_all"
	ActionUpdateOwnComplaint      Action = "complaint:update_own"
	ActionDeleteOwnComplaint      Action = "complaint:delete_own"
	ActionAssignSupervisor        Action = "complaint:assign_supervisor"
	ActionChangeStatus            Action = "complaint:change_status"
	ActionViewComplaintLogs       Action = "statuslog:view_complaint"
	ActionViewOwnActivity         Action = "statuslog:view_own"
	ActionViewUserActivity        Action = "statuslog:view_user"
	ActionViewActivityByDate      Action = "statuslog:view_by_date"
	ActionManageDepartments       Action = "department:manage"
	ActionAssignDepartmentHead    Action = "department:assign_head"
	ActionListDepartments         Action = "department:list"
	ActionViewSupervisors         Action = "principal:view_supervisors"
	ActionViewNotifications       Action = "notification:view_own"
	ActionViewAssignmentsOverview Action = "complaint:view_assignments"
)

// RolePermissions defines what actions each role can perform. The role
// gate is checked before any scope or ownership rule: a role missing an
// action here is denied regardless of scope.
var RolePermissions = map[db.Role]map[Action]bool{
	db.RoleUser: {
		ActionCreateComplaint:    true,
		ActionViewOwnComplaints:  true,
		ActionUpdateOwnComplaint: true,
		ActionDeleteOwnComplaint: true,
		ActionViewComplaintLogs:  true,
		ActionViewOwnActivity:    true,
		ActionListDepartments:    true,
		ActionViewNotifications:  true,
	},
	db.RoleSupervisor: {
		ActionViewDeptComplaints: true,
		ActionChangeStatus:       true,
		ActionViewComplaintLogs:  true,
		ActionViewOwnActivity:    true,
		ActionViewActivityByDate: true,
		ActionListDepartments:    true,
		ActionViewNotifications:  true,
	},
	db.RoleAdmin: {
		ActionViewDeptComplaints:      true,
		ActionViewAllComplaints:       true,
		ActionAssignSupervisor:        true,
		ActionChangeStatus:            true,
		ActionViewComplaintLogs:       true,
		ActionViewOwnActivity:         true,
		ActionViewUserActivity:        true,
		ActionViewActivityByDate:      true,
		ActionManageDepartments:       true,
		ActionAssignDepartmentHead:    true,
		ActionListDepartments:         true,
		ActionViewSupervisors:         true,
		ActionViewNotifications:       true,
		ActionViewAssignmentsOverview: true,
	},
}

// mainAdminOnly lists the admin actions that additionally require the
// 'main' role type. Department admins fail these even though the role
// gate admits admins.
var mainAdminOnly = map[Action]bool{
	ActionViewAllComplaints:       true,
	ActionManageDepartments:       true,
	ActionAssignDepartmentHead:    true,
	ActionAssignSupervisor:        true,
	ActionViewSupervisors:         true,
	ActionViewAssignmentsOverview: true,
}

// HasPermission checks if a role has permission to perform an action.
func HasPermission(permissions map[db.Role]map[Action]bool, role db.Role, action Action) bool {
	if rolePerms, ok := permissions[role]; ok {
		if allowed, ok := rolePerms[action]; ok {
			return allowed
		}
	}
	return false
}

// Can reports whether the principal passes the role gate for action.
// This is the first authorization axis only; scope checks come after.
func Can(p *db.Principal, action Action) bool {
	if p == nil {
		return false
	}
	if !HasPermission(RolePermissions, p.Role, action) {
		return false
	}
	if mainAdminOnly[action] && p.Role == db.RoleAdmin && !p.IsMainAdmin() {
		return false
	}
	return true
}
