package auth

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleViewer  = "viewer"
)

const (
	PermWorkspaceRead    = "workspace.read"
	PermWorkspaceWrite   = "workspace.write"
	PermPerformanceClose = "performance.close_week"
	PermAIUse            = "ai.use"
	PermDataExport       = "data.export"
	PermDataImport       = "data.import"
	PermReportsRead      = "reports.read"
	PermAuditRead        = "audit.read"
)

var Roles = []string{RoleAdmin, RoleManager, RoleViewer}

var RolePermissions = map[string][]string{
	RoleAdmin: {
		PermWorkspaceRead,
		PermWorkspaceWrite,
		PermPerformanceClose,
		PermAIUse,
		PermDataExport,
		PermDataImport,
		PermReportsRead,
		PermAuditRead,
	},
	RoleManager: {
		PermWorkspaceRead,
		PermWorkspaceWrite,
		PermPerformanceClose,
		PermAIUse,
		PermDataExport,
		PermReportsRead,
		PermAuditRead,
	},
	RoleViewer: {
		PermWorkspaceRead,
		PermReportsRead,
	},
}

func HasPermission(role, permission string) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}
