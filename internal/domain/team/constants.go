package team

const (
	ClientStatusHealthy  = "Healthy"
	ClientStatusAtRisk   = "At Risk"
	ClientStatusCritical = "Critical"

	TaskStatusToDo       = "To Do"
	TaskStatusInProgress = "In Progress"
	TaskStatusDone       = "Done"
	TaskStatusOverdue    = "Overdue"

	LeaveTypeMedical    = "Medical"
	LeaveTypePermission = "Permission"
	LeaveTypeVacation   = "Vacation"

	// RankHistoryLimit is the number of trailing weekly ranks kept per member.
	RankHistoryLimit = 10
)

var (
	ClientStatuses = []string{ClientStatusHealthy, ClientStatusAtRisk, ClientStatusCritical}
	TaskStatuses   = []string{TaskStatusToDo, TaskStatusInProgress, TaskStatusDone, TaskStatusOverdue}
	LeaveTypes     = []string{LeaveTypeMedical, LeaveTypePermission, LeaveTypeVacation}
)
