package team

type Client struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Status            string   `json:"status"`
	AssignedMemberIDs []string `json:"assignedMemberIds"`
	Notes             string   `json:"notes,omitempty"`
}

type Task struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ClientID   string `json:"clientId,omitempty"`
	AssigneeID string `json:"assigneeId,omitempty"`
	Status     string `json:"status"`
	DueDate    string `json:"dueDate,omitempty"`
}

type LeaveLogEntry struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Date string `json:"date"`
	Note string `json:"note,omitempty"`
}

// TeamMember carries PerformanceScore as a cached value derived from the
// KPI catalog and ledger; it is rewritten whenever either changes.
type TeamMember struct {
	ID                       string          `json:"id"`
	Name                     string          `json:"name"`
	Role                     string          `json:"role"`
	Email                    string          `json:"email,omitempty"`
	HireDate                 string          `json:"hireDate,omitempty"`
	KpiGroupID               *string         `json:"kpiGroupId"`
	PerformanceScore         int             `json:"performanceScore"`
	PreviousPerformanceScore int             `json:"previousPerformanceScore"`
	PreviousRank             int             `json:"previousRank,omitempty"`
	RankHistory              []int           `json:"rankHistory"`
	HomeOfficeNotes          string          `json:"homeOfficeNotes,omitempty"`
	LeaveLog                 []LeaveLogEntry `json:"leaveLog,omitempty"`
	PtlReport                *PtlReport      `json:"ptlReport,omitempty"`
}

func (m TeamMember) GroupID() string {
	if m.KpiGroupID == nil {
		return ""
	}
	return *m.KpiGroupID
}

type CoachingSession struct {
	ID           string   `json:"id"`
	TeamMemberID string   `json:"teamMemberId"`
	Date         string   `json:"date"`
	Notes        string   `json:"notes"`
	ActionItems  []string `json:"actionItems,omitempty"`
	Plan         string   `json:"plan,omitempty"`
}

func FindMember(members []TeamMember, id string) (TeamMember, bool) {
	for _, m := range members {
		if m.ID == id {
			return m, true
		}
	}
	return TeamMember{}, false
}

// PushRank appends rank and keeps the trailing RankHistoryLimit entries.
func PushRank(history []int, rank int) []int {
	out := append(append([]int(nil), history...), rank)
	if len(out) > RankHistoryLimit {
		out = out[len(out)-RankHistoryLimit:]
	}
	return out
}
