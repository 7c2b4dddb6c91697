package kpi

type Type string

const (
	TypeNumber     Type = "number"
	TypePercentage Type = "percentage"
)

// Definition is one weighted target inside a group. Points is the share of
// 100 awarded for fully meeting Goal.
type Definition struct {
	ID     string  `json:"id" validate:"omitempty"`
	Name   string  `json:"name" validate:"required"`
	Type   Type    `json:"type" validate:"omitempty,oneof=number percentage"`
	Goal   float64 `json:"goal" validate:"gte=0"`
	Points float64 `json:"points" validate:"gte=0"`
}

type Group struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Role string       `json:"role"`
	KPIs []Definition `json:"kpis"`
}

// Progress holds the current-week actual for one member and definition.
type Progress struct {
	ID              string  `json:"id"`
	TeamMemberID    string  `json:"teamMemberId"`
	KpiDefinitionID string  `json:"kpiDefinitionId"`
	Actual          float64 `json:"actual"`
}

func FindGroup(groups []Group, id string) (Group, bool) {
	if id == "" {
		return Group{}, false
	}
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

func (g Group) Definition(id string) (Definition, bool) {
	for _, d := range g.KPIs {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// DefinitionByName matches case-insensitively on the trimmed name.
func (g Group) DefinitionByName(name string) (Definition, bool) {
	for _, d := range g.KPIs {
		if equalFold(d.Name, name) {
			return d, true
		}
	}
	return Definition{}, false
}

func (g Group) TotalPoints() float64 {
	var total float64
	for _, d := range g.KPIs {
		total += d.Points
	}
	return total
}
