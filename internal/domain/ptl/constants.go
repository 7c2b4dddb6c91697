package ptl

const (
	FactorPerformance  = "Performance"
	FactorTrend        = "Trend"
	FactorTenure       = "Tenure"
	FactorWorkload     = "Workload"
	FactorClientHealth = "Client Health"
	FactorMedical      = "Medical Leaves (YTD)"
	FactorPermissions  = "Permissions (YTD)"
	FactorStatusNotes  = "Status Notes"

	baseRisk = 10

	// daysPerMonth is the average month length used for tenure.
	daysPerMonth = 30.44
)
