package team

type Impact string

const (
	ImpactPositive Impact = "Positive"
	ImpactNeutral  Impact = "Neutral"
	ImpactNegative Impact = "Negative"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

type PtlFactor struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Impact      Impact `json:"impact"`
	Description string `json:"description"`
}

// PtlReport is the turnover-risk assessment of one member. It is stored on
// the member only when explicitly saved.
type PtlReport struct {
	RiskScore  int         `json:"riskScore"`
	RiskLevel  RiskLevel   `json:"riskLevel"`
	Factors    []PtlFactor `json:"factors"`
	Summary    string      `json:"summary"`
	Mitigation []string    `json:"mitigation,omitempty"`
}
