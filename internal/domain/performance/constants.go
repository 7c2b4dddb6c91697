package performance

// DateLayout is the ISO calendar date format used for weekOf keys.
const DateLayout = "2006-01-02"

const (
	BandExcellent = "excellent"
	BandGood      = "good"
	BandFair      = "fair"
	BandLow       = "low"
)
