package config

// Application defaults for the sales KPI system
const (
	// Server
	DefaultPort = 8080

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// File Paths (relative to the base directory)
	DefaultInputFile  = "Dataset/Amazon Sale Report.csv"
	DefaultOutputFile = "aggregated_sales.json"
	DefaultLogsDir    = "logs"

	// Remote storage
	DefaultContainer = "sales-data"

	// Pipeline
	DefaultRecentWindowDays = 30
	DefaultSchedule         = "0 2 * * *"
)

// DefaultDateLayouts returns the date layouts tried, in order, when parsing the Date column.
// The Amazon seller export writes dates as MM-DD-YY.
func DefaultDateLayouts() []string {
	return []string{
		"01-02-06",
		"2006-01-02",
		"01-02-2006",
		"01/02/2006",
		"01/02/06",
		"1/2/2006",
		"1/2/06",
		"1-2-06",
		"2006/01/02",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z07:00",
		"02 Jan 2006",
		"Jan 2, 2006",
	}
}
