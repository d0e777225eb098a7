package wage

const (
	DefaultMaxPercentage = 40
	MinMaxPercentage     = 10
	MaxMaxPercentage     = 100

	DefaultPaydayDay = 1
	// Paydays past the 28th are pulled back so every month has one.
	MaxPaydayDay = 28

	DefaultMinAmount = 100
	DefaultMaxAmount = 10000

	MaxShiftHours = 24
	MinHourlyWage = 1

	LedgerStatusActive  = "active"
	LedgerStatusSettled = "settled"

	WithdrawalStatusPending    = "pending"
	WithdrawalStatusProcessing = "processing"
	WithdrawalStatusCompleted  = "completed"
	WithdrawalStatusFailed     = "failed"

	AttendanceStatusPresent = "present"

	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)
