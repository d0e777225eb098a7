package auth

const (
	PermProfileRead        = "profile.read"
	PermBalanceRead        = "wage.balance.read"
	PermWithdraw           = "wage.withdraw"
	PermPayoutWrite        = "worker.payout.write"
	PermPasswordWrite      = "worker.password.write"
	PermWorkersRead        = "employer.workers.read"
	PermWorkersWrite       = "employer.workers.write"
	PermAttendanceWrite    = "employer.attendance.write"
	PermEmployerWrite      = "employer.profile.write"
	PermDashboardRead      = "employer.dashboard.read"
	PermSettlementsRead    = "settlements.read"
	PermSettlementsProcess = "settlements.process"
)

var DefaultPermissions = []string{
	PermProfileRead,
	PermBalanceRead,
	PermWithdraw,
	PermPayoutWrite,
	PermPasswordWrite,
	PermWorkersRead,
	PermWorkersWrite,
	PermAttendanceWrite,
	PermEmployerWrite,
	PermDashboardRead,
	PermSettlementsRead,
	PermSettlementsProcess,
}

var RolePermissions = map[string][]string{
	RoleWorker: {
		PermProfileRead,
		PermBalanceRead,
		PermWithdraw,
		PermPayoutWrite,
		PermPasswordWrite,
	},
	RoleEmployer: {
		PermProfileRead,
		PermWorkersRead,
		PermWorkersWrite,
		PermAttendanceWrite,
		PermEmployerWrite,
		PermDashboardRead,
		PermSettlementsRead,
		PermSettlementsProcess,
	},
}

func HasPermission(role, permission string) bool {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true
		}
	}
	return false
}

// RoleFor returns the single role holding permission, or "" when the
// permission is shared or unknown.
func RoleFor(permission string) string {
	owner := ""
	for role, perms := range RolePermissions {
		for _, perm := range perms {
			if perm != permission {
				continue
			}
			if owner != "" {
				return ""
			}
			owner = role
		}
	}
	return owner
}
