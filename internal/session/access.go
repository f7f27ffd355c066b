package session

import "github.com/Ammar-alrfee/fit-manager/internal/models"

// Area is a screen or API surface gated by role.
type Area string

const (
	AreaMembers    Area = "members"
	AreaAttendance Area = "attendance"
	AreaReports    Area = "reports"
)

// areasByRole lists, in display order, the areas each role may reach.
var areasByRole = map[models.Role][]Area{
	models.RoleAdmin:    {AreaMembers, AreaAttendance, AreaReports},
	models.RoleEmployee: {AreaAttendance},
}

// CanAccess reports whether role may reach area. Unknown roles reach nothing.
func CanAccess(role models.Role, area Area) bool {
	for _, a := range areasByRole[role] {
		if a == area {
			return true
		}
	}
	return false
}

// Areas returns the areas role may reach, in display order.
func Areas(role models.Role) []Area {
	areas := areasByRole[role]
	out := make([]Area, len(areas))
	copy(out, areas)
	return out
}
