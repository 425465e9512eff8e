package auth

import (
	"fmt"
	"sort"
	"strings"
)

// Role is the closed set of roles a user may hold.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleSales Role = "sales"
	RoleKanit Role = "kanit"
	RolePIC   Role = "pic"
)

var allRoles = []Role{RoleAdmin, RoleSales, RoleKanit, RolePIC}

func AllRoles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range allRoles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Capability names one permitted action.
type Capability string

const (
	CreateCustomer Capability = "create-customer"
	ReadCustomer   Capability = "read-customer"
	UpdateCustomer Capability = "update-customer"
	DeleteCustomer Capability = "delete-customer"

	CreateVenue Capability = "create-venue"
	ReadVenue   Capability = "read-venue"
	UpdateVenue Capability = "update-venue"
	DeleteVenue Capability = "delete-venue"

	CreateOrder Capability = "create-order"
	ReadOrder   Capability = "read-order"
	UpdateOrder Capability = "update-order"
	DeleteOrder Capability = "delete-order"

	CreateSchedule Capability = "create-schedule"
	ReadSchedule   Capability = "read-schedule"
	DeleteSchedule Capability = "delete-schedule"

	CreateBeo Capability = "create-beo"
	ReadBeo   Capability = "read-beo"
	UpdateBeo Capability = "update-beo"
	DeleteBeo Capability = "delete-beo"

	ReadBeoPIC Capability = "read-beo-pic"
	AcceptBeo  Capability = "accept-beo"

	CreateDepartment Capability = "create-department"
	ReadDepartment   Capability = "read-department"
	UpdateDepartment Capability = "update-department"
	DeleteDepartment Capability = "delete-department"

	CreatePackage Capability = "create-package"
	ReadPackage   Capability = "read-package"
	UpdatePackage Capability = "update-package"
	DeletePackage Capability = "delete-package"

	CreateUser Capability = "create-user"
	ReadUser   Capability = "read-user"
	UpdateUser Capability = "update-user"

	ReadCalendar Capability = "read-calendar"
	ReadReport   Capability = "read-report"
)

func crud(prefix string) []Capability {
	return []Capability{
		Capability("create-" + prefix),
		Capability("read-" + prefix),
		Capability("update-" + prefix),
		Capability("delete-" + prefix),
	}
}

func join(groups ...[]Capability) []Capability {
	var out []Capability
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var roleCapabilities = map[Role][]Capability{
	RoleAdmin: join(
		crud("customer"), crud("venue"), crud("order"), crud("beo"),
		crud("department"), crud("package"),
		[]Capability{CreateSchedule, ReadSchedule, DeleteSchedule},
		[]Capability{CreateUser, ReadUser, UpdateUser},
		[]Capability{AcceptBeo, ReadBeoPIC, ReadCalendar, ReadReport},
	),
	RoleSales: join(
		crud("customer"), crud("order"), crud("beo"),
		[]Capability{CreateSchedule, ReadSchedule, DeleteSchedule},
		[]Capability{ReadVenue, ReadDepartment, ReadPackage, ReadCalendar},
	),
	RoleKanit: {
		ReadOrder, ReadBeo, ReadSchedule, AcceptBeo,
		ReadCustomer, ReadVenue, ReadCalendar, ReadReport,
	},
	RolePIC: {ReadBeoPIC, ReadCalendar},
}

// CapabilitySet is the union of capabilities across a user's roles.
type CapabilitySet map[Capability]struct{}

// Resolve collects the capabilities granted by roles. Unknown roles grant nothing.
func Resolve(roles []Role) CapabilitySet {
	set := CapabilitySet{}
	for _, r := range roles {
		for _, c := range roleCapabilities[r] {
			set[c] = struct{}{}
		}
	}
	return set
}

func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

func (s CapabilitySet) List() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}
