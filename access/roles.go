package access

// Role is the privilege level a user holds within a tenant. Higher values
// outrank lower ones; comparisons rely on this ordering.
//
//	Docs: docs/access.md
type Role uint8

const (
	// RoleNone is the zero value: no role resolved. It satisfies no gate.
	RoleNone Role = iota

	// RoleShareholder can view its own holdings and documents.
	RoleShareholder

	// RoleTenantStaff can operate the tenant's day-to-day records.
	RoleTenantStaff

	// RoleTenantAdmin can manage the tenant, its members, and its settings.
	RoleTenantAdmin

	// RolePlatformAdmin outranks every tenant-scoped role on every tenant.
	RolePlatformAdmin
)

var roleNames = map[Role]string{
	RoleNone:          "none",
	RoleShareholder:   "shareholder",
	RoleTenantStaff:   "tenant_staff",
	RoleTenantAdmin:   "tenant_admin",
	RolePlatformAdmin: "platform_admin",
}

var rolesByName = map[string]Role{
	"shareholder":    RoleShareholder,
	"tenant_staff":   RoleTenantStaff,
	"tenant_admin":   RoleTenantAdmin,
	"platform_admin": RolePlatformAdmin,
}

// ParseRole maps a wire-format role name to a [Role]. Returns false for
// unknown names, including "none" and the empty string.
func ParseRole(name string) (Role, bool) {
	r, ok := rolesByName[name]
	return r, ok
}

// String returns the wire-format name of the role. Unknown values render as
// "none".
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "none"
}

// Valid reports whether r is one of the defined roles (RoleNone excluded).
func (r Role) Valid() bool {
	return r >= RoleShareholder && r <= RolePlatformAdmin
}

// AtLeast reports whether r holds at least the privilege of want. RoleNone
// never satisfies, and nothing satisfies a want of RoleNone.
func (r Role) AtLeast(want Role) bool {
	if r == RoleNone || want == RoleNone {
		return false
	}
	return r >= want
}

// Allowed is the route-gate predicate: it grants when current holds at least
// the privilege of any role in required. An empty required set denies, as
// does RoleNone (deny by default; callers render their fallback, not an
// error).
func Allowed(required []Role, current Role) bool {
	if current == RoleNone {
		return false
	}
	for _, want := range required {
		if current.AtLeast(want) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the role carries tenant-administration privilege.
func IsAdmin(r Role) bool {
	return r.AtLeast(RoleTenantAdmin)
}

// IsStaff reports whether the role carries tenant-operations privilege.
// Every admin is staff.
func IsStaff(r Role) bool {
	return r.AtLeast(RoleTenantStaff)
}

// IsPlatformAdmin reports whether the role is the platform-wide operator role.
func IsPlatformAdmin(r Role) bool {
	return r == RolePlatformAdmin
}
