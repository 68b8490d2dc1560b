package domain

import (
	"strings"
)

// ModuleCategory is the closed set of external module clients. Each one has a
// fixed tax rate (see tax.RateFor).
type ModuleCategory string

const (
	ModulePharmacy  ModuleCategory = "PHARMACY"
	ModuleHospital  ModuleCategory = "HOSPITAL"
	ModuleInsurance ModuleCategory = "INSURANCE"
)

// ModuleCategories lists every module in declaration order.
var ModuleCategories = []ModuleCategory{ModulePharmacy, ModuleHospital, ModuleInsurance}

// Valid reports whether m is one of the known modules.
func (m ModuleCategory) Valid() bool {
	switch m {
	case ModulePharmacy, ModuleHospital, ModuleInsurance:
		return true
	}
	return false
}

func (m ModuleCategory) String() string { return string(m) }

// ParseModuleCategory accepts the module name case-insensitively.
func ParseModuleCategory(s string) (ModuleCategory, error) {
	m := ModuleCategory(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", Errorf(EINVALID, "module.parse", "unknown module category: %q", s)
	}
	return m, nil
}

// Role is what a principal is allowed to do. Module roles submit orders for
// their own module; administrators also read reports and manage users.
type Role string

const (
	RoleAdministrator   Role = "ADMINISTRATOR"
	RoleModuleHospital  Role = "MODULE_HOSPITAL"
	RoleModulePharmacy  Role = "MODULE_PHARMACY"
	RoleModuleInsurance Role = "MODULE_INSURANCE"
)

// Roles lists every role.
var Roles = []Role{RoleAdministrator, RoleModuleHospital, RoleModulePharmacy, RoleModuleInsurance}

func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleModuleHospital, RoleModulePharmacy, RoleModuleInsurance:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole accepts the role name case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", Errorf(EINVALID, "role.parse", "unknown role: %q", s)
	}
	return r, nil
}
