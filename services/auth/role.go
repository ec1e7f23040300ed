package auth

import "github.com/barnybug/homepanel/lib/keypad"

type Role int

const (
	RoleNone Role = iota
	Admin
	Guest
)

// Keys selecting a role at the "Select mode:" prompt.
const (
	AdminKey = keypad.Key0
	GuestKey = keypad.Key1
)

func (r Role) String() string {
	switch r {
	case Admin:
		return "admin"
	case Guest:
		return "guest"
	}
	return "none"
}

// Title is the role as shown on the display.
func (r Role) Title() string {
	switch r {
	case Admin:
		return "Admin"
	case Guest:
		return "Guest"
	}
	return "None"
}

// RoleForKey maps a role selection key to its role.
func RoleForKey(k keypad.Key) (Role, bool) {
	switch k {
	case AdminKey:
		return Admin, true
	case GuestKey:
		return Guest, true
	}
	return RoleNone, false
}

type Status int

const (
	Unset Status = iota
	Set
)

func (s Status) String() string {
	if s == Set {
		return "set"
	}
	return "unset"
}
