package model

import (
	"encoding/json"
)

type Role struct {
	Name string
	Team Team
}

var (
	R_CIVILIAN = Role{Name: "CIVILIAN", Team: T_CIVILIAN}
	R_IMPOSTER = Role{Name: "IMPOSTER", Team: T_IMPOSTER}
	R_JESTER   = Role{Name: "JESTER", Team: T_JESTER}
	R_SHERIFF  = Role{Name: "SHERIFF", Team: T_CIVILIAN}
	R_NONE     = Role{Name: "NONE", Team: T_NONE}
)

type Team string

const (
	T_CIVILIAN Team = "CIVILIAN"
	T_IMPOSTER Team = "IMPOSTER"
	T_JESTER   Team = "JESTER"
	T_NONE     Team = "NONE"
)

func TeamFromString(s string) Team {
	switch s {
	case "CIVILIAN":
		return T_CIVILIAN
	case "IMPOSTER":
		return T_IMPOSTER
	case "JESTER":
		return T_JESTER
	}
	return T_NONE
}

func (r Role) String() string {
	return r.Name
}

// KnowsWord reports whether a player holding this role is shown the secret word.
func (r Role) KnowsWord() bool {
	return r != R_IMPOSTER && r != R_NONE
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = RoleFromString(s)
	return nil
}

func RoleFromString(s string) Role {
	switch s {
	case "CIVILIAN":
		return R_CIVILIAN
	case "IMPOSTER":
		return R_IMPOSTER
	case "JESTER":
		return R_JESTER
	case "SHERIFF":
		return R_SHERIFF
	}
	return R_NONE
}
