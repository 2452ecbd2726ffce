// Package policy implements the role-based access rules for tracked entities.
//
// Authorize and ListScope are pure functions over an actor snapshot and a
// resource snapshot: no I/O, no clock, no globals. The same inputs always
// produce the same decision, which is what makes the rules testable as a
// table. Preconditions on the entity state (such as "already converted") are
// not access decisions and are handled by the services, not here.
package policy

import "fmt"

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin  Role = "admin"
	RolePastor Role = "pastor"
	RoleLeader Role = "leader"
	RoleWorker Role = "worker"
)

// ParseRole validates a role string against the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RolePastor, RoleLeader, RoleWorker:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePastor, RoleLeader, RoleWorker:
		return true
	}
	return false
}

// Kind identifies which tracked entity family a rule applies to.
type Kind string

const (
	KindPotential Kind = "potential"
	KindDisciple  Kind = "disciple"
	KindWorker    Kind = "worker"
)

// Action is the operation being attempted on a resource.
type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionConvert Action = "convert"
)

// writes reports whether the action mutates the resource.
func (a Action) writes() bool {
	return a != ActionRead
}

// Actor is the snapshot of the requesting user the rules evaluate against.
type Actor struct {
	ID       int64
	Role     Role
	Location string
}

// Resource is the snapshot of the target entity the rules evaluate against.
// For create actions LeaderID holds the leader the new record would be
// assigned to.
type Resource struct {
	LeaderID int64
	Location string
}

// DenyReason distinguishes why access was refused.
type DenyReason string

const (
	DenyNone          DenyReason = ""
	DenyNotOwner      DenyReason = "not_owner"
	DenyWrongLocation DenyReason = "wrong_location"
	DenyRoleForbidden DenyReason = "role_forbidden"
)

// Decision is the result of an Authorize call.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision            { return Decision{Allowed: true} }
func deny(r DenyReason) Decision { return Decision{Reason: r} }

// Authorize decides whether actor may perform action on a resource of the
// given kind. It is deterministic and side-effect free.
//
// Ownership always grants: an actor acting on a resource whose leader_id is
// their own user id is allowed regardless of role. Beyond that:
//
//   - admin: everything.
//   - pastor: Worker resources in the pastor's location; reads on Potentials
//     and Disciples anywhere; writes on Potentials/Disciples only when owner.
//   - leader: own Potentials/Disciples; Workers under self (including
//     creating new Workers assigned to self).
//   - worker: own Potentials/Disciples; no access to Worker resources.
func Authorize(actor Actor, action Action, kind Kind, res Resource) Decision {
	if actor.Role == RoleAdmin {
		return allow()
	}

	// Ownership grants regardless of role.
	if res.LeaderID == actor.ID {
		return allow()
	}

	switch kind {
	case KindPotential, KindDisciple:
		switch actor.Role {
		case RolePastor:
			if !action.writes() {
				return allow()
			}
			return deny(DenyNotOwner)
		case RoleLeader, RoleWorker:
			return deny(DenyNotOwner)
		}

	case KindWorker:
		switch actor.Role {
		case RolePastor:
			if res.Location == actor.Location {
				return allow()
			}
			return deny(DenyWrongLocation)
		case RoleLeader:
			// Leaders reach Workers only through ownership, handled above.
			return deny(DenyNotOwner)
		case RoleWorker:
			return deny(DenyRoleForbidden)
		}
	}

	return deny(DenyRoleForbidden)
}

// Scope is the row-visibility predicate a role gets on list queries.
// Exactly one of the three shapes applies: unrestricted, filtered by
// leader_id, or filtered by location. Denied means the role may not list the
// kind at all.
type Scope struct {
	Unrestricted bool
	LeaderID     *int64
	Location     *string
	Denied       bool
}

// ListScope returns the predicate to apply when actor lists resources of kind.
func ListScope(actor Actor, kind Kind) Scope {
	if actor.Role == RoleAdmin {
		return Scope{Unrestricted: true}
	}

	switch kind {
	case KindPotential, KindDisciple:
		if actor.Role == RolePastor {
			return Scope{Unrestricted: true}
		}
		id := actor.ID
		return Scope{LeaderID: &id}

	case KindWorker:
		switch actor.Role {
		case RolePastor:
			loc := actor.Location
			return Scope{Location: &loc}
		case RoleLeader:
			id := actor.ID
			return Scope{LeaderID: &id}
		}
		return Scope{Denied: true}
	}

	return Scope{Denied: true}
}
