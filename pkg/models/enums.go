package models

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ErrUnknownEnum is returned when a stored byte maps to no enum member.
var ErrUnknownEnum = errors.New("unknown enum value")

// enumTable maps the in-memory enum ordinal to the byte persisted by older
// deployments. Values are stored as those bytes, never as the ordinal.
type enumTable struct {
	kind  string
	bytes []byte
	names []string
}

func (t enumTable) valid(ord uint8) bool { return int(ord) < len(t.bytes) }

func (t enumTable) toByte(ord uint8) (byte, error) {
	if !t.valid(ord) {
		return 0, fmt.Errorf("%w: %s ordinal %d", ErrUnknownEnum, t.kind, ord)
	}
	return t.bytes[ord], nil
}

func (t enumTable) fromByte(b byte) (uint8, error) {
	for i, v := range t.bytes {
		if v == b {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %s byte %d", ErrUnknownEnum, t.kind, b)
}

func (t enumTable) name(ord uint8) string {
	if !t.valid(ord) {
		return fmt.Sprintf("%s(%d)", t.kind, ord)
	}
	return t.names[ord]
}

func (t enumTable) marshal(ord uint8) ([]byte, error) {
	b, err := t.toByte(ord)
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(b)
}

func (t enumTable) unmarshal(data []byte) (uint8, error) {
	var b byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return 0, fmt.Errorf("%s: %w", t.kind, err)
	}
	return t.fromByte(b)
}

// Role gates what a user may do site-wide.
type Role uint8

const (
	RoleBanned Role = iota
	RoleStandard
	RoleSenior
	RoleAdmin
)

var roles = enumTable{
	kind:  "role",
	bytes: []byte{0, 10, 100, 255},
	names: []string{"banned", "standard", "senior", "admin"},
}

func RoleFromByte(b byte) (Role, error) {
	ord, err := roles.fromByte(b)
	return Role(ord), err
}

// Byte returns the persisted byte. It panics on a value outside the constants.
func (r Role) Byte() byte {
	b, err := roles.toByte(uint8(r))
	if err != nil {
		panic(err)
	}
	return b
}

func (r Role) Valid() bool { return roles.valid(uint8(r)) }
func (r Role) String() string { return roles.name(uint8(r)) }
func (r Role) CanPost() bool { return r >= RoleStandard && r.Valid() }
func (r Role) CanCreateInn() bool { return r >= RoleSenior && r.Valid() }

func (r Role) MarshalCBOR() ([]byte, error) { return roles.marshal(uint8(r)) }

func (r *Role) UnmarshalCBOR(data []byte) error {
	ord, err := roles.unmarshal(data)
	if err != nil {
		return err
	}
	*r = Role(ord)
	return nil
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Visibility is who may see a solo.
type Visibility uint8

const (
	VisibilityPublic Visibility = iota
	VisibilityFollowing
	VisibilityPrivate
)

var visibilities = enumTable{
	kind:  "visibility",
	bytes: []byte{0, 10, 20},
	names: []string{"public", "following", "private"},
}

func VisibilityFromByte(b byte) (Visibility, error) {
	ord, err := visibilities.fromByte(b)
	return Visibility(ord), err
}

func (v Visibility) Byte() byte {
	b, err := visibilities.toByte(uint8(v))
	if err != nil {
		panic(err)
	}
	return b
}

func (v Visibility) Valid() bool { return visibilities.valid(uint8(v)) }
func (v Visibility) String() string { return visibilities.name(uint8(v)) }

func (v Visibility) MarshalCBOR() ([]byte, error) { return visibilities.marshal(uint8(v)) }

func (v *Visibility) UnmarshalCBOR(data []byte) error {
	ord, err := visibilities.unmarshal(data)
	if err != nil {
		return err
	}
	*v = Visibility(ord)
	return nil
}

func (v Visibility) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// InnType controls who can join and read an inn. Its byte also travels with
// post index entries as the visibility of the post.
type InnType uint8

const (
	InnPublic InnType = iota
	InnApply
	InnPrivate
	InnHidden
	InnClosed
)

var innTypes = enumTable{
	kind:  "inn_type",
	bytes: []byte{0, 5, 10, 20, 30},
	names: []string{"public", "apply", "private", "hidden", "closed"},
}

func InnTypeFromByte(b byte) (InnType, error) {
	ord, err := innTypes.fromByte(b)
	return InnType(ord), err
}

func (t InnType) Byte() byte {
	b, err := innTypes.toByte(uint8(t))
	if err != nil {
		panic(err)
	}
	return b
}

func (t InnType) Valid() bool { return innTypes.valid(uint8(t)) }
func (t InnType) String() string { return innTypes.name(uint8(t)) }

// OpenAccess reports whether anyone may read the inn without joining.
func (t InnType) OpenAccess() bool { return t == InnPublic || t == InnApply }

// Hidden inns stay off public listings and the global timeline.
func (t InnType) Hidden() bool { return t == InnHidden || t == InnClosed }

func (t InnType) MarshalCBOR() ([]byte, error) { return innTypes.marshal(uint8(t)) }

func (t *InnType) UnmarshalCBOR(data []byte) error {
	ord, err := innTypes.unmarshal(data)
	if err != nil {
		return err
	}
	*t = InnType(ord)
	return nil
}

func (t InnType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

type PostStatus uint8

const (
	PostNormal PostStatus = iota
	PostLockedByUser
	PostHiddenByUser
	PostLockedByMod
	PostHiddenByMod
)

var postStatuses = enumTable{
	kind:  "post_status",
	bytes: []byte{0, 10, 20, 30, 40},
	names: []string{"normal", "locked_by_user", "hidden_by_user", "locked_by_mod", "hidden_by_mod"},
}

func PostStatusFromByte(b byte) (PostStatus, error) {
	ord, err := postStatuses.fromByte(b)
	return PostStatus(ord), err
}

func (s PostStatus) Byte() byte {
	b, err := postStatuses.toByte(uint8(s))
	if err != nil {
		panic(err)
	}
	return b
}

func (s PostStatus) Valid() bool { return postStatuses.valid(uint8(s)) }
func (s PostStatus) String() string { return postStatuses.name(uint8(s)) }

// Locked posts take no new comments.
func (s PostStatus) Locked() bool { return s == PostLockedByUser || s == PostLockedByMod }

func (s PostStatus) MarshalCBOR() ([]byte, error) { return postStatuses.marshal(uint8(s)) }

func (s *PostStatus) UnmarshalCBOR(data []byte) error {
	ord, err := postStatuses.unmarshal(data)
	if err != nil {
		return err
	}
	*s = PostStatus(ord)
	return nil
}

func (s PostStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// InnRole is a user's standing inside one inn. It is stored as the raw
// byte value of inn_users entries.
type InnRole uint8

const (
	InnRolePending InnRole = iota
	InnRoleDeny
	InnRoleLimited
	InnRoleIntern
	InnRoleFellow
	InnRoleMod
	InnRoleSuper
)

var innRoles = enumTable{
	kind:  "inn_role",
	bytes: []byte{1, 2, 3, 4, 5, 7, 10},
	names: []string{"pending", "deny", "limited", "intern", "fellow", "mod", "super"},
}

func InnRoleFromByte(b byte) (InnRole, error) {
	ord, err := innRoles.fromByte(b)
	return InnRole(ord), err
}

func (r InnRole) Byte() byte {
	b, err := innRoles.toByte(uint8(r))
	if err != nil {
		panic(err)
	}
	return b
}

func (r InnRole) Valid() bool { return innRoles.valid(uint8(r)) }
func (r InnRole) String() string { return innRoles.name(uint8(r)) }

// Member reports whether the role lists the inn among the user's inns.
func (r InnRole) Member() bool { return r >= InnRoleLimited && r.Valid() }

func (r InnRole) MarshalText() ([]byte, error) { return []byte(r.String()), nil }
