package models

import (
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyBytes(t *testing.T) {
	assert.Equal(t, byte(0), RoleBanned.Byte())
	assert.Equal(t, byte(10), RoleStandard.Byte())
	assert.Equal(t, byte(100), RoleSenior.Byte())
	assert.Equal(t, byte(255), RoleAdmin.Byte())

	assert.Equal(t, byte(20), VisibilityPrivate.Byte())
	assert.Equal(t, byte(5), InnApply.Byte())
	assert.Equal(t, byte(30), InnClosed.Byte())
	assert.Equal(t, byte(40), PostHiddenByMod.Byte())

	for _, b := range []byte{0, 10, 100, 255} {
		r, err := RoleFromByte(b)
		require.NoError(t, err)
		assert.Equal(t, b, r.Byte())
	}
	for _, b := range []byte{0, 5, 10, 20, 30} {
		it, err := InnTypeFromByte(b)
		require.NoError(t, err)
		assert.Equal(t, b, it.Byte())
	}
	for _, b := range []byte{1, 2, 3, 4, 5, 7, 10} {
		r, err := InnRoleFromByte(b)
		require.NoError(t, err)
		assert.Equal(t, b, r.Byte())
	}
	assert.False(t, InnRolePending.Member())
	assert.False(t, InnRoleDeny.Member())
	assert.True(t, InnRoleLimited.Member())
	assert.True(t, InnRoleSuper.Member())
}

func TestUnknownBytesAreRejected(t *testing.T) {
	_, err := RoleFromByte(1)
	assert.ErrorIs(t, err, ErrUnknownEnum)
	_, err = VisibilityFromByte(15)
	assert.ErrorIs(t, err, ErrUnknownEnum)
	_, err = InnTypeFromByte(7)
	assert.ErrorIs(t, err, ErrUnknownEnum)
	_, err = PostStatusFromByte(50)
	assert.ErrorIs(t, err, ErrUnknownEnum)
	_, err = InnRoleFromByte(6)
	assert.ErrorIs(t, err, ErrUnknownEnum)

	raw, err := cbor.Marshal(byte(7))
	require.NoError(t, err)
	var it InnType
	assert.ErrorIs(t, it.UnmarshalCBOR(raw), ErrUnknownEnum)

	_, err = Role(9).MarshalCBOR()
	assert.ErrorIs(t, err, ErrUnknownEnum)
	assert.Panics(t, func() { Visibility(9).Byte() })
}

func TestEnumsPersistAsLegacyBytes(t *testing.T) {
	raw, err := cbor.Marshal(RoleAdmin)
	require.NoError(t, err)
	var b byte
	require.NoError(t, cbor.Unmarshal(raw, &b))
	assert.Equal(t, byte(255), b)

	in := Post{PID: 1, UID: 2, IID: 3, Title: "t", Tags: []string{"go"}, Status: PostLockedByMod}
	raw, err = cbor.Marshal(in)
	require.NoError(t, err)
	var out Post
	require.NoError(t, cbor.Unmarshal(raw, &out))
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("post mismatch (-want +got):\n%s", diff)
	}
}

func TestPermissions(t *testing.T) {
	assert.False(t, RoleBanned.CanPost())
	assert.True(t, RoleStandard.CanPost())
	assert.False(t, RoleStandard.CanCreateInn())
	assert.True(t, RoleAdmin.CanCreateInn())

	assert.True(t, InnApply.OpenAccess())
	assert.False(t, InnPrivate.OpenAccess())
	assert.True(t, InnClosed.Hidden())
	assert.True(t, PostLockedByUser.Locked())
	assert.False(t, PostHiddenByUser.Locked())
}

func TestJSONUsesNamesAndHidesSecrets(t *testing.T) {
	u := User{UID: 1, Username: "ann", PasswordHash: "secret", Role: RoleSenior}
	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"role":"senior"`)
	assert.NotContains(t, string(raw), "secret")
}
