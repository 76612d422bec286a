package registry

import (
	"testing"
	"time"

	"forumdb/pkg/models"
	"forumdb/pkg/store/db"
	"forumdb/pkg/store/keys"
	"forumdb/pkg/store/pagination"
	"forumdb/pkg/store/records"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayouts(t *testing.T) {
	tag, err := keys.Tag("golang", 4)
	require.NoError(t, err)

	cases := []struct {
		name  string
		r     Renderer
		key   []byte
		value []byte
		want  Row
	}{
		{"counter", Layout{StringKey, U32Value}, []byte("posts_count"), keys.EncodeU32(12), Row{Key: "posts_count", Value: uint32(12)}},
		{"pair", Layout{PairKey, EmptyValue}, keys.Pair(1, 2), nil, Row{Key: "1#2", Value: ""}},
		{"triple", Layout{TripleKey, EmptyValue}, keys.Triple(1, 2, 3), nil, Row{Key: "1#2#3", Value: ""}},
		{"tag", Layout{TagKey, EmptyValue}, tag, nil, Row{Key: "golang#4", Value: ""}},
		{"timeline", Layout{TimelineKey, VisibilityValue}, keys.Timeline(99, 3, 8), []byte{models.InnPrivate.Byte()}, Row{Key: "99#3#8", Value: "private"}},
		{"user posts", Layout{PairKey, InnVisibilityValue}, keys.Pair(7, 1), append(keys.EncodeU32(3), 0), Row{Key: "7#1", Value: "3#public"}},
		{"inn users", Layout{PairKey, InnRoleValue}, keys.Pair(3, 7), []byte{models.InnRoleFellow.Byte()}, Row{Key: "3#7", Value: "fellow"}},
		{"timestamp", Layout{PairKey, U64Value}, keys.Pair(3, 8), keys.EncodeU64(99), Row{Key: "3#8", Value: uint64(99)}},
		{"unique name", Layout{StringKey, U32Value}, []byte("ann"), keys.EncodeU32(1), Row{Key: "ann", Value: uint32(1)}},
		{"hex", Layout{U32Key, HexValue}, keys.EncodeU32(5), []byte{0xab}, Row{Key: "5", Value: "ab"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.r.Render(tc.key, tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLayoutRejectsBadInput(t *testing.T) {
	_, err := Layout{PairKey, EmptyValue}.Render([]byte{1, 2, 3}, nil)
	assert.ErrorIs(t, err, keys.ErrMalformedKey)

	_, err = Layout{PairKey, EmptyValue}.Render(keys.Pair(1, 2), []byte{1})
	assert.Error(t, err)

	_, err = Layout{TimelineKey, VisibilityValue}.Render(keys.Timeline(1, 1, 1), []byte{7})
	assert.ErrorIs(t, err, models.ErrUnknownEnum)
}

func TestRecordRenderer(t *testing.T) {
	raw, err := records.Encode(&models.Inn{IID: 2, Name: "gophers", Type: models.InnApply})
	require.NoError(t, err)

	row, err := Record[models.Inn](U32Key).Render(keys.EncodeU32(2), raw)
	require.NoError(t, err)
	assert.Equal(t, "2", row.Key)
	inn, ok := row.Value.(models.Inn)
	require.True(t, ok)
	assert.Equal(t, "gophers", inn.Name)
	assert.Equal(t, models.InnApply, inn.Type)
}

func TestRegistryFallsBackToRaw(t *testing.T) {
	reg := New()
	reg.Register(Layout{PairKey, EmptyValue}, "mod_inns", "user_following")
	reg.Register(Layout{ExpiringKey, HexValue}, "sessions")

	_, ok := reg.Lookup("mod_inns")
	assert.True(t, ok)
	assert.Equal(t, []string{"mod_inns", "sessions", "user_following"}, reg.Names())

	row := reg.Render("user_following", keys.Pair(1, 2), nil)
	assert.Equal(t, Row{Key: "1#2", Value: ""}, row)

	row = reg.Render("unknown", []byte{0x01}, []byte{0x02})
	assert.Equal(t, Row{Key: "01", Value: "02"}, row)

	row = reg.Render("mod_inns", []byte{0xff}, nil)
	assert.Equal(t, "ff", row.Key)
	assert.NotEmpty(t, row.Error)

	sess := keys.NewExpiring(time.Unix(1000, 0), time.Hour)
	row = reg.Render("sessions", sess, []byte{1})
	assert.Equal(t, string(sess), row.Key)
	assert.Empty(t, row.Error)

	assert.Panics(t, func() { reg.Register(Raw, "sessions") })
}

func TestRowsWindow(t *testing.T) {
	s, err := db.Open(db.Options{Path: "registry-test", FS: vfs.NewMem(), DisableWAL: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	ns := s.MustNamespace("post_pageviews")
	for pid := uint32(1); pid <= 5; pid++ {
		require.NoError(t, ns.Put(keys.EncodeU32(pid), keys.EncodeU32(pid*10)))
	}

	reg := New()
	reg.Register(Layout{U32Key, U32Value}, "post_pageviews")

	rows, more, err := reg.Rows(ns, pagination.Page{Anchor: 1, N: 2})
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, []Row{{Key: "2", Value: uint32(20)}, {Key: "3", Value: uint32(30)}}, rows)

	rows, more, err = reg.Rows(ns, pagination.Page{N: 2, Desc: true})
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, "5", rows[0].Key)
	assert.Equal(t, "4", rows[1].Key)

	rows, more, err = reg.Rows(ns, pagination.Page{Anchor: 3})
	require.NoError(t, err)
	assert.False(t, more)
	assert.Len(t, rows, 2)
}
