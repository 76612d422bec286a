package models

type User struct {
	UID          uint32 `cbor:"1,keyasint" json:"uid"`
	Username     string `cbor:"2,keyasint" json:"username"`
	PasswordHash string `cbor:"3,keyasint" json:"-"`
	RecoveryHash string `cbor:"4,keyasint,omitempty" json:"-"`
	CreatedAt    int64  `cbor:"5,keyasint" json:"created_at"`
	Role         Role   `cbor:"6,keyasint" json:"role"`
	URL          string `cbor:"7,keyasint,omitempty" json:"url,omitempty"`
	About        string `cbor:"8,keyasint,omitempty" json:"about,omitempty"`
}

type Inn struct {
	IID              uint32   `cbor:"1,keyasint" json:"iid"`
	Name             string   `cbor:"2,keyasint" json:"inn_name"`
	About            string   `cbor:"3,keyasint,omitempty" json:"about,omitempty"`
	Description      string   `cbor:"4,keyasint,omitempty" json:"description,omitempty"`
	Topics           []string `cbor:"5,keyasint,omitempty" json:"topics,omitempty"`
	Type             InnType  `cbor:"6,keyasint" json:"inn_type"`
	Mods             []uint32 `cbor:"7,keyasint,omitempty" json:"mods,omitempty"` // first is the creator
	EarlyBirds       uint32   `cbor:"8,keyasint,omitempty" json:"early_birds,omitempty"`
	CreatedAt        int64    `cbor:"9,keyasint" json:"created_at"`
	LimitEditSeconds uint32   `cbor:"10,keyasint,omitempty" json:"limit_edit_seconds,omitempty"`
}

type Post struct {
	PID       uint32     `cbor:"1,keyasint" json:"pid"`
	UID       uint32     `cbor:"2,keyasint" json:"uid"`
	IID       uint32     `cbor:"3,keyasint" json:"iid"`
	Title     string     `cbor:"4,keyasint" json:"title"`
	Tags      []string   `cbor:"5,keyasint,omitempty" json:"tags,omitempty"`
	Content   string     `cbor:"6,keyasint" json:"content"`
	CreatedAt int64      `cbor:"7,keyasint" json:"created_at"`
	Status    PostStatus `cbor:"8,keyasint" json:"status"`
}

type Comment struct {
	CID       uint32 `cbor:"1,keyasint" json:"cid"`
	PID       uint32 `cbor:"2,keyasint" json:"pid"`
	UID       uint32 `cbor:"3,keyasint" json:"uid"`
	ReplyTo   uint32 `cbor:"4,keyasint,omitempty" json:"reply_to,omitempty"` // 0 when top level
	Content   string `cbor:"5,keyasint" json:"content"`
	CreatedAt int64  `cbor:"6,keyasint" json:"created_at"`
	Hidden    bool   `cbor:"7,keyasint,omitempty" json:"is_hidden,omitempty"`
}

// Solo is a short status update, optionally a reply to another solo.
type Solo struct {
	SID        uint32     `cbor:"1,keyasint" json:"sid"`
	UID        uint32     `cbor:"2,keyasint" json:"uid"`
	Visibility Visibility `cbor:"3,keyasint" json:"solo_type"`
	Content    string     `cbor:"4,keyasint" json:"content"`
	Hashtags   []string   `cbor:"5,keyasint,omitempty" json:"hashtags,omitempty"`
	CreatedAt  int64      `cbor:"6,keyasint" json:"created_at"`
	ReplyTo    uint32     `cbor:"7,keyasint,omitempty" json:"reply_to,omitempty"`
	Replies    []uint32   `cbor:"8,keyasint,omitempty" json:"replies,omitempty"`
}
