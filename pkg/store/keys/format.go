package keys

const (
	// notation for index key layouts:
	// id        = u32 big-endian, 4 bytes
	// ts        = u64 big-endian, 8 bytes
	// <str>     = variable length utf-8, never contains TagSep
	// a#b       = concatenation, no separator between fixed-width parts
	//
	// pair      = id(4) id(4)                 e.g. uid#pid, iid#pid, owner#cursor
	// triple    = id(4) id(4) id(4)           e.g. uid#pid#cid, pid#cid#uid
	// tag       = <str> '#' id(4)             e.g. tag#pid, topic#iid
	// timeline  = ts(8) id(4) id(4)           timestamp#owner#id
	// expiring  = <hex unix secs> '_' <uuid>  sessions, captcha

	TagSep      = '#'
	ExpiringSep = '_'

	PairLen     = 2 * U32Len
	TripleLen   = 3 * U32Len
	TimelineLen = U64Len + 2*U32Len

	// tag must hold at least one byte before the separator
	minTagKeyLen = 1 + 1 + U32Len
)
