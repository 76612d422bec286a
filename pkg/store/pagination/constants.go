package pagination

const (
	// DefaultLimit is the page size used when none is given
	DefaultLimit = 20

	// MaxLimit caps the page size for list views
	MaxLimit = 500

	// AdminDefaultLimit is the default page size for admin inspection
	AdminDefaultLimit = 100

	// AdminMaxLimit caps admin inspection pages
	AdminMaxLimit = 10000
)
