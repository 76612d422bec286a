package keys

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidName = errors.New("invalid name")

var (
	// letters, digits, underscore and space; must not start with a digit
	nameRegexp = regexp.MustCompile(`^[\p{L}_ ][\p{L}\p{N}_ ]*$`)
	// <hex unix seconds>_<id>
	expiringRegexp = regexp.MustCompile(`^([0-9a-f]{1,16})_(.+)$`)
)

// ValidName checks user, inn and topic names.
func ValidName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// NormalizeName is the lookup form used by the unique-name namespaces.
func NormalizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}
