package enums

import "fmt"

// ChangeType mirrors the postgres_changes event kinds announced on the
// change feed wire format.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

var validChangeTypes = []ChangeType{ChangeInsert, ChangeUpdate, ChangeDelete}

// IsValid reports whether the value is a known change kind.
func (c ChangeType) IsValid() bool {
	for _, candidate := range validChangeTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseChangeType converts raw input into ChangeType.
func ParseChangeType(value string) (ChangeType, error) {
	for _, candidate := range validChangeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid change type %q", value)
}
