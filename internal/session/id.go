package session

import "github.com/google/uuid"

// newID returns a UUIDv7, so session IDs sort by creation time.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ValidID reports whether id is a canonical UUID string.
func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
