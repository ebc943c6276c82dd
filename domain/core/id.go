package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	EntryID    ID
	StudyID    ID
	VenueID    ID
	DocumentID ID
	BuildID    ID
)

// String conversions for domain IDs
func (id EntryID) String() string    { return ID(id).String() }
func (id StudyID) String() string    { return ID(id).String() }
func (id VenueID) String() string    { return ID(id).String() }
func (id DocumentID) String() string { return ID(id).String() }
func (id BuildID) String() string    { return ID(id).String() }

// ParseEntryID parses a string into EntryID
func ParseEntryID(s string) (EntryID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("entry ID cannot be empty")
	}
	return EntryID(s), nil
}

// ParseStudyID parses a string into StudyID
func ParseStudyID(s string) (StudyID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("study ID cannot be empty")
	}
	return StudyID(s), nil
}

// ParseVenueID parses a string into VenueID
func ParseVenueID(s string) (VenueID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("venue ID cannot be empty")
	}
	return VenueID(s), nil
}
