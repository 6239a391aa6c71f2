package ir

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ISOLayout is the string form of timestamp-derived identifiers.
// It always contains ':' which is how ParseRui tells the two kinds apart.
const ISOLayout = time.RFC3339Nano

// Rui is a reference-unique identifier.
//
// This is a sealed interface - only IDRui and ISORui implement it.
type Rui interface {
	String() string
	isRui()
}

// IDRui is a generated, content-free identifier.
type IDRui struct {
	UUID uuid.UUID
}

func (IDRui) isRui() {}

// String returns the hyphenated UUID form.
func (r IDRui) String() string {
	return r.UUID.String()
}

// ISORui is an identifier derived from a point in time.
type ISORui struct {
	Time time.Time
}

func (ISORui) isRui() {}

// String returns the RFC 3339 form in UTC.
func (r ISORui) String() string {
	return r.Time.UTC().Format(ISOLayout)
}

// NewIDRui generates a time-sortable UUIDv7 identifier.
//
// Panics if UUID generation fails (should never happen in practice).
func NewIDRui() IDRui {
	return IDRui{UUID: uuid.Must(uuid.NewV7())}
}

// NewISORui returns a timestamp identifier normalised to UTC.
func NewISORui(t time.Time) ISORui {
	return ISORui{Time: NormalizeTime(t)}
}

// NormalizeTime converts t to UTC and strips the monotonic clock reading,
// so that a value survives a format/parse cycle unchanged.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Round(0)
}

// ParseRui parses the string form of an identifier.
// Strings containing ':' are timestamp identifiers; all others are UUIDs.
func ParseRui(s string) (Rui, error) {
	if strings.Contains(s, ":") {
		t, err := time.Parse(ISOLayout, s)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp rui %q: %w", s, err)
		}
		return NewISORui(t), nil
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parse rui %q: %w", s, err)
	}
	return IDRui{UUID: u}, nil
}

// MustParseRui is ParseRui for literals in tests and fixtures.
func MustParseRui(s string) Rui {
	r, err := ParseRui(s)
	if err != nil {
		panic(err)
	}
	return r
}

// RuiString returns r.String(), or "" for an absent reference.
func RuiString(r Rui) string {
	if r == nil {
		return ""
	}
	return r.String()
}

// TempRef is a temporal reference.
//
// An IDRui denotes an existing temporal-region entity that must already be
// stored. An ISORui is a raw calendar value, stored once per distinct value.
type TempRef struct {
	Rui Rui
}

// NewTempRef returns a calendar-valued temporal reference for t.
func NewTempRef(t time.Time) *TempRef {
	return &TempRef{Rui: NewISORui(t)}
}

// IsCalendar reports whether the reference is a raw calendar value.
func (t TempRef) IsCalendar() bool {
	_, ok := t.Rui.(ISORui)
	return ok
}

// String returns the identifier string of the reference.
func (t TempRef) String() string {
	return RuiString(t.Rui)
}

// ParseTempRef parses a temporal reference using the ParseRui rules.
func ParseTempRef(s string) (*TempRef, error) {
	r, err := ParseRui(s)
	if err != nil {
		return nil, err
	}
	return &TempRef{Rui: r}, nil
}
