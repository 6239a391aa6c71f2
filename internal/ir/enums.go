package ir

import "fmt"

// RuiStatus records whether an identifier was assigned or only reserved.
type RuiStatus string

const (
	RuiAssigned RuiStatus = "A"
	RuiReserved RuiStatus = "R"
)

// ParseRuiStatus parses the stored form of a RuiStatus.
func ParseRuiStatus(s string) (RuiStatus, error) {
	switch v := RuiStatus(s); v {
	case RuiAssigned, RuiReserved:
		return v, nil
	}
	return "", fmt.Errorf("invalid rui status %q", s)
}

// PorType says whether an assignment denotes a singular particular or a
// collection of particulars.
type PorType string

const (
	PorSingular   PorType = "singular"
	PorCollective PorType = "collective"
)

// ParsePorType parses the stored form of a PorType.
func ParsePorType(s string) (PorType, error) {
	switch v := PorType(s); v {
	case PorSingular, PorCollective:
		return v, nil
	}
	return "", fmt.Errorf("invalid particular type %q", s)
}

// EventType is the kind of change a DC tuple records.
type EventType string

const (
	EventInsert     EventType = "I"
	EventInvalidate EventType = "X"
	EventRevalidate EventType = "R"
)

// ParseEventType parses the stored form of an EventType.
func ParseEventType(s string) (EventType, error) {
	switch v := EventType(s); v {
	case EventInsert, EventInvalidate, EventRevalidate:
		return v, nil
	}
	return "", fmt.Errorf("invalid event type %q", s)
}

// ChangeReason explains why a tuple was introduced or changed.
type ChangeReason string

const (
	ReasonRealityChange   ChangeReason = "CE"
	ReasonBeliefChange    ChangeReason = "CB"
	ReasonRelevanceChange ChangeReason = "CR"
	ReasonErrorCorrection ChangeReason = "XE"
)

// ParseChangeReason parses the stored form of a ChangeReason.
func ParseChangeReason(s string) (ChangeReason, error) {
	switch v := ChangeReason(s); v {
	case ReasonRealityChange, ReasonBeliefChange, ReasonRelevanceChange, ReasonErrorCorrection:
		return v, nil
	}
	return "", fmt.Errorf("invalid change reason %q", s)
}
