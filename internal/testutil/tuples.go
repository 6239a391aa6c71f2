package testutil

import (
	"time"

	"github.com/mcwdsi/rt2n4j/internal/ir"
)

// Relations used by the sample tuples.
const (
	RelPartOf      ir.Relation = "http://purl.obolibrary.org/obo/BFO_0000050"
	RelHasRole     ir.Relation = "http://purl.obolibrary.org/obo/RO_0000087"
	RelIsAbout     ir.Relation = "http://purl.obolibrary.org/obo/IAO_0000136"
	RelParticipant ir.Relation = "http://purl.obolibrary.org/obo/RO_0000057"
)

// SampleTime is the authoring time of every sample tuple.
var SampleTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// SampleANs returns the assignments the other samples refer to:
// a patient (placeholder Rui(2)), an author (Rui(8)), a temporal region
// (Rui(11)) and a code system (Rui(18)).
func SampleANs() []ir.Tuple {
	an := func(rui, ruin int) ir.AN {
		return ir.AN{Rui: Rui(rui), Status: ir.RuiAssigned, Unique: ir.PorSingular, Ruin: Rui(ruin)}
	}
	return []ir.Tuple{an(1, 2), an(7, 8), an(10, 11), an(16, 18)}
}

// SampleAR returns a repeatable assignment with placeholder Rui(4).
func SampleAR() ir.AR {
	return ir.AR{Rui: Rui(3), Status: ir.RuiAssigned, Unique: ir.PorCollective, Ruir: Rui(4), Ruio: Rui(5)}
}

// SampleTuples returns one tuple of every variant, in an order that saves
// cleanly: every tuple is preceded by the tuples that introduce its
// references.
func SampleTuples() []ir.Tuple {
	cal := ir.NewTempRef(SampleTime)
	out := SampleANs()
	out = append(out,
		SampleAR(),
		ir.DI{Rui: Rui(6), T: SampleTime, Reason: ir.ReasonRealityChange,
			Ruit: Rui(1), Ruid: Rui(2), Ruia: Rui(8), Ta: cal},
		ir.DC{Rui: Rui(9), T: SampleTime, Reason: ir.ReasonErrorCorrection, Event: ir.EventInvalidate,
			Ruit: Rui(6), Ruid: Rui(2), Replacements: []ir.Rui{Rui(1), Rui(3)}},
		ir.F{Rui: Rui(12), C: 0.75, Ruitn: Rui(6)},
		ir.NtoN{Rui: Rui(13), Polarity: true, R: RelPartOf, Tr: cal, P: []ir.Rui{Rui(2), Rui(4)}},
		ir.NtoR{Rui: Rui(14), Polarity: false, Ruin: Rui(2), Ruir: Rui(4), R: RelHasRole, Tr: &ir.TempRef{Rui: Rui(11)}},
		ir.NtoC{Rui: Rui(17), Polarity: true, R: RelIsAbout, Ruin: Rui(2), Ruics: Rui(18), Code: "C50.9", Tr: cal},
		ir.NtoDE{Rui: Rui(19), Polarity: true, Ruin: Rui(2), Ruidt: Rui(18), Data: []byte("hello")},
		ir.NtoLackR{Rui: Rui(20), Ruin: Rui(2), Ruir: Rui(4), R: RelParticipant, Tr: cal},
	)
	return out
}

// Sample returns the sample tuple of the given variant.
func Sample(tt ir.TupleType) ir.Tuple {
	for _, t := range SampleTuples() {
		if t.TupleType() == tt {
			return t
		}
	}
	return nil
}
