// Package ir provides the referent-tracking domain types for rt2n4j.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Tuple is a sealed interface over ten variants; switches over it are exhaustive
//   - Rui is a sealed interface over IDRui (generated) and ISORui (timestamp-derived)
//   - A nil Rui or TempRef field means the reference is absent
//   - Timestamps are UTC with the monotonic reading stripped so values compare with ==
//   - Tuples are values; nothing downstream mutates them after construction
package ir
