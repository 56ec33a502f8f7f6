// Package ir provides the value and rule types shared by every datadance
// package.
//
// This package contains type definitions and their codecs only. All other
// internal packages import ir; ir imports nothing internal. This keeps IR the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Records are Objects of sealed Values (Null, String, Int, Float, Bool,
//     Array, Object); integers never silently become floats
//   - A Rule is a one-key mapping from field name to Expression; decoders keep
//     malformed rules intact so the engine can report them
//   - Canonical JSON (RFC 8785) is the only serialization used for hashing
//   - All JSON tags use snake_case
package ir
