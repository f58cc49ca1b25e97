// Package keying turns "key these properties at this time" requests into
// curve mutations.
//
// A Dispatcher resolves each target through the host's property system,
// finds or creates the curve for every array element, applies the
// Needed / Available / Replace policies, unmaps the time through the
// owner's tweaked NLA strip and writes the key with fcurve.InsertValue.
// Every element produces exactly one Outcome, and outcomes are collected
// into a CombinedResult. A failing target never stops the batch.
//
// Quaternion rotations are keyed all-or-nothing when the owner's active
// strip blends in Replace or Combine mode, since keying a subset of the
// components would desynchronise the rotation.
//
// CONCURRENCY:
// The dispatcher does not lock. A call to InsertKeys assumes exclusive
// access to the host document for its whole duration; hosts serialise
// keying calls behind their single writer lock.
package keying
