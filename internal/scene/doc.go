// Package scene is an in-memory host for the keying dispatcher.
//
// A Document holds named objects. Each object has animatable properties,
// optional visual (constraint-evaluated) values and, once keyed,
// animation data with an action, driver curves and an NLA stack.
//
// Documents are loaded from YAML or CUE scene files and implement
// keying.Host, so a dispatcher can key them directly. A Document is not
// safe for concurrent mutation; callers that share one wrap every keying
// call in Edit.
package scene
