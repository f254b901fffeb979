// Package flow wires the validator, snapshot builder, document renderer,
// snapshot store and relay client into a single submission pipeline. State
// is held by the Flow value rather than in globals: it is created when the
// form is mounted, used on submit, and the persisted snapshot is read back by
// the next page through the store.
package flow
