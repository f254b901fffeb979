// Package model defines the submitted form representation shared by the
// validator, snapshot builder, relay client and document renderer: controls,
// combined-field groups and the declarative form definition that binds HTTP
// submissions into a Form.
package model
