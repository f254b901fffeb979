// Package config loads the YAML (or JSON) document describing a deployed form
// flow: the form definition, field groups, storage backend, gate, relay,
// document and info page settings.
//
// The relay access key is never part of the document. Only the name of the
// environment variable holding it is configured.
package config
