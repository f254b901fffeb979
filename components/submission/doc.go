// Package submission exposes a form flow as a mountable net/http component.
// POSTed url-encoded or multipart data is bound to a form definition,
// validated, snapshotted, rendered, saved and relayed. Responses are JSON
// unless the caller asks for the rendered PDF.
package submission
