// Package validation checks submitted forms before they are snapshotted or
// relayed. Validate accumulates native constraint failures, combined-field
// group failures (TIN, date of birth, home phone, ZIP) and attachment
// failures into a single Result; no check short-circuits another.
package validation
