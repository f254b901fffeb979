// Package accessgate exposes the persistence gate as a mountable net/http
// component. It accepts POSTed identifiers and either redirects to the next
// page or reports a timed mismatch banner.
package accessgate
