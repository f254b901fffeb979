// Package relay posts submissions to a third-party form relay such as
// Web3Forms. The access key is server configuration; it is never rendered
// into pages.
package relay
