// Package infopage renders a configured, static page structure merged with
// the stored form snapshot. The section flagged as the profile section lists
// every non-empty snapshot entry; all other sections come from configuration.
package infopage
