// Package gate decides whether a visitor may continue to the next page by
// matching an entered identifier against the persisted submission snapshot.
// Denials carry a Banner that stays visible for a fixed time and then
// disappears.
package gate
