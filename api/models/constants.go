package models

// Alphabet for short admin-issued contestant IDs.
var Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Legal one-directional contestant status transitions.
var ValidStatusTransitions = map[string][]string{
	"active": {"evicted", "finalist"},
}
