// Package prompt assembles the system and user messages for hybrid reasoning.
//
// Rendering is pure: the same live snapshot, citations and query always yield
// byte-identical messages, so tests compare output strings directly.
package prompt
