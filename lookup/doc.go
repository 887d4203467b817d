// Package lookup fetches the live snapshot of a shipment together with its
// most recent tracking event.
//
// A lookup without a shipment id never touches the store. Store failures are
// returned to the caller unchanged; deciding whether they are fatal is the
// caller's job.
package lookup
