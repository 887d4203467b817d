// Package reasoning sequences the hybrid pipeline: live lookup, similarity
// retrieval, prompt assembly, generation and answer shaping.
//
// The failure policy is asymmetric. Live data is load-bearing, so a lookup
// failure fails the request with ErrLiveData before any generation call.
// Retrieval failures are absorbed into an empty citation list. Generation
// failures, including replies that violate the output schema, fail the
// request with ErrGeneration. The orchestrator never retries transport
// errors; WithSchemaRetries re-asks the model only after a schema violation.
package reasoning
