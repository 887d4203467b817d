// Package ingestion splits contract documents into chunks and stores each
// chunk with its embedding.
//
// A single Ingest call is strictly sequential: every chunk is embedded,
// stored, and has its embedding row stored before the next chunk starts.
// A failure stops the document where it is; chunks already written stay
// written and are reported in the partial Result.
//
// IngestAll fans whole documents out to a worker pool.
package ingestion
