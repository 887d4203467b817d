package ingestion

import "errors"

var (
	// ErrContractRepositoryRequired is returned when a contract repository is not provided.
	ErrContractRepositoryRequired = errors.New("contract repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmbeddingModelRequired is returned when no embedding model name is configured.
	ErrEmbeddingModelRequired = errors.New("embedding model name required")

	// ErrEmptyDocument is returned when the document has no text after normalization.
	ErrEmptyDocument = errors.New("document text is empty")

	// ErrContractNotFound is returned when the target contract doesn't exist.
	// It also matches storage.ErrNotFound.
	ErrContractNotFound = errors.New("contract not found")

	// ErrDuplicateDocument is returned when the same text was already ingested
	// into the contract and duplicates are rejected.
	ErrDuplicateDocument = errors.New("document already ingested")
)
