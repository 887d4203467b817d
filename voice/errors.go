package voice

import (
	"errors"

	"github.com/poiesic/logilink/ai"
)

var (
	// ErrTranscriberRequired is returned when NewHandler receives a nil transcriber.
	ErrTranscriberRequired = errors.New("transcriber is required")

	// ErrAnswererRequired is returned when NewHandler receives a nil answerer.
	ErrAnswererRequired = errors.New("answerer is required")

	// ErrTranscription indicates the audio could not be turned into a query.
	ErrTranscription = ai.ErrTranscription
)
