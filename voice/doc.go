// Package voice is the spoken front door to the reasoning pipeline.
//
// Audio is transcribed first; only a non-empty transcript ever reaches the
// answerer. Transcription failures surface as ErrTranscription.
package voice
