package voice

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/poiesic/logilink/ai/mock"
	"github.com/poiesic/logilink/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAnswerer struct {
	requests []core.ReasoningRequest
	err      error
}

func (r *recordingAnswerer) Answer(_ context.Context, req core.ReasoningRequest) (*core.ReasoningAnswer, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	return &core.ReasoningAnswer{Answer: "answered: " + req.Query, Language: req.Language}, nil
}

func TestNewHandler(t *testing.T) {
	_, err := NewHandler(nil, &recordingAnswerer{})
	assert.Equal(t, ErrTranscriberRequired, err)

	_, err = NewHandler(mock.NewMockTranscriber(), nil)
	assert.Equal(t, ErrAnswererRequired, err)

	h, err := NewHandler(mock.NewMockTranscriber(), &recordingAnswerer{}, WithLogger(nil))
	require.NoError(t, err)
	assert.NotNil(t, h)
}

func TestHandleAudio(t *testing.T) {
	tr := mock.NewMockTranscriber()
	ans := &recordingAnswerer{}
	h, err := NewHandler(tr, ans)
	require.NoError(t, err)

	result, err := h.HandleAudio(context.Background(), []byte("  where is LL-999001? "), core.LocaleSpanish)
	require.NoError(t, err)

	assert.Equal(t, "  where is LL-999001? ", result.Transcription.Text)
	assert.Equal(t, "answered: where is LL-999001?", result.Answer.Answer)
	require.Len(t, ans.requests, 1)
	assert.Equal(t, core.LocaleSpanish, ans.requests[0].Language)
	assert.Nil(t, ans.requests[0].ShipmentID)
}

func TestHandleAudio_UsesRecognizedLanguage(t *testing.T) {
	tr := mock.NewMockTranscriber()
	tr.TranscribeFunc = func(_ context.Context, audio []byte, _ core.Locale) (*core.Transcription, error) {
		return &core.Transcription{Text: string(audio), Language: core.LocaleHindi, Confidence: 0.8}, nil
	}
	ans := &recordingAnswerer{}
	h, err := NewHandler(tr, ans)
	require.NoError(t, err)

	_, err = h.HandleAudio(context.Background(), []byte("shipment status"), core.LocaleEnglish)
	require.NoError(t, err)
	assert.Equal(t, core.LocaleHindi, ans.requests[0].Language)
}

func TestHandleAudio_UnsupportedRecognizedLanguageFallsBackToHint(t *testing.T) {
	tr := mock.NewMockTranscriber()
	tr.TranscribeFunc = func(_ context.Context, audio []byte, _ core.Locale) (*core.Transcription, error) {
		return &core.Transcription{Text: string(audio), Language: "fr"}, nil
	}
	ans := &recordingAnswerer{}
	h, err := NewHandler(tr, ans)
	require.NoError(t, err)

	result, err := h.HandleAudio(context.Background(), []byte("status"), "")
	require.NoError(t, err)
	assert.Equal(t, core.LocaleEnglish, result.Transcription.Language)
	assert.Equal(t, core.LocaleEnglish, ans.requests[0].Language)
}

func TestHandleAudio_TranscriptionFailuresNeverReachAnswerer(t *testing.T) {
	tests := []struct {
		name  string
		audio []byte
		fn    func(context.Context, []byte, core.Locale) (*core.Transcription, error)
	}{
		{name: "empty audio", audio: nil},
		{
			name:  "backend failure",
			audio: []byte("x"),
			fn: func(context.Context, []byte, core.Locale) (*core.Transcription, error) {
				return nil, errors.New("whisper unavailable")
			},
		},
		{
			name:  "empty transcript",
			audio: []byte("x"),
			fn: func(context.Context, []byte, core.Locale) (*core.Transcription, error) {
				return &core.Transcription{Text: "   "}, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := mock.NewMockTranscriber()
			tr.TranscribeFunc = tt.fn
			ans := &recordingAnswerer{}
			h, err := NewHandler(tr, ans)
			require.NoError(t, err)

			result, err := h.HandleAudio(context.Background(), tt.audio, core.LocaleEnglish)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrTranscription)
			assert.Empty(t, ans.requests)
		})
	}
}

func TestHandleAudio_AnswerErrorPropagates(t *testing.T) {
	boom := errors.New("LLM call failed")
	h, err := NewHandler(mock.NewMockTranscriber(), &recordingAnswerer{err: boom})
	require.NoError(t, err)

	_, err = h.HandleAudio(context.Background(), []byte("status"), core.LocaleEnglish)
	assert.ErrorIs(t, err, boom)
}

func TestHandleBase64(t *testing.T) {
	ans := &recordingAnswerer{}
	h, err := NewHandler(mock.NewMockTranscriber(), ans)
	require.NoError(t, err)

	encoded := base64.StdEncoding.EncodeToString([]byte("where is my shipment"))

	result, err := h.HandleBase64(context.Background(), encoded, core.LocaleEnglish)
	require.NoError(t, err)
	assert.Equal(t, "answered: where is my shipment", result.Answer.Answer)

	_, err = h.HandleBase64(context.Background(), "data:audio/webm;base64,"+encoded, core.LocaleEnglish)
	require.NoError(t, err)
	assert.Len(t, ans.requests, 2)

	_, err = h.HandleBase64(context.Background(), "%%%not-base64%%%", core.LocaleEnglish)
	assert.ErrorIs(t, err, ErrTranscription)
	assert.Len(t, ans.requests, 2)
}

func TestDecodeAudio(t *testing.T) {
	raw := []byte{0xfb, 0xff, 0x01}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		got, err := DecodeAudio(enc.EncodeToString(raw))
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	}

	_, err := DecodeAudio("")
	assert.ErrorIs(t, err, ErrTranscription)
	_, err = DecodeAudio("data:audio/webm;base64")
	assert.ErrorIs(t, err, ErrTranscription)
	_, err = DecodeAudio("data:audio/webm;base64,")
	assert.ErrorIs(t, err, ErrTranscription)
}
