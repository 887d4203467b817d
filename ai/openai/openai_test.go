package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/poiesic/logilink/ai"
	"github.com/poiesic/logilink/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const embeddingBody = `{"object":"list","data":[{"object":"embedding","embedding":[0.1,0.2,0.3],"index":0}],"model":"test-embed","usage":{"prompt_tokens":3,"total_tokens":3}}`

func chatBody(content string) string {
	escaped := strings.ReplaceAll(content, `"`, `\"`)
	return `{"id":"chat-1","object":"chat.completion","created":1,"model":"test-chat","choices":[{"index":0,"message":{"role":"assistant","content":"` +
		escaped + `"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`
}

func testConfig(host string) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(host),
		ai.WithAPIKey("sk-test"),
		ai.WithEmbeddingModel("test-embed"),
		ai.WithGenerationModel("test-chat"),
	)
}

func TestNewProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewProvider(ai.NewConfig())
	assert.ErrorIs(t, err, ai.ErrMissingAPIKey)
}

func TestProvider_Services(t *testing.T) {
	p, err := NewProvider(testConfig("http://localhost:1"))
	require.NoError(t, err)
	defer p.Close()

	assert.NotNil(t, p.Embedder())
	assert.NotNil(t, p.Generator())
	assert.NotNil(t, p.Transcriber())
	assert.Equal(t, "test-embed", p.EmbeddingModel())
}

func TestEmbedder_EmbedText(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, embeddingBody)
	}))
	defer srv.Close()

	e, err := NewEmbedder(testConfig(srv.URL))
	require.NoError(t, err)

	vec, err := e.EmbedText(context.Background(), "customs hold")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "/v1/embeddings", path)
}

func TestEmbedder_BackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"boom"}}`)
	}))
	defer srv.Close()

	e, err := NewEmbedder(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = e.EmbedText(context.Background(), "customs hold")
	assert.ErrorIs(t, err, ai.ErrEmbeddingService)
}

func TestEmbedder_EmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"object":"list","data":[{"object":"embedding","embedding":[],"index":0}],"model":"test-embed"}`)
	}))
	defer srv.Close()

	e, err := NewEmbedder(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = e.EmbedText(context.Background(), "customs hold")
	assert.ErrorIs(t, err, ai.ErrEmbeddingService)
}

func TestGenerator_Generate(t *testing.T) {
	var path string
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatBody(`{"answer":"Held in customs.","confidence":0.8}`))
	}))
	defer srv.Close()

	g, err := NewGenerator(testConfig(srv.URL))
	require.NoError(t, err)

	decoded, err := g.Generate(context.Background(), []ai.Message{
		{Role: ai.RoleSystem, Content: "system prompt"},
		{Role: ai.RoleUser, Content: "where is my shipment"},
	})
	require.NoError(t, err)
	require.True(t, decoded.OK())
	assert.Equal(t, "Held in customs.", decoded.Reply.Answer)
	require.NotNil(t, decoded.Reply.Confidence)
	assert.InDelta(t, 0.8, *decoded.Reply.Confidence, 1e-9)

	assert.Equal(t, "/v1/chat/completions", path)
	assert.Contains(t, body, "system prompt")
	assert.Contains(t, body, "where is my shipment")
	assert.Contains(t, body, "json_object")
}

func TestGenerator_SchemaViolation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatBody("I cannot answer that."))
	}))
	defer srv.Close()

	g, err := NewGenerator(testConfig(srv.URL))
	require.NoError(t, err)

	decoded, err := g.Generate(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "q"}})
	require.NoError(t, err)
	assert.False(t, decoded.OK())
	require.NotNil(t, decoded.Violation)
	assert.ErrorIs(t, decoded.Violation, ai.ErrSchemaViolation)
	assert.Equal(t, "I cannot answer that.", decoded.Violation.Raw)
}

func TestGenerator_BackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad model"}}`)
	}))
	defer srv.Close()

	g, err := NewGenerator(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "q"}})
	assert.ErrorIs(t, err, ai.ErrGeneration)
}

func TestTranscriber_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "es", r.FormValue("language"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		assert.Equal(t, "input.webm", hdr.Filename)
		audio, _ := io.ReadAll(f)
		assert.Equal(t, []byte("fake-audio"), audio)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":" ¿Dónde está mi envío? ","language":"spanish","segments":[{"avg_logprob":0},{"avg_logprob":0}]}`)
	}))
	defer srv.Close()

	tr, err := NewTranscriber(testConfig(srv.URL))
	require.NoError(t, err)

	out, err := tr.Transcribe(context.Background(), []byte("fake-audio"), core.LocaleSpanish)
	require.NoError(t, err)
	assert.Equal(t, "¿Dónde está mi envío?", out.Text)
	assert.Equal(t, core.LocaleSpanish, out.Language)
	assert.InDelta(t, 1.0, out.Confidence, 1e-9)
}

func TestTranscriber_InvalidLocaleFallsBackToDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en", r.FormValue("language"))
		_, _ = io.WriteString(w, `{"text":"hello","language":"klingon"}`)
	}))
	defer srv.Close()

	tr, err := NewTranscriber(testConfig(srv.URL))
	require.NoError(t, err)

	out, err := tr.Transcribe(context.Background(), []byte("x"), core.Locale("xx"))
	require.NoError(t, err)
	assert.Equal(t, core.LocaleEnglish, out.Language)
	assert.Zero(t, out.Confidence)
}

func TestTranscriber_Failures(t *testing.T) {
	t.Run("empty audio", func(t *testing.T) {
		tr, err := NewTranscriber(testConfig("http://localhost:1"))
		require.NoError(t, err)
		_, err = tr.Transcribe(context.Background(), nil, core.LocaleEnglish)
		assert.ErrorIs(t, err, ai.ErrTranscription)
	})

	t.Run("backend error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"message":"unsupported format"}}`)
		}))
		defer srv.Close()

		tr, err := NewTranscriber(testConfig(srv.URL))
		require.NoError(t, err)
		_, err = tr.Transcribe(context.Background(), []byte("x"), core.LocaleEnglish)
		require.ErrorIs(t, err, ai.ErrTranscription)
		assert.Contains(t, err.Error(), "unsupported format")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `not json`)
		}))
		defer srv.Close()

		tr, err := NewTranscriber(testConfig(srv.URL))
		require.NoError(t, err)
		_, err = tr.Transcribe(context.Background(), []byte("x"), core.LocaleEnglish)
		assert.ErrorIs(t, err, ai.ErrTranscription)
	})
}

func TestRecognizedLocale(t *testing.T) {
	assert.Equal(t, core.LocaleHindi, recognizedLocale("Hindi", core.LocaleEnglish))
	assert.Equal(t, core.LocaleChinese, recognizedLocale("zh", core.LocaleEnglish))
	assert.Equal(t, core.LocaleSpanish, recognizedLocale("", core.LocaleSpanish))
	assert.Equal(t, core.LocaleEnglish, recognizedLocale("french", core.LocaleEnglish))
}

func TestSegmentConfidence(t *testing.T) {
	assert.Zero(t, segmentConfidence(nil))
	got := segmentConfidence([]transcriptionSegment{{AvgLogprob: -0.5}, {AvgLogprob: -1.5}})
	assert.InDelta(t, 0.36787944, got, 1e-6)
}
