package mock

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/poiesic/logilink/ai"
	"github.com/poiesic/logilink/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()
	a, err := m.EmbedText(context.Background(), "customs hold")
	require.NoError(t, err)
	b, err := m.EmbedText(context.Background(), "customs hold")
	require.NoError(t, err)
	c, err := m.EmbedText(context.Background(), "port congestion")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, DefaultDimensions)
	assert.Equal(t, 3, m.CallCount())
	assert.Equal(t, []string{"customs hold", "customs hold", "port congestion"}, m.Texts())

	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-4)
}

func TestMockEmbedder_CustomFuncAndReset(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockEmbedder().WithEmbedTextFunc(func(context.Context, string) ([]float32, error) {
		return nil, boom
	})
	_, err := m.EmbedText(context.Background(), "x")
	assert.ErrorIs(t, err, boom)

	m.Reset()
	assert.Zero(t, m.CallCount())
	_, err = m.EmbedText(context.Background(), "x")
	assert.NoError(t, err)
}

func TestMockGenerator(t *testing.T) {
	g := NewMockGenerator()
	d, err := g.Generate(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "q"}})
	require.NoError(t, err)
	require.True(t, d.OK())
	assert.Equal(t, DefaultAnswer, d.Reply.Answer)
	assert.Equal(t, "q", g.LastMessages()[0].Content)

	g.WithReply("not json")
	d, err = g.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, d.OK())
	assert.Equal(t, 2, g.CallCount())

	g.Reset()
	assert.Zero(t, g.CallCount())
	assert.Nil(t, g.LastMessages())
}

func TestMockTranscriber(t *testing.T) {
	tr := NewMockTranscriber()
	out, err := tr.Transcribe(context.Background(), []byte("hola"), core.LocaleSpanish)
	require.NoError(t, err)
	assert.Equal(t, "hola", out.Text)
	assert.Equal(t, core.LocaleSpanish, out.Language)
	assert.Equal(t, 1, tr.CallCount())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider().(*MockProvider)
	assert.Same(t, p.GetMockEmbedder(), p.Embedder())
	assert.Same(t, p.GetMockGenerator(), p.Generator())
	assert.Same(t, p.GetMockTranscriber(), p.Transcriber())
	assert.Equal(t, DefaultEmbeddingModel, p.EmbeddingModel())

	p.SetEmbeddingModel("v2")
	assert.Equal(t, "v2", p.EmbeddingModel())
	assert.NoError(t, p.Close())
}
