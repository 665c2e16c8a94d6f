package profiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSpanRecordsSample(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := NewProfiler(zap.New(core))

	span := p.Begin("import")
	sample := span.End(zap.Int("entities", 3))

	assert.Equal(t, "import", sample.Label)
	assert.GreaterOrEqual(t, sample.Duration.Nanoseconds(), int64(0))

	samples := p.Samples()
	require.Len(t, samples, 1)
	assert.Equal(t, sample, samples[0])

	entries := logs.FilterMessage("section complete").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "import", fields["label"])
	assert.Equal(t, int64(3), fields["entities"])
}

func TestSpanEndTwice(t *testing.T) {
	p := NewProfiler(nil)
	span := p.Begin("stream")
	span.End()
	assert.Equal(t, Sample{}, span.End())
	assert.Len(t, p.Samples(), 1)
}

func TestSampleLimit(t *testing.T) {
	p := NewProfiler(nil)
	p.limit = 3
	for _, label := range []string{"a", "b", "c", "d", "e"} {
		p.Begin(label).End()
	}
	samples := p.Samples()
	require.Len(t, samples, 3)
	assert.Equal(t, "c", samples[0].Label)
	assert.Equal(t, "e", samples[2].Label)

	p.Reset()
	assert.Empty(t, p.Samples())
}
