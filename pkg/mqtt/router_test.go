package mqtt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePatternLiteral(t *testing.T) {
	re, err := CompilePattern("sensors/data")
	require.NoError(t, err)

	assert.True(t, re.MatchString("sensors/data"))
	assert.False(t, re.MatchString("sensors/data/extra"))
	assert.False(t, re.MatchString("prefix/sensors/data"))
}

func TestCompilePatternSingleSegmentWildcard(t *testing.T) {
	re, err := CompilePattern("sensors/+/data")
	require.NoError(t, err)

	m := re.FindStringSubmatch("sensors/10061c41d104/data")
	require.NotNil(t, m)
	assert.Equal(t, "10061c41d104", m[1])

	assert.Nil(t, re.FindStringSubmatch("sensors/a/b/data"))
	assert.Nil(t, re.FindStringSubmatch("sensors//data"))
}

func TestCompilePatternMultiSegmentWildcard(t *testing.T) {
	re, err := CompilePattern("sensors/#")
	require.NoError(t, err)

	m := re.FindStringSubmatch("sensors/a/b/c")
	require.NotNil(t, m)
	assert.Equal(t, "a/b/c", m[1])
}

func TestCompilePatternHashMustBeLast(t *testing.T) {
	_, err := CompilePattern("sensors/#/data")
	assert.Error(t, err)
}

func TestCompilePatternWildcardInsideSegment(t *testing.T) {
	_, err := CompilePattern("sensors/dev+ice/data")
	assert.Error(t, err)
}

func TestCompilePatternEmpty(t *testing.T) {
	_, err := CompilePattern("")
	assert.Error(t, err)
}

func TestCompilePatternEscapesRegexpMeta(t *testing.T) {
	re, err := CompilePattern("sensors/v1.0/data")
	require.NoError(t, err)

	assert.True(t, re.MatchString("sensors/v1.0/data"))
	assert.False(t, re.MatchString("sensors/v1x0/data"))
}

func newTestRouter() *Router {
	return NewRouter(Options{
		BrokerURL: "tcp://localhost:1883",
		ClientID:  "test",
	})
}

func TestDispatchFirstMatchWins(t *testing.T) {
	r := newTestRouter()

	var got []string
	require.NoError(t, r.Subscribe("sensors/+/data", func(_ context.Context, captures []string, _ []byte) {
		got = append(got, "specific:"+captures[0])
	}))
	require.NoError(t, r.Subscribe("sensors/#", func(_ context.Context, _ []string, _ []byte) {
		got = append(got, "fallback")
	}))

	r.dispatch("sensors/10061c41d104/data", []byte(`{"temperature":22.5}`))

	// Dispatched exactly once, to the first registered match
	assert.Equal(t, []string{"specific:10061c41d104"}, got)
}

func TestDispatchUnmatchedTopicIsDropped(t *testing.T) {
	r := newTestRouter()

	called := false
	require.NoError(t, r.Subscribe("sensors/+/data", func(_ context.Context, _ []string, _ []byte) {
		called = true
	}))

	r.dispatch("other/topic", []byte(`{}`))
	assert.False(t, called)
}

func TestDispatchDropsEmptyPayload(t *testing.T) {
	r := newTestRouter()

	called := false
	require.NoError(t, r.Subscribe("sensors/+/data", func(_ context.Context, _ []string, _ []byte) {
		called = true
	}))

	r.dispatch("sensors/abc/data", nil)
	assert.False(t, called)
}

func TestDispatchDropsNonUTF8Payload(t *testing.T) {
	r := newTestRouter()

	called := false
	require.NoError(t, r.Subscribe("sensors/+/data", func(_ context.Context, _ []string, _ []byte) {
		called = true
	}))

	r.dispatch("sensors/abc/data", []byte{0xff, 0xfe, 0xfd})
	assert.False(t, called)
}
