package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider records the last call it received.
type fakeProvider struct {
	name     string
	lastMsgs []Message
	lastOpts Options
}

func (f *fakeProvider) Name() string              { return f.name }
func (f *fakeProvider) AvailableModels() []string { return []string{"fake-1"} }
func (f *fakeProvider) DefaultModel() string      { return "fake-1" }

func (f *fakeProvider) Generate(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	f.lastMsgs = messages
	f.lastOpts = opts
	return &Response{Content: "ok"}, nil
}

func (f *fakeProvider) GenerateStream(ctx context.Context, messages []Message, opts Options) (<-chan StreamChunk, error) {
	f.lastMsgs = messages
	f.lastOpts = opts
	ch := make(chan StreamChunk, 1)
	ch <- StreamChunk{Done: true}
	close(ch)
	return ch, nil
}

func TestServiceResolve(t *testing.T) {
	svc := NewService("alpha")
	alpha := &fakeProvider{name: "alpha"}
	beta := &fakeProvider{name: "beta"}
	svc.Register(alpha)
	svc.Register(beta)

	t.Run("by name", func(t *testing.T) {
		p, err := svc.Resolve("beta")
		require.NoError(t, err)
		assert.Equal(t, "beta", p.Name())
	})

	t.Run("empty name falls back to default", func(t *testing.T) {
		p, err := svc.Resolve("")
		require.NoError(t, err)
		assert.Equal(t, "alpha", p.Name())
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := svc.Resolve("gamma")

		var unsupportedErr *UnsupportedProviderError
		require.ErrorAs(t, err, &unsupportedErr)
		assert.Equal(t, "gamma", unsupportedErr.Provider)
	})
}

func TestServiceAppliesDefaults(t *testing.T) {
	svc := NewService("alpha")
	alpha := &fakeProvider{name: "alpha"}
	svc.Register(alpha)

	_, err := svc.Generate(context.Background(), "alpha", []Message{{Role: RoleUser, Content: "hi"}}, Options{APIKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, DefaultTemperature, alpha.lastOpts.Temperature)
	assert.Equal(t, DefaultMaxTokens, alpha.lastOpts.MaxTokens)
	assert.Equal(t, "k", alpha.lastOpts.APIKey)

	_, err = svc.Generate(context.Background(), "alpha", nil, Options{Temperature: 0.2, MaxTokens: 100})
	require.NoError(t, err)
	assert.Equal(t, 0.2, alpha.lastOpts.Temperature)
	assert.Equal(t, 100, alpha.lastOpts.MaxTokens)
}

func TestServiceGenerateFromPrompt(t *testing.T) {
	svc := NewService("alpha")
	alpha := &fakeProvider{name: "alpha"}
	svc.Register(alpha)

	resp, err := svc.GenerateFromPrompt(context.Background(), "", "build me a query", Options{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)

	require.Len(t, alpha.lastMsgs, 1)
	assert.Equal(t, RoleUser, alpha.lastMsgs[0].Role)
	assert.Equal(t, "build me a query", alpha.lastMsgs[0].Content)
}

func TestProvidersInfo(t *testing.T) {
	svc := NewService("alpha")
	svc.Register(&fakeProvider{name: "alpha"})
	svc.Register(&fakeProvider{name: "beta"})

	infos := svc.ProvidersInfo()
	require.Len(t, infos, 2)

	byName := make(map[string]ProviderInfo, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
	}
	assert.True(t, byName["alpha"].Default)
	assert.False(t, byName["beta"].Default)
	assert.Equal(t, []string{"fake-1"}, byName["alpha"].Models)
}
