package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Count int
	Path  []string
}

func TestStateGraphConditionalLoop(t *testing.T) {
	g := NewStateGraph[*counter]()
	g.AddNode("inc", "Increment counter", func(ctx context.Context, c *counter) (*counter, error) {
		c.Count++
		c.Path = append(c.Path, "inc")
		return c, nil
	})
	g.AddNode("check", "Record check", func(ctx context.Context, c *counter) (*counter, error) {
		c.Path = append(c.Path, "check")
		return c, nil
	})
	g.SetEntryPoint("inc")
	g.AddEdge("inc", "check")
	g.AddConditionalEdge("check", func(ctx context.Context, c *counter) string {
		if c.Count >= 3 {
			return END
		}
		return "inc"
	})

	r, err := g.Compile()
	require.NoError(t, err)

	var events []NodeEvent
	r.AddListener(func(ctx context.Context, event NodeEvent, node string, c *counter, err error) {
		events = append(events, event)
	})

	final, err := r.Invoke(context.Background(), &counter{})
	require.NoError(t, err)
	assert.Equal(t, 3, final.Count)
	assert.Equal(t, []string{"inc", "check", "inc", "check", "inc", "check"}, final.Path)
	assert.Len(t, events, 12)
}

func TestStateGraphErrors(t *testing.T) {
	t.Run("entry point", func(t *testing.T) {
		_, err := NewStateGraph[int]().Compile()
		assert.ErrorIs(t, err, ErrEntryPointNotSet)

		g := NewStateGraph[int]()
		g.SetEntryPoint("missing")
		_, err = g.Compile()
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})

	t.Run("unknown edge target", func(t *testing.T) {
		g := NewStateGraph[int]()
		g.AddNode("a", "", func(ctx context.Context, s int) (int, error) { return s, nil })
		g.AddEdge("a", "b")
		g.SetEntryPoint("a")
		_, err := g.Compile()
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})

	t.Run("no outgoing edge", func(t *testing.T) {
		g := NewStateGraph[int]()
		g.AddNode("a", "", func(ctx context.Context, s int) (int, error) { return s + 1, nil })
		g.SetEntryPoint("a")
		r, err := g.Compile()
		require.NoError(t, err)
		_, err = r.Invoke(context.Background(), 0)
		assert.ErrorIs(t, err, ErrNoOutgoingEdge)
	})

	t.Run("node error", func(t *testing.T) {
		boom := errors.New("boom")
		g := NewStateGraph[int]()
		g.AddNode("a", "", func(ctx context.Context, s int) (int, error) { return s, boom })
		g.AddEdge("a", END)
		g.SetEntryPoint("a")
		r, err := g.Compile()
		require.NoError(t, err)
		_, err = r.Invoke(context.Background(), 0)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "error in node a")
	})

	t.Run("step limit", func(t *testing.T) {
		g := NewStateGraph[int]()
		g.AddNode("a", "", func(ctx context.Context, s int) (int, error) { return s + 1, nil })
		g.AddEdge("a", "a")
		g.SetEntryPoint("a")
		r, err := g.Compile()
		require.NoError(t, err)
		final, err := r.WithStepLimit(5).Invoke(context.Background(), 0)
		assert.ErrorIs(t, err, ErrStepLimit)
		assert.Equal(t, 5, final)
	})

	t.Run("cancelled context", func(t *testing.T) {
		g := NewStateGraph[int]()
		g.AddNode("a", "", func(ctx context.Context, s int) (int, error) { return s, nil })
		g.AddEdge("a", END)
		g.SetEntryPoint("a")
		r, err := g.Compile()
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = r.Invoke(ctx, 0)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
