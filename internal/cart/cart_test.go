package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beanstand/internal/model"
)

func TestAdd_MergesIntoExistingLine(t *testing.T) {
	c := New()
	p := model.Product{ID: "bean-001", Name: "House Blend", Price: 500}
	c.Add(p)
	c.Add(p)

	lines := c.Lines()
	require.Len(t, lines, 1, "same product must never produce two lines")
	assert.Equal(t, int64(2), lines[0].Quantity)
}

func TestAdd_PreservesInsertionOrder(t *testing.T) {
	c := New()
	c.Add(model.Product{ID: "bean-002"})
	c.Add(model.Product{ID: "bean-001"})
	c.Add(model.Product{ID: "bean-002"})

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "bean-002", lines[0].Product.ID)
	assert.Equal(t, "bean-001", lines[1].Product.ID)
}

func TestDecrease_RemovesLineAtQuantityOne(t *testing.T) {
	c := New()
	c.Add(model.Product{ID: "bean-001"})
	c.Decrease("bean-001")

	assert.True(t, c.Empty())
	assert.Empty(t, c.Lines())
}

func TestDecrease_LowersQuantity(t *testing.T) {
	c := New()
	p := model.Product{ID: "bean-001"}
	c.Add(p)
	c.Add(p)
	c.Add(p)
	c.Decrease("bean-001")

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(2), lines[0].Quantity)
}

func TestIncrease_UnknownIDIsNoop(t *testing.T) {
	c := New()
	c.Add(model.Product{ID: "bean-001"})
	c.Increase("bean-999")

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(1), lines[0].Quantity)
}

func TestRemoveAndClear(t *testing.T) {
	c := New()
	c.Add(model.Product{ID: "bean-001"})
	c.Add(model.Product{ID: "bean-002"})

	c.Remove("bean-001")
	require.Len(t, c.Lines(), 1)

	c.Remove("bean-404") // no-op
	require.Len(t, c.Lines(), 1)

	c.Clear()
	assert.True(t, c.Empty())
}

func TestRegistry_OneCartPerUser(t *testing.T) {
	r := NewRegistry()
	a := r.For(1)
	b := r.For(2)
	require.NotSame(t, a, b)

	a.Add(model.Product{ID: "bean-001"})
	assert.True(t, b.Empty(), "carts must be isolated per user")
	assert.Same(t, a, r.For(1), "same session gets the same cart back")
}
