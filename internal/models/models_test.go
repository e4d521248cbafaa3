package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderPending, OrderConfirmed, true},
		{OrderPending, OrderCancelled, true},
		{OrderPending, OrderCompleted, false},
		{OrderPreparing, OrderOutForDelivery, true},
		{OrderPreparing, OrderReadyForPickup, true},
		{OrderOutForDelivery, OrderCompleted, true},
		{OrderCompleted, OrderCancelled, false},
		{OrderCancelled, OrderPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNodeLevel(t *testing.T) {
	assert.True(t, LevelCategory.Valid())
	assert.True(t, LevelProductLine.Valid())
	assert.False(t, NodeLevel("store").Valid())

	assert.Equal(t, "categories", TableForLevel(LevelCategory))
	assert.Equal(t, "brands", TableForLevel(LevelBrand))
	assert.Equal(t, "product_lines", TableForLevel(LevelProductLine))
	assert.Empty(t, TableForLevel("store"))
}

func TestNewPaginationInfo(t *testing.T) {
	p := NewPaginationInfo(2, 20, 45)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrevious)

	p = NewPaginationInfo(1, 20, 0)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrevious)
}
