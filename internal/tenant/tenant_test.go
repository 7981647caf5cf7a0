package tenant

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResolveHeaderWins(t *testing.T) {
	header := uuid.NewString()
	claim := uuid.NewString()

	id, ok := Resolve(header, claim)
	assert.True(t, ok)
	assert.Equal(t, header, id)
}

func TestResolveFallsBackToClaim(t *testing.T) {
	claim := uuid.NewString()

	id, ok := Resolve("", claim)
	assert.True(t, ok)
	assert.Equal(t, claim, id)

	id, ok = Resolve("not-a-uuid", claim)
	assert.True(t, ok, "malformed header is treated as absent")
	assert.Equal(t, claim, id)
}

func TestResolveNothing(t *testing.T) {
	_, ok := Resolve("", "")
	assert.False(t, ok)

	_, ok = Resolve("garbage", "also-garbage")
	assert.False(t, ok)
}

func TestWithAndFrom(t *testing.T) {
	id := uuid.NewString()
	ctx := With(context.Background(), id)

	got, ok := From(ctx)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = From(context.Background())
	assert.False(t, ok)
}

func TestWithDoesNotOverwrite(t *testing.T) {
	first := uuid.NewString()
	second := uuid.NewString()

	ctx := With(context.Background(), first)
	ctx = With(ctx, second)

	got, _ := From(ctx)
	assert.Equal(t, first, got, "resolved tenant is immutable for the operation")
}

func TestWithEmptyIsNoop(t *testing.T) {
	ctx := With(context.Background(), "")
	_, ok := From(ctx)
	assert.False(t, ok)
}
