package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_Name(t *testing.T) {
	l := New("gemini", 10, 1)
	assert.Equal(t, "gemini", l.Name())
}

func TestLimiter_WaitAllowsBurst(t *testing.T) {
	l := New("stt", 1, 2)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, l.Wait(ctx))
	assert.NoError(t, l.Wait(ctx))
}

func TestLimiter_WaitRespectsCancelledContext(t *testing.T) {
	l := New("weather", 0.001, 1)
	assert.NoError(t, l.Wait(context.Background())) // consumes the single burst token

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	assert.Error(t, err)
}
