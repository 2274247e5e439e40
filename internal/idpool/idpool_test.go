package idpool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ctcsys/ctc-core/internal/idpool"
	"github.com/ctcsys/ctc-core/internal/models"
)

func TestGenerate_MonotonicPerLine(t *testing.T) {
	p := idpool.New()
	assert.Equal(t, "R001", p.Generate(models.LineRed))
	assert.Equal(t, "R002", p.Generate(models.LineRed))
	assert.Equal(t, "G001", p.Generate(models.LineGreen))
}

func TestRelease_DoesNotRecycle(t *testing.T) {
	p := idpool.New()
	id := p.Generate(models.LineRed)
	p.Release(id)
	assert.True(t, p.IsReleased(id))
	next := p.Generate(models.LineRed)
	assert.NotEqual(t, id, next)
	assert.Equal(t, "R002", next)
}
