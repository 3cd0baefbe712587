package ratesources_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"VentaCommSaas/pkg/ratesources"
)

func TestRotationRoundRobin(t *testing.T) {
	r := ratesources.NewRotation([]ratesources.Source{
		{Name: "bcv", URL: "https://www.bcv.org.ve"},
		{Name: "mirror-2", URL: "https://mirror.example.com/bcv"},
	})

	assert.Equal(t, 2, r.Len())

	var names []string
	for i := 0; i < 5; i++ {
		src, ok := r.Next()
		assert.True(t, ok)
		names = append(names, src.Name)
	}
	assert.Equal(t, []string{"bcv", "mirror-2", "bcv", "mirror-2", "bcv"}, names)
}

func TestRotationEmpty(t *testing.T) {
	r := ratesources.NewRotation(nil)
	_, ok := r.Next()
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}
