package checksum_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"VentaCommSaas/internal/checksum"
)

func TestFileHash(t *testing.T) {
	a := checksum.FileHash([]byte("ventas marzo"))
	b := checksum.FileHash([]byte("ventas marzo"))
	c := checksum.FileHash([]byte("ventas abril"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)

	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		checksum.FileHash(nil))
}

func TestMatcherSeen(t *testing.T) {
	m := checksum.NewMatcher()
	h := checksum.FileHash([]byte("ventas marzo"))

	assert.False(t, m.Seen(h))
	assert.True(t, m.Seen(h))
	assert.False(t, m.Seen(checksum.FileHash([]byte("ventas abril"))))
}
