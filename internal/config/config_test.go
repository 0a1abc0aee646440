package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVAPIDConfigured(t *testing.T) {
	assert.False(t, (&Config{}).VAPIDConfigured())
	assert.False(t, (&Config{VAPIDPublicKey: "pub"}).VAPIDConfigured())
	assert.False(t, (&Config{VAPIDPrivateKey: "priv"}).VAPIDConfigured())
	assert.True(t, (&Config{VAPIDPublicKey: "pub", VAPIDPrivateKey: "priv"}).VAPIDConfigured())
}
