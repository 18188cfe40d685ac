package netguard

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBlocked(t *testing.T) {
	blocked := []string{
		"127.0.0.1",
		"10.1.2.3",
		"172.17.0.2",
		"192.168.1.1",
		"169.254.169.254",
		"::1",
		"fe80::1",
	}
	for _, raw := range blocked {
		assert.True(t, IsBlocked(net.ParseIP(raw)), raw)
	}

	public := []string{"8.8.8.8", "93.184.216.34", "2606:4700::1111"}
	for _, raw := range public {
		assert.False(t, IsBlocked(net.ParseIP(raw)), raw)
	}
}

func TestHostIsInternalIPLiterals(t *testing.T) {
	ctx := context.Background()
	assert.True(t, HostIsInternal(ctx, "192.168.1.1"))
	assert.True(t, HostIsInternal(ctx, "127.0.0.1"))
	assert.False(t, HostIsInternal(ctx, "8.8.8.8"))
}
