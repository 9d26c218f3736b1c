package middlewares

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvictStaleVisitors(t *testing.T) {
	getVisitor("203.0.113.10")
	getLoginVisitor("203.0.113.10")
	getVisitor("203.0.113.11")

	// Nothing is stale yet.
	evictStaleVisitors(time.Now())
	visitorsMu.Lock()
	assert.Len(t, visitors, 2)
	visitorsMu.Unlock()

	// Backdate one IP past the idle window.
	visitorsMu.Lock()
	visitors["203.0.113.10"].lastSeen = time.Now().Add(-2 * visitorMaxIdle)
	visitorsMu.Unlock()
	loginVisitorsMu.Lock()
	loginVisitors["203.0.113.10"].lastSeen = time.Now().Add(-2 * visitorMaxIdle)
	loginVisitorsMu.Unlock()

	evictStaleVisitors(time.Now())

	visitorsMu.Lock()
	_, stale := visitors["203.0.113.10"]
	_, fresh := visitors["203.0.113.11"]
	visitorsMu.Unlock()
	assert.False(t, stale)
	assert.True(t, fresh)

	loginVisitorsMu.Lock()
	_, stale = loginVisitors["203.0.113.10"]
	loginVisitorsMu.Unlock()
	assert.False(t, stale)
}

func TestEvictedVisitorGetsFreshLimiter(t *testing.T) {
	first := getVisitor("203.0.113.20")
	require.NotNil(t, first)

	visitorsMu.Lock()
	visitors["203.0.113.20"].lastSeen = time.Now().Add(-2 * visitorMaxIdle)
	visitorsMu.Unlock()
	evictStaleVisitors(time.Now())

	second := getVisitor("203.0.113.20")
	assert.NotSame(t, first, second)
}

func TestGetVisitorReusesLimiter(t *testing.T) {
	first := getVisitor("203.0.113.30")
	second := getVisitor("203.0.113.30")
	assert.Same(t, first, second)
}
