package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGet(t *testing.T) {
	c := New(true)
	etag := c.Set("player:1", []byte(`{"id":1}`), time.Minute)

	data, got, ok := c.Get("player:1")
	assert.True(t, ok)
	assert.Equal(t, etag, got)
	assert.JSONEq(t, `{"id":1}`, string(data))

	_, _, ok = c.Get("player:2")
	assert.False(t, ok)
}

func TestExpired(t *testing.T) {
	c := New(true)
	c.Set("k", []byte("v"), -time.Second)
	_, _, ok := c.Get("k")
	assert.False(t, ok)

	c.evict()
	assert.Equal(t, 0, c.Stats()["total_keys"])
}

func TestDisabled(t *testing.T) {
	c := New(false)
	etag := c.Set("k", []byte("v"), time.Minute)
	assert.Equal(t, ComputeETag([]byte("v")), etag)
	_, _, ok := c.Get("k")
	assert.False(t, ok)
}

func TestDeletePrefix(t *testing.T) {
	c := New(true)
	c.Set("players:50:0", []byte("a"), time.Minute)
	c.Set("players:50:50", []byte("b"), time.Minute)
	c.Set("player:7", []byte("c"), time.Minute)
	c.Set("teams", []byte("d"), time.Minute)

	assert.Equal(t, 2, c.DeletePrefix("players:"))
	c.Delete("player:7")

	_, _, ok := c.Get("teams")
	assert.True(t, ok)
	assert.Equal(t, 1, c.Stats()["active_keys"])
}

func TestCheckETagMatch(t *testing.T) {
	etag := ComputeETag([]byte("payload"))
	assert.True(t, CheckETagMatch(etag, etag))
	assert.True(t, CheckETagMatch("*", etag))
	assert.True(t, CheckETagMatch(`W/"0000", `+etag, etag))
	assert.False(t, CheckETagMatch("", etag))
	assert.False(t, CheckETagMatch(`W/"0000"`, etag))
}

func TestInvalidatePlayer(t *testing.T) {
	c := New(true)
	c.Set(PlayerKey(737066), []byte("a"), time.Minute)
	c.Set(PlayerKey(1083323), []byte("b"), time.Minute)
	c.Set(PlayersKey(50, 0), []byte("c"), time.Minute)

	c.InvalidatePlayer(737066)

	_, _, ok := c.Get(PlayerKey(737066))
	assert.False(t, ok)
	_, _, ok = c.Get(PlayersKey(50, 0))
	assert.False(t, ok)
	_, _, ok = c.Get(PlayerKey(1083323))
	assert.True(t, ok)
}

func TestInvalidatePlayerLists(t *testing.T) {
	c := New(true)
	c.Set(PlayerKey(737066), []byte("a"), time.Minute)
	c.Set(PlayersKey(50, 0), []byte("b"), time.Minute)
	c.Set(PlayersKey(50, 50), []byte("c"), time.Minute)

	assert.Equal(t, 2, c.InvalidatePlayerLists())

	_, _, ok := c.Get(PlayersKey(50, 50))
	assert.False(t, ok)
	_, _, ok = c.Get(PlayerKey(737066))
	assert.True(t, ok, "dashboards read live tables and survive a view refresh")
}
