package draft

import (
	"context"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"

	"github.com/kimsangwoo/bizmsg/internal/model"
)

type fakeCache struct {
	values map[string]string
}

func (c *fakeCache) SetWithRetry(_ context.Context, _ retry.Strategy, key string, value interface{}) error {
	if c.values == nil {
		c.values = make(map[string]string)
	}
	c.values[key] = value.(string)

	return nil
}

func (c *fakeCache) GetWithRetry(_ context.Context, _ retry.Strategy, key string) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return "", goredis.Nil
	}

	return v, nil
}

var strategy = retry.Strategy{Attempts: 1, Delay: time.Millisecond}

func TestStore_SaveLoad(t *testing.T) {
	cache := &fakeCache{}
	store := NewStore(cache)
	ctx := context.Background()

	d := model.Draft{
		Channel:    model.ChannelFriendtalk,
		ProfileID:  "sender-key-1",
		Body:       "#[이름]님, 신메뉴 안내",
		CommonVars: map[string]string{"이름": "고객"},
		Recipients: []model.Recipient{{Phone: "01012345678"}},
	}

	require.NoError(t, store.Save(ctx, strategy, Snapshot{Key: "campaign-42", Draft: d}))

	snap, err := store.Load(ctx, strategy, "campaign-42")
	require.NoError(t, err)
	assert.Equal(t, "campaign-42", snap.Key)
	assert.Equal(t, d.Body, snap.Draft.Body)
	assert.Equal(t, d.Recipients, snap.Draft.Recipients)
	assert.False(t, snap.SavedAt.IsZero())
}

func TestStore_Save_EmptyKey(t *testing.T) {
	store := NewStore(&fakeCache{})

	err := store.Save(context.Background(), strategy, Snapshot{})
	require.Error(t, err)
}

func TestStore_Load_Missing(t *testing.T) {
	store := NewStore(&fakeCache{})

	_, err := store.Load(context.Background(), strategy, "nope")
	assert.ErrorIs(t, err, goredis.Nil)
}
