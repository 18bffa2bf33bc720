package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "GLOBAL.x", Key("x", Global))
	assert.Equal(t, "POCKET.key1", Key("key1", Pocket))
	assert.Equal(t, "1.score", Key("score", SceneScope("1")))
	assert.Equal(t, "torch.lit", Key("lit", ItemScope("torch")))
}

func TestInsertAndGet(t *testing.T) {
	tab := New()

	err := tab.Insert("score", 0, TypeInteger, SceneScope("1"), false)
	assert.NoError(t, err)

	entry, ok := tab.Get("score", SceneScope("1"))
	assert.True(t, ok)
	assert.Equal(t, TypeInteger, entry.Type)
	assert.False(t, entry.God)
}

func TestInsertDuplicateFails(t *testing.T) {
	tab := New()
	assert.NoError(t, tab.Insert("1", nil, TypeScene, Global, false))
	err := tab.Insert("1", nil, TypeScene, Global, false)
	assert.Error(t, err)
}

func TestUpdateRequiresExistingEntry(t *testing.T) {
	tab := New()
	err := tab.Update("nope", nil, TypeString, Global, false)
	assert.Error(t, err)

	assert.NoError(t, tab.Insert("nope", "first", TypeString, Global, false))
	assert.NoError(t, tab.Update("nope", "second", TypeString, Global, true))

	entry, ok := tab.Get("nope", Global)
	assert.True(t, ok)
	assert.Equal(t, "second", entry.Value)
	assert.True(t, entry.God)
}

func TestGetWithKeyMatchesKey(t *testing.T) {
	tab := New()
	assert.NoError(t, tab.Insert("x", 5, TypeInteger, SceneScope("2"), true))

	byKey, ok := tab.GetWithKey(Key("x", SceneScope("2")))
	assert.True(t, ok)
	assert.Equal(t, 5, byKey.Value)
}

func TestScopeString(t *testing.T) {
	assert.Equal(t, "GLOBAL", Global.String())
	assert.Equal(t, "POCKET", Pocket.String())
	assert.Equal(t, "3", SceneScope("3").String())
	assert.Equal(t, "key1", ItemScope("key1").String())
}
