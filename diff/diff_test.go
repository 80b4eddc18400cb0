package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/keyscout/types"
)

func key(provider, hash, source string, score float64) types.DiscoveredKey {
	return types.DiscoveredKey{
		Provider:   provider,
		Hash:       hash,
		Source:     source,
		Score:      score,
		Confidence: types.ConfidenceFromScore(score),
	}
}

func TestDetect_FirstScanIsAllAppeared(t *testing.T) {
	current := &types.ScanResult{
		Keys: []types.DiscoveredKey{key("openai", "h1", "/home/u/.env", 0.95)},
		Instances: []types.ConfigInstance{
			{InstanceID: "dotenv:/home/u/.env", Scanner: "dotenv", Path: "/home/u/.env"},
		},
	}

	changes := Detect(nil, current)

	require.Len(t, changes.Keys, 1)
	assert.Equal(t, ChangeAppeared, changes.Keys[0].ChangeType)
	assert.Equal(t, "openai:h1", changes.Keys[0].Identity)
	assert.Nil(t, changes.Keys[0].Previous)

	require.Len(t, changes.Instances, 1)
	assert.Equal(t, ChangeAppeared, changes.Instances[0].ChangeType)
}

func TestDetect_NoChanges(t *testing.T) {
	a := &types.ScanResult{
		Keys: []types.DiscoveredKey{key("openai", "h1", "/home/u/.env", 0.95)},
	}
	b := &types.ScanResult{
		Keys: []types.DiscoveredKey{key("openai", "h1", "/home/u/.env", 0.95)},
	}

	changes := Detect(a, b)
	assert.True(t, changes.Empty())
}

func TestDetect_KeyMovedBetweenFiles(t *testing.T) {
	previous := &types.ScanResult{
		Keys: []types.DiscoveredKey{key("openai", "h1", "/home/u/.env", 0.95)},
	}
	current := &types.ScanResult{
		Keys: []types.DiscoveredKey{key("openai", "h1", "/home/u/.envrc", 0.95)},
	}

	changes := Detect(previous, current)

	require.Len(t, changes.Keys, 1)
	assert.Equal(t, ChangeModified, changes.Keys[0].ChangeType, "same identity in a new file is a move, not churn")
	assert.Equal(t, "/home/u/.env", changes.Keys[0].Previous.Source)
	assert.Equal(t, "/home/u/.envrc", changes.Keys[0].Current.Source)
}

func TestDetect_AppearedAndDisappeared(t *testing.T) {
	previous := &types.ScanResult{
		Keys: []types.DiscoveredKey{key("openai", "h1", "/home/u/.env", 0.95)},
	}
	current := &types.ScanResult{
		Keys: []types.DiscoveredKey{key("anthropic", "h2", "/home/u/.env", 0.95)},
	}

	changes := Detect(previous, current)
	require.Len(t, changes.Keys, 2)

	byType := map[ChangeType]KeyChange{}
	for _, c := range changes.Keys {
		byType[c.ChangeType] = c
	}
	assert.Equal(t, "anthropic:h2", byType[ChangeAppeared].Identity)
	assert.Equal(t, "openai:h1", byType[ChangeDisappeared].Identity)
	assert.Nil(t, byType[ChangeDisappeared].Current)
}

func TestDetect_InstanceKeyCountChange(t *testing.T) {
	previous := &types.ScanResult{
		Instances: []types.ConfigInstance{
			{InstanceID: "dotenv:/home/u/.env", KeyCount: 1},
		},
	}
	current := &types.ScanResult{
		Instances: []types.ConfigInstance{
			{InstanceID: "dotenv:/home/u/.env", KeyCount: 2},
		},
	}

	changes := Detect(previous, current)
	require.Len(t, changes.Instances, 1)
	assert.Equal(t, ChangeModified, changes.Instances[0].ChangeType)
}
