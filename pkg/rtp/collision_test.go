package rtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollisionDetectorBelowThreshold(t *testing.T) {
	var d CollisionDetector
	assert.False(t, d.RecordForeignCollision(3))
	assert.False(t, d.RecordForeignCollision(3))
	assert.False(t, d.RecordForeignCollision(3))
	assert.Equal(t, uint32(3), d.Collisions())
}

func TestCollisionDetectorExceedsThreshold(t *testing.T) {
	var d CollisionDetector
	for i := 0; i < 3; i++ {
		assert.False(t, d.RecordForeignCollision(3))
	}
	assert.True(t, d.RecordForeignCollision(3))
	assert.Equal(t, uint32(4), d.Collisions())
}
