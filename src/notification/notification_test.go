package notification

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"screen-vision/src/session"
	"screen-vision/src/vision"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ñññ...", truncate("ñññññ", 3))

	long := strings.Repeat("x", 250)
	assert.Len(t, truncate(long, maxLength), maxLength+3)
}

func TestTargetNeverFails(t *testing.T) {
	target := Target{}
	res := session.Result{Analysis: &vision.Analysis{
		Description: vision.Description{Captions: []vision.Caption{{Text: "a desk", Confidence: 0.9}}},
	}}
	assert.NoError(t, target.OnSuccess(res))
	assert.NoError(t, target.OnFailure(errors.New("boom")))
}
