package session

import (
	"sync"
	"testing"

	"github.com/hexfoot/engine/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestContext_Defaults(t *testing.T) {
	ctx := NewContext()

	assert.Equal(t, "No match loaded", ctx.GetMatch().HomeName)
	turn, phase, _ := ctx.Status()
	assert.Zero(t, turn)
	assert.Equal(t, "none", phase)
}

func TestContext_SetMatchResetsProgress(t *testing.T) {
	ctx := NewContext()
	ctx.Progress(12, "endOfMovement", [2]int{1, 0})

	ctx.SetMatch(&core.Match{HomeName: "Rovers"})

	turn, phase, score := ctx.Status()
	assert.Equal(t, "Rovers", ctx.GetMatch().HomeName)
	assert.Zero(t, turn)
	assert.Equal(t, "kickOff", phase)
	assert.Equal(t, [2]int{}, score)
}

func TestContext_ThreadSafe(t *testing.T) {
	ctx := NewContext()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			ctx.Progress(i, "movement", [2]int{i, 0})
		}(i)
		go func() {
			defer wg.Done()
			_, _, _ = ctx.Status()
			_ = ctx.GetMatch()
		}()
	}
	wg.Wait()
}
