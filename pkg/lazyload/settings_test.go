package lazyload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lazyimg/pkg/html"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, 250.0, s.Offset)
	assert.Equal(t, 250*time.Millisecond, s.ThrottleInterval)
	assert.Equal(t, "lazy-loaded", s.LoadedClass)
	assert.Equal(t, "preloader-icon", s.PreloaderClass)
	assert.Equal(t, "data-src", s.SrcAttr)
	assert.Equal(t, "data-srcset", s.SrcsetAttr)
	assert.Nil(t, s.Context)
}

func TestSettingsMerge_ReturnsNewValue(t *testing.T) {
	base := DefaultSettings()
	root := html.NewElement("main", nil)

	merged := base.Merge(Options{
		Context:     root,
		Offset:      Ptr(0.0),
		LoadedClass: Ptr("done"),
	})

	assert.Equal(t, 250.0, base.Offset, "receiver must not change")
	assert.Equal(t, "lazy-loaded", base.LoadedClass)
	assert.Equal(t, 0.0, merged.Offset, "explicit zero overrides")
	assert.Equal(t, "done", merged.LoadedClass)
	assert.Same(t, root, merged.Context)
	assert.Equal(t, base.ThrottleInterval, merged.ThrottleInterval, "unset fields keep their value")
}

func TestSettingsMerge_LaterWins(t *testing.T) {
	s := DefaultSettings().
		Merge(Options{Offset: Ptr(10.0), PreloaderClass: Ptr("spin")}).
		Merge(Options{Offset: Ptr(20.0)})
	assert.Equal(t, 20.0, s.Offset)
	assert.Equal(t, "spin", s.PreloaderClass)
}
