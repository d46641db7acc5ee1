package plugins

import (
	"sort"
	"sync"

	"github.com/mindwell-ai/mindwell/app/core"
)

var (
	mu       sync.RWMutex
	provider = make(map[string]core.SetupFunc)
)

func Setup(install func(p core.Plugins), mode string) {
	mu.RLock()
	p := provider[mode]
	mu.RUnlock()
	if p == nil {
		panic("Setup mode not found: " + mode)
	}
	install(p())
}

func RegisterProvider(key string, p core.Plugins) {
	mu.Lock()
	defer mu.Unlock()
	provider[key] = func() core.Plugins {
		return p
	}
}

// Modes lists the registered deployment modes.
func Modes() []string {
	mu.RLock()
	defer mu.RUnlock()
	list := make([]string, 0, len(provider))
	for k := range provider {
		list = append(list, k)
	}
	sort.Strings(list)
	return list
}
