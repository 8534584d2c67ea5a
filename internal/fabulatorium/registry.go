package fabulatorium

import (
	"context"
	"servus/internal/global"
	"servus/internal/logctx"
)

func NewRegistry(ctx context.Context, fabulators []Fabulator) (registry *Registry) {
	registry = &Registry{}
	registry.Replace(ctx, fabulators)
	return
}

// Swaps in a new set of fabulator definitions (configuration reload)
func (registry *Registry) Replace(ctx context.Context, fabulators []Fabulator) {
	defined := make(map[string]Fabulator, len(fabulators))
	for _, fabulator := range fabulators {
		notification := "without"
		if fabulator.DefaultNotification {
			notification = "with"
		}
		logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
			"Defined fabulator \"%s\" with defaults: severity %d %s notification\n",
			fabulator.Name, fabulator.DefaultSeverity, notification)
		defined[fabulator.Name] = fabulator
	}

	registry.mutex.Lock()
	registry.fabulators = defined
	registry.mutex.Unlock()
}

// Nil registry knows nobody
func (registry *Registry) Lookup(name string) (fabulator Fabulator, known bool) {
	if registry == nil {
		return
	}
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()
	fabulator, known = registry.fabulators[name]
	return
}

func (registry *Registry) Len() (count int) {
	if registry == nil {
		return
	}
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()
	count = len(registry.fabulators)
	return
}
