// Package lifecycle holds the age-gated rules that move articles through
// headline rotation, locking, visibility decay and recovery.
//
// Every rule reads age as whole days elapsed since the article date. A record
// whose date is unknown is skipped by every rule rather than treated as new.
package lifecycle

import (
	"ArticleSignals/internal/config"
	"ArticleSignals/internal/ports"
)

// Passes returns the rules in their declared run order.
func Passes(cfg config.LifecycleConfig) []ports.Pass {
	return []ports.Pass{
		NewResurfacing(cfg),
		NewContentDecay(cfg),
		NewLowSignalGuard(cfg),
		NewEarlyWarning(cfg),
		NewRecovery(cfg),
		NewEvergreenRefresh(cfg),
	}
}
