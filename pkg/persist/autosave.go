package persist

import (
	"time"

	"github.com/bep/debounce"
	"github.com/chazu/spatial/pkg/store"
)

// DefaultSaveDelay coalesces the bursts of changes a drag produces.
const DefaultSaveDelay = 500 * time.Millisecond

// AutoSave returns a change hook that saves export() to r once changes
// have been quiet for delay. Save errors are logged.
func (r *Repository) AutoSave(export func() store.Document, delay time.Duration) func() {
	debounced := debounce.New(delay)
	save := func() {
		if err := r.Save(export()); err != nil {
			r.log.WithError(err).Error("persist: autosave failed")
		}
	}
	return func() { debounced(save) }
}
