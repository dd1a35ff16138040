package main

import (
	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"

	"github.com/sells-group/hotleads/internal/model"
)

// acquireRunLock takes the per-store run lock without waiting. Another
// hotleads process holding it yields ErrRunInProgress.
func acquireRunLock(path string) (func(), error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, eris.Wrapf(err, "lock %s", path)
	}
	if !ok {
		return nil, eris.Wrapf(model.ErrRunInProgress, "lock %s held by another process", path)
	}
	return func() { _ = fl.Unlock() }, nil
}
