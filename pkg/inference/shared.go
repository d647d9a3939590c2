package inference

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mmtools/pkg/fingerprint"
	"github.com/effective-security/mmtools/pkg/metricskey"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mmtools", "inference")

// Shared is a cache of loaded models, keyed by the canonical form of the Spec.
// Tools built on the same heavy model load it once.
type Shared struct {
	runtime Runtime

	lock   sync.Mutex
	models map[string]*sharedEntry
	inUse  map[Model]*sync.Mutex
}

type sharedEntry struct {
	once  sync.Once
	model Model
	err   error
}

// NewShared returns a cache backed by the runtime.
func NewShared(runtime Runtime) *Shared {
	return &Shared{
		runtime: runtime,
		models:  make(map[string]*sharedEntry),
		inUse:   make(map[Model]*sync.Mutex),
	}
}

// Runtime returns the underlying runtime.
func (s *Shared) Runtime() Runtime {
	return s.runtime
}

// Load returns a cached model for the spec, or loads it with the runtime.
// A failed load is not cached.
func (s *Shared) Load(ctx context.Context, spec *Spec) (Model, error) {
	if spec == nil {
		return nil, errors.New("model spec is nil")
	}
	key, err := fingerprint.Canonical(spec)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid spec for task %s", spec.Task)
	}

	s.lock.Lock()
	entry, ok := s.models[string(key)]
	if !ok {
		entry = new(sharedEntry)
		s.models[string(key)] = entry
	}
	s.lock.Unlock()

	if ok {
		metricskey.StatsModelCacheHits.IncrCounter(1, spec.Task)
	}

	entry.once.Do(func() {
		entry.model, entry.err = s.runtime.Load(ctx, spec)
		if entry.err == nil {
			metricskey.StatsModelsLoaded.IncrCounter(1, spec.Task)
			logger.ContextKV(ctx, xlog.DEBUG,
				"status", "model_loaded",
				"task", spec.Task,
				"model", spec.Model,
				"device", spec.Device,
			)
		}
	})

	if entry.err != nil {
		err := entry.err
		s.lock.Lock()
		if s.models[string(key)] == entry {
			delete(s.models, string(key))
		}
		s.lock.Unlock()
		return nil, err
	}
	return entry.model, nil
}

// Lock serializes the callers of the model, and returns the unlock function.
// Tools that move a shared model between devices hold it for the whole call.
func (s *Shared) Lock(model Model) func() {
	s.lock.Lock()
	mu, ok := s.inUse[model]
	if !ok {
		mu = new(sync.Mutex)
		s.inUse[model] = mu
	}
	s.lock.Unlock()

	mu.Lock()
	return mu.Unlock
}

// Len returns the number of cached models.
func (s *Shared) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.models)
}
