package profile

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mesh-intelligence/profilefields/pkg/types"
)

// Constructor wraps a Base in a datatype implementation.
type Constructor func(b *Base) Field

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register makes a datatype available by name. Registering a name twice
// replaces the earlier constructor.
func Register(datatype string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[datatype] = ctor
}

// Datatypes returns the registered datatype names, sorted.
func Datatypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether datatype has a constructor.
func IsRegistered(datatype string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[datatype]
	return ok
}

// New creates the datatype implementation for fieldID and loads the
// definition and objectID's stored value.
func New(page *Page, datatype string, fieldID, objectID int64) (Field, error) {
	registryMu.RLock()
	ctor, ok := registry[datatype]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("datatype %q: %w", datatype, types.ErrUnknownDatatype)
	}
	b := newBase(page, fieldID, objectID)
	fl := ctor(b)
	if err := b.LoadData(); err != nil {
		return nil, err
	}
	return fl, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, types.ErrNotFound)
}
