// Package module is the contract the api mounts and the lookups main wires ports through
package module

import (
	"reflect"
	"sync"

	phttp "newslens/internal/platform/net/http"
)

type Module interface {
	MountRoutes(r phttp.Router)
	// Ports is the module's port struct, nil when it exports none
	Ports() any
	Name() string
}

// PortsOf finds a T in m.Ports: the value itself or one of its exported struct fields
func PortsOf[T any](m Module) (T, bool) {
	var zero T
	p := m.Ports()
	if p == nil {
		return zero, false
	}
	if v, ok := p.(T); ok {
		return v, true
	}
	rv := reflect.ValueOf(p)
	if rv.Kind() != reflect.Struct {
		return zero, false
	}
	for i := range rv.NumField() {
		if f := rv.Field(i); f.CanInterface() {
			if v, ok := f.Interface().(T); ok {
				return v, true
			}
		}
	}
	return zero, false
}

// MustPortsOf is PortsOf for startup wiring, where a missing port is a bug
func MustPortsOf[T any](m Module) T {
	v, ok := PortsOf[T](m)
	if !ok {
		panic("module " + m.Name() + " has no port of type " + reflect.TypeFor[T]().String())
	}
	return v
}

var (
	mu  sync.RWMutex
	reg = map[string]any{}
)

// Register records ports under a module name; a later call replaces the entry
func Register(name string, ports any) {
	mu.Lock()
	defer mu.Unlock()
	reg[name] = ports
}

func PortsAs[T any](name string) (T, bool) {
	mu.RLock()
	defer mu.RUnlock()
	v, ok := reg[name].(T)
	return v, ok
}
