package snapshot

import "github.com/kilianp07/feederwatch/core/factory"

var storeRegistry = factory.NewRegistry[Store]()

// RegisterStore adds a store factory identified by name.
func RegisterStore(name string, f factory.Factory[Store]) error {
	return storeRegistry.Register(name, f)
}

// NewStore creates the store described by cfg. An empty type selects the
// file backend.
func NewStore(cfg factory.ModuleConfig) (Store, error) {
	if cfg.Type == "" {
		cfg.Type = "file"
	}
	return storeRegistry.Create(cfg)
}

// StoreTypes lists the registered backend names.
func StoreTypes() []string { return storeRegistry.Names() }
