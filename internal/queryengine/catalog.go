package queryengine

import (
	"fmt"
	"sort"
	"sync"
)

// namespaceEntry is one schema of the probe catalog: a fixed set of
// statically registered tables plus, optionally, one dynamic namespace
// plugin supplying a table list and lazy table producer.
type namespaceEntry struct {
	tables  map[string]TablePlugin
	dynamic NamespacePlugin
}

// Catalog is the single "probe" catalog: namespaces created lazily on
// first plugin registration, each holding a set of tables (some static via
// Table plugins, some lazy via a Namespace plugin).
type Catalog struct {
	mu         sync.RWMutex
	namespaces map[string]*namespaceEntry
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{namespaces: make(map[string]*namespaceEntry)}
}

// Enable registers a Plugin. Registering a Table plugin whose
// (namespace, name) already holds a table is an error. Registering a
// second Namespace plugin for the same namespace is an error.
func (c *Catalog) Enable(p Plugin) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ns := p.namespaceName()
	entry, ok := c.namespaces[ns]
	if !ok {
		entry = &namespaceEntry{tables: make(map[string]TablePlugin)}
		c.namespaces[ns] = entry
	}

	switch {
	case p.Table != nil:
		name := p.Table.TableName()
		if _, exists := entry.tables[name]; exists {
			return fmt.Errorf("queryengine: table %q already registered in namespace %q", name, ns)
		}
		entry.tables[name] = p.Table
	case p.Namespace != nil:
		if entry.dynamic != nil {
			return fmt.Errorf("queryengine: namespace %q already has a registered namespace plugin", ns)
		}
		entry.dynamic = p.Namespace
	default:
		return fmt.Errorf("queryengine: plugin has neither a Table nor a Namespace variant set")
	}
	return nil
}

// Namespaces lists registered namespace names in sorted order.
func (c *Catalog) Namespaces() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.namespaces))
	for n := range c.namespaces {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// namespace returns the entry for ns, or nil if unregistered.
func (c *Catalog) namespace(ns string) *namespaceEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.namespaces[ns]
}
