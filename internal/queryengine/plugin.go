package queryengine

import "context"

// TablePlugin registers exactly one table with a fixed schema inside a
// namespace. Its Data producer is called on every scan.
type TablePlugin interface {
	Namespace() string
	TableName() string
	Schema() []Field
	Data(ctx context.Context) (*RecordBatch, error)
}

// NamespacePlugin registers a whole namespace whose table list is dynamic:
// List names the tables currently available, and Table lazily produces one
// of them. A NamespacePlugin's returned RecordBatch also supplies the
// table's schema, since namespace tables are not statically typed.
type NamespacePlugin interface {
	Namespace() string
	List(ctx context.Context) ([]string, error)
	Table(ctx context.Context, name string) (*RecordBatch, error)
}

// Plugin is the sum type passed to Engine.Enable: exactly one of Table or
// Namespace is non-nil, mirroring the spec's Table/Namespace plugin
// variants while keeping a single registration entry point.
type Plugin struct {
	Table     TablePlugin
	Namespace NamespacePlugin
}

// FromTable wraps a TablePlugin as a Plugin.
func FromTable(p TablePlugin) Plugin { return Plugin{Table: p} }

// FromNamespace wraps a NamespacePlugin as a Plugin.
func FromNamespace(p NamespacePlugin) Plugin { return Plugin{Namespace: p} }

// namespaceName returns the namespace this plugin registers into,
// regardless of which variant it is.
func (p Plugin) namespaceName() string {
	if p.Table != nil {
		return p.Table.Namespace()
	}
	return p.Namespace.Namespace()
}
