package packs

// BuiltinLoader is implemented by each domain subpackage's pack
// constructors so NewBuiltinRegistry can stay generic; kept as a plain
// function type rather than an interface since each constructor takes no
// arguments and returns a *Pack.
type BuiltinLoader func() *Pack

// NewBuiltinRegistry builds and finalizes a registry from the given
// constructor list. Callers (normally cmd/dcg's bootstrap) pass every
// domain subpackage's exported pack constructors; this keeps the packs
// package itself free of import-cycle-prone references to its own
// subpackages.
func NewBuiltinRegistry(loaders ...BuiltinLoader) *PackRegistry {
	reg := NewRegistry()
	for _, load := range loaders {
		reg.Register(load())
	}
	reg.Finalize()
	return reg
}
