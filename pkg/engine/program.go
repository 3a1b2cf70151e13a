package engine

// ImportRecord is one binding imported by a program. An empty
// ExternalSpecifier means the whole module; an empty LocalSpecifier means
// nothing is bound locally (side-effect import, dynamic import, require).
type ImportRecord struct {
	ModuleID          string
	ExternalSpecifier string
	LocalSpecifier    string
	Location          *Location
}

// ExportSource names where a re-export comes from.
type ExportSource struct {
	ModuleID          string
	ExternalSpecifier string
}

// ExportRecord is one binding exported by a program. A nil Source means the
// program defines the binding itself. An empty ExportedSpecifier stands for
// the all-exports symbol (export * from ...).
type ExportRecord struct {
	ExportedSpecifier string
	Source            *ExportSource
	Location          *Location
}

// sideEffectPrefix names the local placeholder symbol of an import that binds nothing.
const sideEffectPrefix = "import:"

// AddImport records that the program uses a binding of target: the program
// requires a local symbol, which requires the exported symbol of target.
func (n *Node) AddImport(target *Node, rec ImportRecord) (local, external *Node) {
	localName := rec.LocalSpecifier
	if localName == "" {
		localName = sideEffectPrefix + rec.ModuleID
	}

	local = n.Symbol(localName, rec.Location)
	external = target.Symbol(rec.ExternalSpecifier, nil)

	n.engine.AddDependency(n, local)
	n.engine.AddDependency(local, external)
	return local, external
}

// AddExport marks the exported symbol real.
func (n *Node) AddExport(rec ExportRecord) *Node {
	sym := n.Symbol(rec.ExportedSpecifier, rec.Location)
	sym.SetReal()
	return sym
}

// AddReexport marks the local exported symbol real and makes it require the
// matching symbol of source.
func (n *Node) AddReexport(source *Node, rec ExportRecord) (local, external *Node) {
	local = n.Symbol(rec.ExportedSpecifier, rec.Location)
	local.SetReal()

	var externalName string
	if rec.Source != nil {
		externalName = rec.Source.ExternalSpecifier
	}
	external = source.Symbol(externalName, nil)

	n.engine.AddDependency(local, external)
	return local, external
}
