package engine

// Kind is a node type tag.
type Kind string

const (
	KindRoot    Kind = "root"
	KindDir     Kind = "dir"
	KindFile    Kind = "file"
	KindProgram Kind = "program"
	KindSymbol  Kind = "symbol"
)

// AllExports is the name of the synthetic symbol standing for every export of a program.
const AllExports = "*"

// KindSpec is the construction strategy for a node kind. OnCreate runs once,
// right after a node of the kind is attached to its parent.
type KindSpec struct {
	OnCreate func(e *Engine, n *Node)
}

// genericKind is used for kinds nobody registered.
var genericKind = KindSpec{}

func defaultKinds() map[Kind]KindSpec {
	return map[Kind]KindSpec{
		KindRoot: genericKind,
		KindDir:  genericKind,
		KindFile: genericKind,
		KindProgram: {
			OnCreate: func(e *Engine, program *Node) {
				e.AddDependency(program.parent, program)
				e.AddDependency(program, program.parent)
				program.Child(KindSymbol, AllExports)
			},
		},
		KindSymbol: {
			OnCreate: func(e *Engine, symbol *Node) {
				if symbol.parent.kind == KindProgram {
					e.AddDependency(symbol, symbol.parent)
				}
			},
		},
	}
}

// RegisterKind installs the construction strategy for kind. Nodes already
// created are not affected.
func (e *Engine) RegisterKind(kind Kind, spec KindSpec) {
	e.kinds[kind] = spec
}

func (e *Engine) kindSpec(kind Kind) KindSpec {
	if spec, ok := e.kinds[kind]; ok {
		return spec
	}
	return genericKind
}
