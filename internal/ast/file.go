package ast

// File wraps one compiled file's root node together with the counters
// its pipeline run produced, letting internal/compiler.Pipeline.Run
// return one self-describing value per file rather than a bare node
//.
type File struct {
	Root  *Node
	Stats any // *compiler.Stats; kept as an opaque field to avoid an import cycle with internal/compiler
}
