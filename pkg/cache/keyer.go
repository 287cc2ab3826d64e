package cache

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey identifies the positions computed by engine for a graph
	// with the given structural hash.
	LayoutKey(structureHash, engine string) string
}

// DefaultKeyer hashes key components under a fixed prefix.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(structureHash, engine string) string {
	return hashKey("layout", structureHash, engine)
}
