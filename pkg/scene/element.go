package scene

// Attr is a single element attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is a retained visual primitive. Element ids are unique for the
// lifetime of a Renderer and never reused, so an id from a discarded scene
// never resolves against a newer one.
type Element struct {
	ID    uint32
	Tag   string
	Attrs []Attr
	Kids  []*Element
	Text  string
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// set updates or appends an attribute and reports whether the value changed.
func (e *Element) set(name, value string) bool {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			if e.Attrs[i].Value == value {
				return false
			}
			e.Attrs[i].Value = value
			return true
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return true
}

func (e *Element) append(kids ...*Element) *Element {
	e.Kids = append(e.Kids, kids...)
	return e
}

// Walk calls fn for e and every descendant, depth first.
func (e *Element) Walk(fn func(*Element)) {
	fn(e)
	for _, k := range e.Kids {
		k.Walk(fn)
	}
}

// Op identifies a patch operation.
type Op uint8

const (
	// OpReplaceText replaces an element's text content.
	OpReplaceText Op = 0x01
	// OpSetAttribute sets an attribute.
	OpSetAttribute Op = 0x02
	// OpRemoveNode removes an element and its subtree.
	OpRemoveNode Op = 0x03
	// OpInsertNode inserts a subtree under ParentID (0 is the host container).
	OpInsertNode Op = 0x04
)

// Patch is one change to the scene as seen by a host that mirrors it.
type Patch struct {
	Op       Op
	NodeID   uint32
	ParentID uint32
	Key      string
	Value    string
	Node     *Element
}

type attrKey struct {
	id   uint32
	name string
}

// journal accumulates patches between flushes. Repeated attribute writes to the
// same element coalesce into the last value.
type journal struct {
	patches []Patch
	attrs   map[attrKey]int
}

func (j *journal) reset() {
	j.patches = j.patches[:0]
	j.attrs = make(map[attrKey]int)
}

func (j *journal) add(p Patch) {
	j.patches = append(j.patches, p)
}

func (j *journal) setAttr(id uint32, name, value string) {
	k := attrKey{id, name}
	if i, ok := j.attrs[k]; ok {
		j.patches[i].Value = value
		return
	}
	if j.attrs == nil {
		j.attrs = make(map[attrKey]int)
	}
	j.attrs[k] = len(j.patches)
	j.patches = append(j.patches, Patch{Op: OpSetAttribute, NodeID: id, Key: name, Value: value})
}

func (j *journal) take() []Patch {
	if len(j.patches) == 0 {
		return nil
	}
	out := make([]Patch, len(j.patches))
	copy(out, j.patches)
	j.reset()
	return out
}
