package gen

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/syssam/datatype/compiler/load"
)

// Graph holds the resolved schema of one generation run. It is immutable
// once NewGraph returns.
type Graph struct {
	*Config
	// Nodes are the declared types in declaration order, files ordered by path.
	Nodes []*Type

	index map[string]*Type
}

// Lookup returns the type with the given qualified name.
func (g *Graph) Lookup(name string) (*Type, bool) {
	t, ok := g.index[name]
	return t, ok
}

// Records returns the record types in declaration order.
func (g *Graph) Records() []*Type { return g.filter(load.KindRecord) }

// Interfaces returns the interface types in declaration order.
func (g *Graph) Interfaces() []*Type { return g.filter(load.KindInterface) }

// Enums returns the enumeration types in declaration order.
func (g *Graph) Enums() []*Type { return g.filter(load.KindEnum) }

func (g *Graph) filter(k load.Kind) []*Type {
	var ts []*Type
	for _, t := range g.Nodes {
		if t.Kind == k {
			ts = append(ts, t)
		}
	}
	return ts
}

// NewGraph resolves the schema into a Graph. It fails with a
// DuplicateTypeError, UnresolvedReferenceError, CyclicInheritanceError or
// SchemaError describing the first defect found.
func NewGraph(c *Config, schema *load.Schema) (*Graph, error) {
	if c == nil {
		return nil, NewConfigError("Config", nil, "missing config")
	}
	g := &Graph{Config: c, index: make(map[string]*Type, len(schema.Decls))}
	decls := make(map[*Type]*load.Declaration, len(schema.Decls))
	for _, d := range schema.Decls {
		name := d.QualifiedName()
		if prev, ok := g.index[name]; ok {
			return nil, &DuplicateTypeError{Name: name, First: prev.Pos, Second: d.Pos}
		}
		t := &Type{
			Kind:      d.Kind,
			Name:      d.Name,
			Namespace: d.Namespace,
			Comment:   d.Comment,
			Pos:       d.Pos,
			Open:      d.Open,
			Constants: d.Constants,
		}
		g.index[name] = t
		g.Nodes = append(g.Nodes, t)
		decls[t] = d
	}
	for _, t := range g.Nodes {
		if err := g.resolveExtends(t, decls[t]); err != nil {
			return nil, err
		}
	}
	if err := g.checkCycles(); err != nil {
		return nil, err
	}
	for _, t := range g.Nodes {
		for _, f := range decls[t].Fields {
			rf, err := g.resolveField(t, f)
			if err != nil {
				return nil, err
			}
			t.Fields = append(t.Fields, rf)
		}
	}
	g.closure()
	if err := g.checkEmptyInterfaces(); err != nil {
		return nil, err
	}
	if err := g.checkOpenInterfaces(); err != nil {
		return nil, err
	}
	c.Log().Debug("schema resolved",
		zap.Int("types", len(g.Nodes)),
		zap.Int("records", len(g.Records())),
		zap.Int("interfaces", len(g.Interfaces())),
		zap.Int("enums", len(g.Enums())),
	)
	return g, nil
}

// lookup finds a declared type by reference name. Dotted names are looked
// up verbatim, others in the namespace of the referring file first and
// in the root namespace second.
func (g *Graph) lookup(namespace, name string) (*Type, bool) {
	if strings.Contains(name, ".") {
		t, ok := g.index[name]
		return t, ok
	}
	if namespace != "" {
		if t, ok := g.index[namespace+"."+name]; ok {
			return t, true
		}
	}
	t, ok := g.index[name]
	return t, ok
}

func (g *Graph) resolveExtends(t *Type, d *load.Declaration) error {
	for _, name := range d.Extends {
		e, ok := g.lookup(t.Namespace, name)
		if !ok {
			return &UnresolvedReferenceError{Type: t.QualifiedName(), Reference: name, Pos: t.Pos}
		}
		if !e.IsInterface() {
			err := NewSchemaError(t.QualifiedName(), "", fmt.Sprintf("cannot extend %s %s: only interfaces can be extended", e.Kind, e.QualifiedName()), nil)
			err.Pos = t.Pos
			return err
		}
		t.Extends = append(t.Extends, e)
	}
	return nil
}

// checkCycles runs a depth-first search with a three-color visited set
// over the extends relation.
func (g *Graph) checkCycles() error {
	const (
		white = iota
		gray
		black
	)
	color := make(map[*Type]int, len(g.Nodes))
	var path []*Type
	var visit func(*Type) error
	visit = func(t *Type) error {
		color[t] = gray
		path = append(path, t)
		for _, e := range t.Extends {
			switch color[e] {
			case gray:
				var cycle []string
				for i := len(path) - 1; i >= 0; i-- {
					if path[i] == e {
						for _, p := range path[i:] {
							cycle = append(cycle, p.QualifiedName())
						}
						break
					}
				}
				return &CyclicInheritanceError{Cycle: append(cycle, e.QualifiedName())}
			case white:
				if err := visit(e); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		color[t] = black
		return nil
	}
	for _, t := range g.Nodes {
		if color[t] == white {
			if err := visit(t); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Graph) resolveField(t *Type, f *load.Field) (*Field, error) {
	ref, err := g.resolveRef(t, f, f.Type)
	if err != nil {
		return nil, err
	}
	if f.Nullable && ref.Kind != OptionalRef {
		ref = &TypeRef{Kind: OptionalRef, Elem: ref}
	}
	rf := &Field{
		Name:     f.Name,
		Type:     ref,
		Nullable: f.Nullable,
		Position: f.Position,
		Comment:  f.Comment,
		Pos:      f.Pos,
	}
	if f.Default != nil {
		v, err := g.defaultValue(t, rf, f.Default)
		if err != nil {
			return nil, err
		}
		rf.Default = &Default{Literal: f.Default, Value: v}
	}
	return rf, nil
}

func (g *Graph) resolveRef(t *Type, f *load.Field, r *load.TypeRef) (*TypeRef, error) {
	switch r.Kind {
	case load.RefPrimitive:
		return &TypeRef{Kind: PrimitiveRef, Primitive: r.Name}, nil
	case load.RefNamed:
		d, ok := g.lookup(t.Namespace, r.Name)
		if !ok {
			return nil, &UnresolvedReferenceError{Type: t.QualifiedName(), Field: f.Name, Reference: r.Name, Pos: r.Pos}
		}
		switch d.Kind {
		case load.KindRecord:
			return &TypeRef{Kind: RecordRef, Type: d}, nil
		case load.KindInterface:
			return &TypeRef{Kind: InterfaceRef, Type: d}, nil
		default:
			return &TypeRef{Kind: EnumRef, Type: d}, nil
		}
	case load.RefSequence, load.RefOptional:
		elem, err := g.resolveRef(t, f, r.Elem)
		if err != nil {
			return nil, err
		}
		kind := SequenceRef
		if r.Kind == load.RefOptional {
			kind = OptionalRef
			if elem.Kind == OptionalRef {
				return nil, g.fieldError(t, f, "optional<optional<T>> is not supported")
			}
		}
		return &TypeRef{Kind: kind, Elem: elem}, nil
	default:
		return nil, g.fieldError(t, f, fmt.Sprintf("unexpected type reference %s", r))
	}
}

func (g *Graph) fieldError(t *Type, f *load.Field, msg string) error {
	err := NewSchemaError(t.QualifiedName(), f.Name, msg, nil)
	err.Pos = f.Pos
	return err
}

// defaultValue type-checks a default literal against the field's value type.
func (g *Graph) defaultValue(t *Type, f *Field, lit *load.Literal) (any, error) {
	ref := f.Value()
	mismatch := func(cause error) error {
		err := NewSchemaError(t.QualifiedName(), f.Name, fmt.Sprintf("default %s is not a valid %s", lit.Value, ref), cause)
		err.Pos = lit.Pos
		return err
	}
	switch ref.Kind {
	case EnumRef:
		if lit.Kind != load.LitIdent {
			return nil, mismatch(nil)
		}
		name := strings.TrimPrefix(lit.Value, ref.Type.Name+".")
		i := ref.Type.Constant(name)
		if i < 0 {
			return nil, &UnresolvedReferenceError{Type: t.QualifiedName(), Field: f.Name, Reference: ref.Type.QualifiedName() + "." + name, Pos: lit.Pos}
		}
		return i, nil
	case PrimitiveRef:
	default:
		err := NewSchemaError(t.QualifiedName(), f.Name, fmt.Sprintf("defaults are not supported for %s fields", ref), nil)
		err.Pos = lit.Pos
		return nil, err
	}
	switch p := ref.Primitive; p {
	case "string", "bytes":
		if lit.Kind != load.LitString {
			return nil, mismatch(nil)
		}
		return lit.Value, nil
	case "bool":
		if lit.Kind != load.LitBool {
			return nil, mismatch(nil)
		}
		return lit.Value == "true", nil
	case "int", "int8", "int16", "int32", "int64":
		if lit.Kind != load.LitInt {
			return nil, mismatch(nil)
		}
		v, err := strconv.ParseInt(lit.Value, 10, bitSize(p))
		if err != nil {
			return nil, mismatch(err)
		}
		return v, nil
	case "uint", "uint8", "uint16", "uint32", "uint64":
		if lit.Kind != load.LitInt {
			return nil, mismatch(nil)
		}
		v, err := strconv.ParseUint(lit.Value, 10, bitSize(p))
		if err != nil {
			return nil, mismatch(err)
		}
		return v, nil
	case "float32", "float64":
		if lit.Kind != load.LitInt && lit.Kind != load.LitFloat {
			return nil, mismatch(nil)
		}
		v, err := strconv.ParseFloat(lit.Value, bitSize(p))
		if err != nil {
			return nil, mismatch(err)
		}
		if math.IsInf(v, 0) {
			return nil, mismatch(nil)
		}
		return v, nil
	case "duration":
		if lit.Kind != load.LitString {
			return nil, mismatch(nil)
		}
		v, err := time.ParseDuration(lit.Value)
		if err != nil {
			return nil, mismatch(err)
		}
		return v, nil
	default:
		err := NewSchemaError(t.QualifiedName(), f.Name, fmt.Sprintf("defaults are not supported for %s fields", p), nil)
		err.Pos = lit.Pos
		return nil, err
	}
}

func bitSize(primitive string) int {
	switch {
	case strings.HasSuffix(primitive, "8"):
		return 8
	case strings.HasSuffix(primitive, "16"):
		return 16
	case strings.HasSuffix(primitive, "32"):
		return 32
	default:
		return 64
	}
}

// closure computes ancestors, variants and descendants. The extends
// relation is acyclic at this point.
func (g *Graph) closure() {
	done := make(map[*Type]bool, len(g.Nodes))
	var ancestors func(*Type) []*Type
	ancestors = func(t *Type) []*Type {
		if done[t] {
			return t.Ancestors
		}
		seen := make(map[*Type]bool)
		var all []*Type
		add := func(a *Type) {
			if !seen[a] {
				seen[a] = true
				all = append(all, a)
			}
		}
		for _, e := range t.Extends {
			add(e)
		}
		for _, e := range t.Extends {
			for _, a := range ancestors(e) {
				add(a)
			}
		}
		t.Ancestors, done[t] = all, true
		return all
	}
	for _, t := range g.Nodes {
		ancestors(t)
	}
	for _, i := range g.Nodes {
		if !i.IsInterface() {
			continue
		}
		for _, t := range g.Nodes {
			if !t.Implements(i) {
				continue
			}
			switch {
			case t.IsRecord():
				i.Variants = append(i.Variants, t)
			case t.IsInterface():
				i.Descendants = append(i.Descendants, t)
			}
		}
	}
}

func (g *Graph) checkEmptyInterfaces() error {
	for _, t := range g.Nodes {
		if !t.IsInterface() || t.Open || len(t.Variants) > 0 {
			continue
		}
		switch g.EmptyInterfaces {
		case EmptyInterfaceError:
			err := NewSchemaError(t.QualifiedName(), "", "interface has no implementing records; declare it open or add a variant", nil)
			err.Pos = t.Pos
			return err
		default:
			g.Log().Debug("interface without variants emitted as open contract", zap.String("type", t.QualifiedName()))
		}
	}
	return nil
}

// checkOpenInterfaces rejects open interfaces extending a closed one. A
// closed interface is sealed by an unexported marker, so nothing outside
// the run could implement the open one.
func (g *Graph) checkOpenInterfaces() error {
	for _, t := range g.Nodes {
		if !t.IsInterface() || t.Closed() {
			continue
		}
		for _, a := range t.Ancestors {
			if !a.Closed() {
				continue
			}
			err := NewSchemaError(t.QualifiedName(), "", fmt.Sprintf(
				"open interface extends closed interface %s; add a variant or declare %s open", a.QualifiedName(), a.QualifiedName()), nil)
			err.Pos = t.Pos
			return err
		}
	}
	return nil
}
