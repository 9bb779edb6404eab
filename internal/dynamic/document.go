// Package dynamic turns untyped YAML or JSON documents into values of a
// synthesized struct type, so they can be projected like any Go object.
package dynamic

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"unicode"

	"github.com/mitchellh/mapstructure"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedDocument is returned for documents that are not a mapping or a list of mappings.
var ErrUnsupportedDocument = zerr.New("unsupported document")

// Record is one mapping of a document, in source key order.
type Record = *orderedmap.OrderedMap[string, any]

// Document is a decoded document and the struct type synthesized for it.
type Document struct {
	Records []Record
	Type    reflect.Type // pointer to the synthesized struct
}

// Parse decodes r and synthesizes a type. A top-level mapping yields one record,
// a top-level list of mappings yields one record per item.
func Parse(r io.Reader) (*Document, error) {
	records, err := Decode(r)
	if err != nil {
		return nil, err
	}
	t, err := Synthesize(records)
	if err != nil {
		return nil, err
	}
	return &Document{Records: records, Type: t}, nil
}

// Decode reads the records of r.
func Decode(r io.Reader) ([]Record, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, zerr.Wrap(ErrUnsupportedDocument, "empty document")
		}
		return nil, zerr.Wrap(err, "failed to decode document")
	}
	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}

	switch node.Kind {
	case yaml.MappingNode:
		rec, err := mapping(node)
		if err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	case yaml.SequenceNode:
		records := make([]Record, 0, len(node.Content))
		for i, item := range node.Content {
			if item.Kind != yaml.MappingNode {
				return nil, zerr.With(zerr.Wrap(ErrUnsupportedDocument, "list item is not a mapping"), "index", i)
			}
			rec, err := mapping(item)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
		return records, nil
	default:
		return nil, zerr.With(zerr.Wrap(ErrUnsupportedDocument, "top level is not a mapping"), "line", node.Line)
	}
}

func mapping(n *yaml.Node) (Record, error) {
	rec := orderedmap.New[string, any](len(n.Content) / 2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		val, err := value(v)
		if err != nil {
			return nil, zerr.With(err, "key", k.Value)
		}
		rec.Set(k.Value, val)
	}
	return rec, nil
}

func value(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		return mapping(n)
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := value(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case yaml.AliasNode:
		return value(n.Alias)
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to decode scalar"), "line", n.Line)
		}
		return v, nil
	}
}

var anyType = reflect.TypeFor[any]()

// Synthesize builds a struct type holding the union of the records' keys, in
// first-seen order. Field names are exported identifiers derived from the keys;
// the key itself becomes the port name.
func Synthesize(records []Record) (reflect.Type, error) {
	if len(records) == 0 {
		return nil, zerr.Wrap(ErrUnsupportedDocument, "no records")
	}
	vals := make([]any, len(records))
	for i, r := range records {
		vals[i] = r
	}
	return reflect.PointerTo(structOf(vals)), nil
}

// structOf merges the mappings in vals into one struct type.
func structOf(vals []any) reflect.Type {
	keys := orderedmap.New[string, []any]()
	for _, v := range vals {
		rec, ok := v.(Record)
		if !ok {
			continue
		}
		for p := rec.Oldest(); p != nil; p = p.Next() {
			prev, _ := keys.Get(p.Key)
			keys.Set(p.Key, append(prev, p.Value))
		}
	}

	fields := make([]reflect.StructField, 0, keys.Len())
	used := make(map[string]bool)
	for p := keys.Oldest(); p != nil; p = p.Next() {
		name := fieldName(p.Key, used)
		fields = append(fields, reflect.StructField{
			Name: name,
			Type: infer(p.Value),
			Tag:  reflect.StructTag(fmt.Sprintf(`prism:%q mapstructure:%q json:%q`, p.Key, p.Key, p.Key)),
		})
	}
	return reflect.StructOf(fields)
}

// infer picks the narrowest type every non-null value fits.
func infer(vals []any) reflect.Type {
	var kinds []string
	for _, v := range vals {
		switch v.(type) {
		case nil:
		case bool:
			kinds = append(kinds, "bool")
		case int, int64, uint64:
			kinds = append(kinds, "int")
		case float64:
			kinds = append(kinds, "float")
		case string:
			kinds = append(kinds, "string")
		case Record:
			kinds = append(kinds, "record")
		case []any:
			kinds = append(kinds, "list")
		default:
			kinds = append(kinds, "other")
		}
	}
	if len(kinds) == 0 {
		return anyType
	}
	kind := kinds[0]
	for _, k := range kinds[1:] {
		switch {
		case k == kind:
		case (k == "int" && kind == "float") || (k == "float" && kind == "int"):
			kind = "float"
		default:
			return anyType
		}
	}

	switch kind {
	case "bool":
		return reflect.TypeFor[bool]()
	case "int":
		return reflect.TypeFor[int64]()
	case "float":
		return reflect.TypeFor[float64]()
	case "string":
		return reflect.TypeFor[string]()
	case "record":
		return structOf(vals)
	case "list":
		var elems []any
		for _, v := range vals {
			if l, ok := v.([]any); ok {
				elems = append(elems, l...)
			}
		}
		return reflect.SliceOf(infer(elems))
	default:
		return anyType
	}
}

// fieldName converts a key to a unique exported Go identifier.
func fieldName(key string, used map[string]bool) string {
	var b strings.Builder
	upper := true
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	name := b.String()
	if name == "" || !unicode.IsUpper([]rune(name)[0]) {
		name = "F" + name
	}
	base := name
	for i := 2; used[name]; i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}
	used[name] = true
	return name
}

// Values instantiates one value of the document type per record.
func (d *Document) Values() ([]any, error) {
	out := make([]any, len(d.Records))
	for i, rec := range d.Records {
		v, err := Instantiate(d.Type, rec)
		if err != nil {
			return nil, zerr.With(err, "record", i)
		}
		out[i] = v
	}
	return out, nil
}

// Instantiate decodes rec into a new value of t, a pointer to a synthesized struct.
func Instantiate(t reflect.Type, rec Record) (any, error) {
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil, zerr.With(zerr.Wrap(ErrUnsupportedDocument, "not a struct pointer"), "type", t.String())
	}
	target := reflect.New(t.Elem())
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target.Interface(),
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(Plain(rec)); err != nil {
		return nil, zerr.Wrap(err, "failed to decode record")
	}
	return target.Interface(), nil
}

// Plain converts ordered records, recursively, into builtin maps.
func Plain(v any) any {
	switch x := v.(type) {
	case Record:
		m := make(map[string]any, x.Len())
		for p := x.Oldest(); p != nil; p = p.Next() {
			m[p.Key] = Plain(p.Value)
		}
		return m
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Plain(e)
		}
		return out
	default:
		return v
	}
}
