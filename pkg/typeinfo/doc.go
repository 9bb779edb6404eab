/*
Package typeinfo classifies Go types and discovers the members prism projects.

Classification decides whether a declared type is projected as a Scalar, an
Enumerable (one bin-sized port of elements) or a Dictionary (two bin-sized ports of
keys and values). Collection shapes are recognised structurally:

  - Dictionary: any map; any type exposing Oldest() *P where P has Key and Value
    fields and a Next() *P method; any type with All() iter.Seq2[K, V].
  - Enumerable: slices and arrays (byte blobs excluded); any type with All() iter.Seq[E].
  - Scalar: everything else, strings included.

A collection-shaped type whose element types cannot be read off its methods is
degraded to Scalar instead of failing.

Members are exported struct fields, promoted fields included, and optionally niladic
getter methods paired with SetX setters. The `prism` struct tag controls them:

	type Sample struct {
	    Name   string            `prism:"Label"`      // port named "Label"
	    Tags   []string          `prism:",noflatten"` // one scalar port holding the slice
	    secret string                                 // unexported, never visible
	    Cache  map[string]string `prism:"-"`          // ignored
	}

Member lists are computed once per (type, options) and shared; callers must treat
them as read-only.
*/
package typeinfo
