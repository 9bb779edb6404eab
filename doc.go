/*
Package prism projects arbitrary Go objects onto typed, spread-valued ports and builds
objects back from them.

It targets dataflow hosts that evaluate a graph of nodes once per frame. Every port
carries a spread: an ordered sequence of slices, one per object being processed.

# Concept

A Split node takes a spread of objects and exposes each member on its own output port.
A Join node does the reverse. Members are classified once per type:

  - Scalar members map to a single port.
  - Enumerable members (slices, arrays, iter.Seq) map to one bin-sized port.
  - Dictionary members (maps, ordered maps, iter.Seq2) map to a keys port and a values port.

Values read from an object in one frame are shared through an object cache, so two
Split nodes reading the same object do the reflective work once.

A rebinding group lets the governing type of a set of ports be chosen by name or
learned from a sample value at run time.

# Usage

	host := prism.New()

	split, err := host.Split("people", reflect.TypeFor[*Person]())
	if err != nil {
		log.Fatal(err)
	}

	in := split.Registry().Channel(domain.ScopeInput, projection.PortInput)
	_ = in.Set(0, &Person{Name: "Ada"})

	if _, err := host.Tick(ctx); err != nil {
		log.Fatal(err)
	}
	name := split.Registry().Channel(domain.ScopeOutput, "Name").Get(0)

# Architecture

The core lives in pkg/: typeinfo classifies types and discovers members, registry owns
ports, cache holds projected values per object identity, projection implements Split and
Join, and rebind implements type rebinding. Hosts plug in through ports.ChannelFactory;
adapters/memory is the bundled in-memory host.
*/
package prism
