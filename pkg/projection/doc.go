/*
Package projection maps object instances onto ports and builds instances back from ports.

A Split takes a spread of objects of one type on its "Input" port and writes every
eligible member to output ports named after the member:

  - Scalar members write one value per slice to a plain port.
  - Enumerable members write one bin (a []E) per slice to a bin-sized port.
  - Dictionary members write a keys bin and a values bin to "<name> Keys" and "<name> Values".

A Join declares one input port per writable member (two for dictionaries), seeded with
the member's default value, and builds one instance per slice on its "Output" port.

Both directions convert values through a ValueTransform, so hosts that only know
float64 seconds can drive time.Duration members, for example.

# Caching

When a Split is given a cache.Cache, values read from an object are stored per object
identity. A sibling Split reading the same object in the same frame copies them
instead of reflecting again.
*/
package projection
