/*
Package ports defines the driven ports (interfaces) between prism and its host.

These interfaces decouple the projection logic from the host's channel implementation,
allowing the same projectors to run inside a node-graph environment, a test harness or
the bundled CLI.

# Key Interfaces

  - Channel: a named, slice-indexed sequence of values of one element type.
  - ChannelFactory: the host capability that allocates typed channels.
  - Settler: optional factory capability that clears per-cycle change flags.
  - Node: anything the host evaluates once per cycle.
*/
package ports
