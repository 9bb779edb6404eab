/*
Package cache holds the frame clock and the per-object projection cache.

The FrameClock advances once per evaluation cycle. The Cache stores, per object
identity and member, the values last projected for that object together with the
frame they were written in. Sibling projectors reading the same object in the same
cycle reuse those values instead of reflecting again.

An entry counts as used while its last write is within the usable window
(DefaultWindow cycles, tunable). EvictStale runs once per cycle, after every node
evaluated, and drops entries outside the window.

Neither type is safe for concurrent use; the host drives them from its evaluation thread.
*/
package cache
