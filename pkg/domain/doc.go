/*
Package domain contains the core vocabulary shared by every prism component.

It defines how ports are scoped and presented, how member shapes are named, the
host vector types values are decomposed into, the sentinel errors callers match with
errors.Is, and the lifecycle hooks used for observability. The package is kept free
of I/O and of any dependency on the host channel implementation.

# Key Entities

  - Scope: the group a port belongs to (Config, Input or Output).
  - PortAttrs: presentation and default-value metadata attached to a port.
  - Kind: the shape a member is projected with (Scalar, Enumerable or Dictionary).
  - Vector2D, Vector3D, Vector4D: host-side vector values with per-axis defaults.
  - LifecycleHooks: callbacks fired on port churn, member reads, cache eviction and type rebinding.
*/
package domain
