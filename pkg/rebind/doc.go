// Package rebind lets the element type of a port group be chosen or learned at run time.
//
// A Group is Unbound until a type name on its "<group> Type" config port resolves, or
// until its learn bang fires while a reference value is connected. Every transition
// retypes the ports the group governs and retargets its dependants, such as a
// projection.Split, keeping port names stable.
package rebind
