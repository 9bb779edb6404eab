package prism

// Version is the prism release, overridden at build time with -ldflags "-X".
var Version = "0.1.0"
