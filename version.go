package stategraph

// Version is the release of this module. Overridden at build time with
// -ldflags "-X github.com/aretw0/stategraph.Version=...".
var Version = "0.1.0"
