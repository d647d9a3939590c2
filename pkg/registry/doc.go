// Package registry provides the name-keyed tool registry and the cache that
// lazily constructs tool instances.
//
// Load requests with identical parameters share one instance. Parameters are
// compared by a canonical serialization, so the order of options does not
// matter. A tool loaded with different parameters gets its own instance, and
// the Nth distinct instance of a tool is displayed as "{name} {N}".
package registry
