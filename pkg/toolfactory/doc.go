// Package toolfactory builds the tool registry and cache from configuration:
// the inference runtime, the default device and eco mode, the agent parser,
// the result store, and the list of tools to preload.
package toolfactory
