// Package inference defines the opaque capability provider behind the tools.
//
// A Runtime loads a pretrained model for a task onto a device and returns a
// Model handle; the numerics of the model are not part of this module.
// Models that are expensive to build and shared by several tools are
// deduplicated by Shared.
package inference
