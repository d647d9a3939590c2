// Package toolmeta defines the descriptive metadata attached to every tool:
// its display name, the free-text description consumed by an LLM agent for tool
// selection, the model reference, and the declared input/output modalities.
package toolmeta
