// Package tools defines the Tool capability shared by model-backed and
// function-backed tools, the lifecycle helpers for model-backed tools
// (lazy setup, eco mode), and the adapter that exposes a tool to an LLM agent.
package tools
