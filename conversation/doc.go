// Package conversation keeps the bounded per-user message history used
// as AI-tutor context, with FIFO eviction past a fixed depth.
package conversation
