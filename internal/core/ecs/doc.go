// Package ecs holds the world the runtime dispatches: a registry of component
// type names and the queue of systems scheduled for the current tick.
//
// Dispatch is single-threaded and strictly FIFO. Systems may rely on schedule
// order for ordering effects, e.g. movement scheduled before collision.
package ecs
