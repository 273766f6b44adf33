// Package system provides the phase runner that re-enqueues recurring systems
// into the world before every dispatch.
package system
