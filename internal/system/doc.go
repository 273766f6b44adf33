// Package system holds the recurring systems a show registers with the
// runtime's runner: timeline playback, Lua scripts and periodic snapshots.
package system
