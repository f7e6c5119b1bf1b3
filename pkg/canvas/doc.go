// Package canvas is the spatial canvas interaction engine for Spatial.
// It converts between screen and world space, hit-tests and snaps node
// geometry, resolves group drops and derives connection curves. The
// Controller consumes pointer and wheel events and turns them into
// mutation requests against an external store; it never owns node truth.
package canvas
