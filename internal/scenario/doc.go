// Package scenario builds initial hierarchies for the supported encounter
// types from physical parameters and returns them in code units.
package scenario
