// Package plugins hosts organism family plugins. It contains no runtime code
// itself; the architecture test next to this file keeps plugin packages away
// from the save format and storage packages.
package plugins
