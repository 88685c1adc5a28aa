// Package files provides the file system operations behind the local KPI
// artifact: atomic replacement on the write path and plain reads on the
// local read handler. Relative paths resolve against the manager's base directory.
package files
