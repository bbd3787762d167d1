// Package connectors provides implementations of the Connector interface
// for document sources. The filesystem connector reads local files and
// directories, optionally described by a YAML manifest, and watches them
// for changes.
package connectors
