// Package archive unpacks EPUB containers into an ordered working set of
// entries and repackages a working set into a new container.
//
// Unpack normalizes archives nested under a single redundant top-level
// folder, rejects entries that escape the archive root, and reports progress
// by uncompressed bytes. Repack writes the "mimetype" entry first and
// uncompressed, then every other entry in input order, streaming one entry at
// a time into the destination writer.
//
// Every failure in this package is fatal for a run and is reported as an
// [*Error].
package archive
