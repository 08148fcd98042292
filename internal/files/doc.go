// Package files locates ridership exports on disk.
//
// The configured dataset may name a single file or a directory; for a
// directory the most recently modified .csv or .xlsx export is used, so a
// new monthly export can be dropped next to the old ones.
package files
