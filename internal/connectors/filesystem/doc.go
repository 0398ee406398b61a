// Package filesystem walks and watches a directory tree for files to import.
//
// Hidden files and directories are skipped. A file's folder is its directory
// relative to the root, so a tree on disk maps onto recall's folders.
package filesystem
