// Package dirent iterates the entries of a host directory.
//
// A [Dir] derives a directory-iterator resource from an open directory and
// releases the directory itself right away, so only one host handle stays
// live per iterator.
package dirent
