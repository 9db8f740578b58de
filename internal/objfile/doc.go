// Package objfile reads kernel machine code out of an ELF artifact.
//
// A Store maps the artifact once, indexes .symtab and .dynsym and hands out
// copies of symbol bytes. Successful lookups are memoized per Store.
package objfile
