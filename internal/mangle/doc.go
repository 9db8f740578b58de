// Package mangle computes Itanium C++ ABI linkage names for kernel
// functions, so that the device binary for a kernel can be found in the
// compiled artifact by symbol name.
//
// Supported: builtin, pointer, reference, cv-qualified, named and templated
// types, nested names, std abbreviations, template arguments and the
// substitution table. Anything else fails with ErrUnsupported.
package mangle
