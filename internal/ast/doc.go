// Package ast holds the structural view of a preprocessed C++ translation
// unit: function declarations, kernel launches, explicit instantiations and
// type aliases. Everything else in the file is kept only as byte spans.
package ast
