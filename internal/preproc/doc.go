// Package preproc implements the macro-expansion stage: a C preprocessor
// that reads a translation unit through a vfs.FS and prints the expanded
// token stream with "# line "file" flags" markers, the same layout a
// compiler's -E mode produces. The declaration parser consumes this text.
//
// Supported: object-like and function-like macros (#, ##, __VA_ARGS__ and
// the GNU ", ## __VA_ARGS__" comma elision), #undef, #include and
// #include_next and #import, #pragma once, the #if family with defined() and
// __has_include, #error, #warning, #line and GNU line markers, and the
// dynamic macros __FILE__, __LINE__ and __COUNTER__.
//
// Angle-bracket includes that are not found on the include path are left in
// the output verbatim so the downstream compiler resolves them. Quoted
// includes that cannot be found are errors.
//
// Other #pragma lines are forwarded to the output unchanged.
package preproc
