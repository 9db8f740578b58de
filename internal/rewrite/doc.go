// Package rewrite turns a parsed translation unit with kernel definitions
// and launches into plain host C++.
//
// Kernel bodies are replaced by wrappers that embed the kernel's machine
// code (looked up in the compiled artifact by linkage name) and record a
// launch in the current graph. Launch expressions callee<<<cfg>>>(args)
// become a PushLaunchConfig call followed by an ordinary call.
//
// All edits are collected in a Record against the original text and
// applied once, so spans from the parser stay valid throughout.
package rewrite
