// Package luaembed embeds a cooperative, sandboxed Lua runtime inside a Go
// host application. Hosts register free functions and native object types
// against a Registry, compile a named Script from a source buffer, and call
// script-level functions with typed Values. Scripts may cooperatively
// yield; an Executor resumes suspended calls to completion.
package luaembed
