// Package tool defines the tool abstraction shared by all servers: schema-described
// definitions, handler execution, the uniform response envelope, and per-tool metrics.
package tool
