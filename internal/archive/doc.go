// Package archive persists compiled script modules in the .born v2 container.
//
// A module archive stores the module's name, its script source and its
// tensor buffers, so that loading it is a recompile plus a buffer restore:
//
//	Layout:
//	  [0x00 4 bytes: Magic "BORN"]
//	  [0x04 4 bytes: Version (uint32 LE, always 2)]
//	  [0x08 4 bytes: Flags (uint32 LE)]
//	  [0x0C 4 bytes: Reserved]
//	  [0x10 8 bytes: Header Size (uint64 LE)]
//	  [0x18 8 bytes: Data Size (uint64 LE)]
//	  [0x20 32 bytes: SHA-256 of the data section]
//	  [0x40 Header: msgpack encoded Header]
//	  [padding to a 64 byte boundary]
//	  [Tensor data: raw little-endian bytes]
//
// Example usage:
//
//	err := archive.Save("net.born", &archive.Archive{
//	    Name:    "Net",
//	    Source:  src,
//	    Buffers: []archive.Buffer{{Name: "total", Tensor: t}},
//	})
//
//	a, err := archive.Load("net.born")
package archive
