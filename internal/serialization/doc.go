// Package serialization reads and writes weight state dicts in the
// SafeTensors format.
//
// Format:
//
//	[8 bytes: header_size (uint64 LE)]
//	[header_size bytes: JSON header]
//	[tensor data: raw bytes]
//
// Writers record the quantizer options and a SHA-256 checksum of the data
// section in the header's __metadata__ map. Readers validate names, dtypes,
// offsets and, when present, the checksum before returning any tensor.
package serialization
