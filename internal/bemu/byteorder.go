package bemu

import "encoding/binary"

// cpuEndian is the byte order guest loads/stores use across every register
// in this module, matching the little-endian RISC-V convention.
var cpuEndian = binary.LittleEndian

func putUint32(b []byte, v uint32) { cpuEndian.PutUint32(b, v) }
func getUint32(b []byte) uint32    { return cpuEndian.Uint32(b) }
func putUint64(b []byte, v uint64) { cpuEndian.PutUint64(b, v) }
func getUint64(b []byte) uint64    { return cpuEndian.Uint64(b) }
