package hasher

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/team-ns/launcher/pkg/manifest"
)

// PE machine types accepted for windows natives.
const (
	peMachineI386  = 0x014C
	peMachineAmd64 = 0x8664
)

// classifyNative determines the platform of a native library from its file
// extension and binary header. The file contents are already in memory from
// hashing, so header inspection is free.
func classifyNative(path string, data []byte) (manifest.OsType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dll":
		return classifyPE(data)
	case ".so":
		return classifyELF(data)
	case ".dylib", ".jnilib":
		return manifest.MacOsX64, nil
	default:
		return "", fmt.Errorf("unknown native extension %q", filepath.Ext(path))
	}
}

// classifyPE reads the COFF machine field: the PE header offset lives at
// 0x3C, the machine id four bytes past the header start.
func classifyPE(data []byte) (manifest.OsType, error) {
	if len(data) < 0x40 {
		return "", fmt.Errorf("dll too short for a PE header (%d bytes)", len(data))
	}
	peOffset := binary.LittleEndian.Uint32(data[0x3C:0x40])
	machineAt := int64(peOffset) + 4
	if machineAt+2 > int64(len(data)) {
		return "", fmt.Errorf("pe header offset 0x%X out of range", peOffset)
	}
	switch machine := binary.LittleEndian.Uint16(data[machineAt : machineAt+2]); machine {
	case peMachineI386:
		return manifest.WindowsX32, nil
	case peMachineAmd64:
		return manifest.WindowsX64, nil
	default:
		return "", fmt.Errorf("unsupported pe machine 0x%04X", machine)
	}
}

// classifyELF reads EI_CLASS at offset 4: 1 is 32-bit, 2 is 64-bit.
func classifyELF(data []byte) (manifest.OsType, error) {
	if len(data) < 5 {
		return "", fmt.Errorf("elf too short for an ident header (%d bytes)", len(data))
	}
	switch data[4] {
	case 1:
		return manifest.LinuxX32, nil
	case 2:
		return manifest.LinuxX64, nil
	default:
		return "", fmt.Errorf("unsupported elf class %d", data[4])
	}
}
