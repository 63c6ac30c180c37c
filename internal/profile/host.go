package profile

import (
	"fmt"
	"runtime"
)

// Arch is a recognized target architecture.
type Arch string

const (
	ArchX86    Arch = "x86"
	ArchX86_64 Arch = "x86_64"
)

// OS is a recognized target operating system.
type OS string

const (
	OSLinux   OS = "linux"
	OSWindows OS = "windows"
)

// Host identifies the machine a profile targets.
type Host struct {
	Arch Arch
	OS   OS
}

// DetectHost returns the Host for the running process, mapping Go's
// GOARCH/GOOS to dopamine's arch/os vocabulary.
func DetectHost() (Host, error) {
	var arch Arch
	switch runtime.GOARCH {
	case "amd64":
		arch = ArchX86_64
	case "386":
		arch = ArchX86
	default:
		return Host{}, fmt.Errorf("profile: unsupported architecture %q", runtime.GOARCH)
	}

	var os OS
	switch runtime.GOOS {
	case "linux":
		os = OSLinux
	case "windows":
		os = OSWindows
	default:
		return Host{}, fmt.Errorf("profile: unsupported operating system %q", runtime.GOOS)
	}

	return Host{Arch: arch, OS: os}, nil
}

// archLE32 returns the little-endian 4-byte encoding of arch's ordinal,
// used by the profile digest (§4.2: "host's arch (little-endian 4-byte
// cast)").
func archLE32(a Arch) [4]byte {
	var ord uint32
	switch a {
	case ArchX86:
		ord = 0
	case ArchX86_64:
		ord = 1
	}
	return [4]byte{byte(ord), byte(ord >> 8), byte(ord >> 16), byte(ord >> 24)}
}
