package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/BeatGlow/vbe"
	"github.com/BeatGlow/vbe/internal/backend"
)

func main() {
	backendFlag := flag.String("backend", backend.Emulated, "Backend (emu or bochs)")
	portFlag := flag.String("port", "", "I/O port device (default: /dev/port)")
	allFlag := flag.Bool("all", false, "Also list the modes the driver can not use")
	flag.Parse()

	b, err := backend.Open(&backend.Config{
		Name: *backendFlag,
		Port: *portFlag,
	})
	if err != nil {
		log.Fatalln("open failed:", err)
	}
	defer b.Close()
	fmt.Println("connected using", b)

	d := vbe.New(b.Firmware, nil)
	modes, err := d.EnumerateModes()
	if err != nil {
		log.Fatalln("probe failed:", err)
	}

	info := d.Info()
	fmt.Printf("signature:    %s\n", info.Signature)
	fmt.Printf("version:      %s\n", info.Version)
	fmt.Printf("capabilities: %#08x\n", info.Capabilities)
	fmt.Printf("memory:       %d KiB\n", info.TotalMemory>>10)
	fmt.Printf("OEM:          %s (software revision %#04x)\n", info.OEM, info.SoftwareRev)
	fmt.Printf("vendor:       %s\n", info.Vendor)
	fmt.Printf("product:      %s %s\n", info.Product, info.Revision)

	if mode, err := d.CurrentMode(); err == nil {
		fmt.Printf("current mode: %s\n", mode)
	}
	if pmi, err := d.ProtectedModeInterface(); err == nil {
		fmt.Printf("protected mode interface: %d bytes, ports %#04x\n", len(pmi.Code), pmi.Ports)
	} else {
		fmt.Printf("protected mode interface: %v\n", err)
	}

	fmt.Printf("modes (%d advertised):\n", len(info.Modes))
	for mode := range modes {
		if !mode.Suitable && !*allFlag {
			continue
		}
		var flags string
		if mode.Suitable {
			flags += " usable"
		}
		if mode.Linear {
			flags += " linear"
		}
		fmt.Printf("  %s%s\n", mode, flags)
	}
}
