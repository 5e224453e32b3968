package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ainekko/bemu/internal/bemu"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	cycles := fs.Uint64("cycles", 1_000_000, "number of clock-driver cycles to run")
	shires := fs.Int("shires", 1, "number of shires wired to the RVTimer")
	shireMask := fs.Uint64("shire-mask", 1, "bitmask of shires that receive MTIP from the RVTimer")
	sources := fs.Int("plic-sources", 32, "number of PLIC interrupt sources")
	contexts := fs.Int("plic-contexts", 2, "number of PLIC contexts")
	wideUART := fs.Bool("wide-uart", false, "use the wide (8-byte stride) UART register layout")
	mtimecmp := fs.Uint64("mtimecmp", 0, "initial MTIMECMP value; 0 leaves the timer inactive")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	layout := bemu.UARTLayoutNarrow
	if *wideUART {
		layout = bemu.UARTLayoutWide
	}

	mem := bemu.NewMainMemory(bemu.Config{
		ShireMask:    *shireMask,
		NumShires:    *shires,
		UARTLayout:   layout,
		PLICSources:  *sources,
		PLICContexts: *contexts,
	})

	mem.UARTSetRXFD(int(os.Stdin.Fd()))
	mem.UARTSetTXFD(int(os.Stdout.Fd()))

	chip := bemu.NewSimpleChip(mem.Sysregs())
	agent := &bemu.Agent{Chip: chip, Shire: 0}

	if *mtimecmp != 0 {
		mem.RVTimerWriteMtimecmp(agent, *mtimecmp)
	}

	driver := bemu.NewClockDriver(mem)
	driver.Run(agent, *cycles)

	fmt.Fprintf(os.Stderr, "ran %d cycles, mtime=%d, resets=%d\n",
		driver.Cycle(), mem.RVTimerReadMtime(), chip.ResetCount())
}
