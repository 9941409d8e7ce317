// Command uvm32run is a minimal demo host for package uvm32: it loads
// a raw RV32IMA machine-code image into a VM and drives it to
// completion, servicing a handful of string/console syscalls itself.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/yuhanglee/uvm32/pkg/uvm32"
)

// Demo syscall table. These codes are a convention of this command
// alone -- uvm32 itself only reserves the HALT/YIELD/STACKPROTECT
// range.
const (
	scPrintln  = 100 // ARG0: guest C-string pointer
	scPrint    = 101 // ARG0: guest C-string pointer
	scPrintdec = 102 // ARG0: signed value
	scPrinthex = 103 // ARG0: value
	scPutc     = 104 // ARG0: byte value
)

func main() {
	log.SetFlags(0)
	filename := flag.String("f", "", "file to run")
	verbose := flag.Bool("v", false, "be verbose")
	budget := flag.Int("budget", 10_000, "instructions to execute per Run call")
	memSize := flag.Uint("mem", uint(uvm32.DefaultMemSize), "main RAM size in bytes")
	flag.Parse()
	if *filename == "" {
		log.Fatal("usage: uvm32run [-v] [-budget N] [-mem N] -f <machine-code-file>")
	}

	rom, err := os.ReadFile(*filename)
	if err != nil {
		log.Fatal(err)
	}

	machine := uvm32.New(uint32(*memSize))
	if !machine.Load(rom) {
		log.Fatalf("uvm32run: %s does not fit in %d bytes of RAM", *filename, *memSize)
	}

	var evt uvm32.Event
	for {
		machine.Run(&evt, *budget)
		if *verbose {
			log.Printf("uvm32run: %s\n", machine)
		}

		switch evt.Type {
		case uvm32.EventEnd:
			return

		case uvm32.EventErr:
			log.Fatalf("uvm32run: %s: %s", evt.ErrKind, evt.ErrMsg)

		case uvm32.EventSyscall:
			dispatch(machine, &evt)

		default:
			log.Fatalf("uvm32run: unexpected event type %s", evt.Type)
		}
	}
}

func dispatch(machine *uvm32.VM, evt *uvm32.Event) {
	switch evt.Code {
	case scPrintln:
		fmt.Println(string(machine.GetArgCStr(evt, uvm32.ARG0)))
	case scPrint:
		fmt.Print(string(machine.GetArgCStr(evt, uvm32.ARG0)))
	case scPrintdec:
		fmt.Printf("%d", int32(machine.GetArgVal(evt, uvm32.ARG0)))
	case scPrinthex:
		fmt.Printf("%#x", machine.GetArgVal(evt, uvm32.ARG0))
	case scPutc:
		fmt.Printf("%c", byte(machine.GetArgVal(evt, uvm32.ARG0)))
	default:
		log.Fatalf("uvm32run: unrecognized syscall code %#x", evt.Code)
	}
}
