package uvm32_test

import (
	"testing"

	"github.com/yuhanglee/uvm32/pkg/uvm32"
)

// FuzzLoadRun feeds arbitrary bytes in as both the ROM image and the
// external RAM backing (the same bytes in both roles, each a separate
// copy, as a crash harness driving this VM from a single
// fuzzer-supplied buffer would): a
// malformed or adversarial image must only ever surface as an Event
// and a sticky error, never as a panic.
func FuzzLoadRun(f *testing.F) {
	f.Add([]byte{})
	f.Add(make([]byte, 16))
	f.Add([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	f.Add(buildCountdownROM(3))
	f.Add(buildHelloROM())

	f.Fuzz(func(t *testing.T, data []byte) {
		vm := uvm32.New(4096)
		if !vm.Load(data) {
			return // larger than RAM: Load already rejected it, nothing to run
		}
		extram := append([]byte(nil), data...)
		vm.AttachExtRAM(extram)

		var evt uvm32.Event
		for i := 0; i < 10; i++ {
			vm.Run(&evt, 1000)
			switch evt.Type {
			case uvm32.EventEnd:
				return
			case uvm32.EventErr:
				vm.ClearError()
			case uvm32.EventSyscall:
				vm.SetArgVal(&evt, uvm32.RET, 0)
			default:
				t.Fatalf("unrecognized event type %v", evt.Type)
			}
		}
	})
}
