package prefs

import (
	"errors"
	"testing"

	"bootrtc/core"
)

// Geometry of the RP2040 flash data area
const (
	testEraseBlock = 4096
	testWriteBlock = 256
)

func newTestDevice() *MemoryDevice {
	return NewMemoryDevice(4, testEraseBlock, testWriteBlock)
}

func mustOpen(t *testing.T, s *Store, ns string, readOnly bool) core.Namespace {
	t.Helper()
	h, err := s.Open(ns, readOnly)
	if err != nil {
		t.Fatalf("Open(%q) failed: %v", ns, err)
	}
	return h
}

func TestEmptyDevice(t *testing.T) {
	s := NewStore(newTestDevice(), 0)
	ns := mustOpen(t, s, "rtc", false)
	defer ns.Close()

	if ns.HasKey("epoch") {
		t.Error("Erased flash should hold no keys")
	}
	if got := ns.GetUint("epoch", 7); got != 7 {
		t.Errorf("Expected default 7, got %d", got)
	}
}

func TestPersistAcrossReload(t *testing.T) {
	dev := newTestDevice()

	s := NewStore(dev, testEraseBlock)
	ns := mustOpen(t, s, "rtc", false)
	if err := ns.PutUint("epoch", 1700000000); err != nil {
		t.Fatalf("PutUint failed: %v", err)
	}
	if err := ns.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if dev.Erases != 1 || dev.Writes != 1 {
		t.Errorf("Expected one erase and one write, got %d/%d", dev.Erases, dev.Writes)
	}

	// A fresh Store simulates a power cycle
	s2 := NewStore(dev, testEraseBlock)
	ns2 := mustOpen(t, s2, "rtc", true)
	defer ns2.Close()
	if !ns2.HasKey("epoch") {
		t.Fatal("Key lost across reload")
	}
	if got := ns2.GetUint("epoch", 0); got != 1700000000 {
		t.Errorf("Expected 1700000000, got %d", got)
	}
}

func TestNamespacesAreSeparate(t *testing.T) {
	s := NewStore(newTestDevice(), 0)

	a := mustOpen(t, s, "rtc", false)
	a.PutUint("epoch", 1)
	a.Close()

	b := mustOpen(t, s, "other", false)
	if b.HasKey("epoch") {
		t.Error("Key leaked across namespaces")
	}
	b.PutUint("epoch", 2)
	b.Close()

	a = mustOpen(t, s, "rtc", true)
	defer a.Close()
	if got := a.GetUint("epoch", 0); got != 1 {
		t.Errorf("Expected 1, got %d", got)
	}
	if s.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", s.Len())
	}
}

func TestCleanCloseSkipsFlash(t *testing.T) {
	dev := newTestDevice()
	s := NewStore(dev, 0)

	ns := mustOpen(t, s, "rtc", false)
	ns.PutUint("epoch", 5)
	ns.Close()

	ns = mustOpen(t, s, "rtc", false)
	ns.GetUint("epoch", 0)
	ns.PutUint("epoch", 5) // unchanged value
	ns.Close()

	if dev.Erases != 1 {
		t.Errorf("Unchanged namespace should not rewrite flash, %d erases", dev.Erases)
	}
}

func TestOneOpenNamespace(t *testing.T) {
	s := NewStore(newTestDevice(), 0)
	ns := mustOpen(t, s, "rtc", false)

	if _, err := s.Open("rtc", false); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy, got %v", err)
	}

	ns.Close()
	if err := ns.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed on double close, got %v", err)
	}
	if err := ns.PutUint("epoch", 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed after close, got %v", err)
	}

	ns2 := mustOpen(t, s, "rtc", false)
	ns2.Close()
}

func TestReadOnly(t *testing.T) {
	s := NewStore(newTestDevice(), 0)
	ns := mustOpen(t, s, "rtc", true)
	defer ns.Close()

	if err := ns.PutUint("epoch", 1); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Expected ErrReadOnly, got %v", err)
	}
}

func TestInvalidNames(t *testing.T) {
	s := NewStore(newTestDevice(), 0)

	if _, err := s.Open("", false); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName for empty namespace, got %v", err)
	}
	if _, err := s.Open("a-namespace-too-long", false); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName for long namespace, got %v", err)
	}

	ns := mustOpen(t, s, "rtc", false)
	defer ns.Close()
	if err := ns.PutUint("0123456789abcdef", 1); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName for 16 byte key, got %v", err)
	}
	if err := ns.PutUint("0123456789abcde", 1); err != nil {
		t.Errorf("15 byte key should be accepted: %v", err)
	}
}

func TestStoreFull(t *testing.T) {
	s := NewStore(newTestDevice(), 0)
	ns := mustOpen(t, s, "many", false)

	for i := 0; i < MaxEntries; i++ {
		key := "k" + string(rune('A'+i/26)) + string(rune('a'+i%26))
		if err := ns.PutUint(key, uint64(i)); err != nil {
			t.Fatalf("PutUint #%d failed: %v", i, err)
		}
	}
	if err := ns.PutUint("overflow", 1); !errors.Is(err, ErrFull) {
		t.Errorf("Expected ErrFull, got %v", err)
	}
	if err := ns.Close(); err != nil {
		t.Fatalf("Close of a full image failed: %v", err)
	}

	s2 := NewStore(s.dev, 0)
	ns2 := mustOpen(t, s2, "many", true)
	defer ns2.Close()
	if s2.Len() != MaxEntries {
		t.Errorf("Expected %d entries after reload, got %d", MaxEntries, s2.Len())
	}
}

func TestRemove(t *testing.T) {
	dev := newTestDevice()
	s := NewStore(dev, 0)
	ns := mustOpen(t, s, "rtc", false)
	ns.PutUint("epoch", 10)
	ns.PutUint("count", 2)
	ns.Close()

	h, _ := s.Open("rtc", false)
	nsh := h.(*Namespace)
	if err := nsh.Remove("epoch"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	nsh.Close()

	s2 := NewStore(dev, 0)
	ns2 := mustOpen(t, s2, "rtc", true)
	defer ns2.Close()
	if ns2.HasKey("epoch") {
		t.Error("Removed key still present")
	}
	if ns2.GetUint("count", 0) != 2 {
		t.Error("Unrelated key lost")
	}
}

func TestCorruptImageLoadsEmpty(t *testing.T) {
	dev := newTestDevice()
	s := NewStore(dev, 0)
	ns := mustOpen(t, s, "rtc", false)
	ns.PutUint("epoch", 1234)
	ns.Close()

	// Flip a bit in the value area
	dev.Bytes()[headerSize+2*nameSize] ^= 0x01

	s2 := NewStore(dev, 0)
	ns2 := mustOpen(t, s2, "rtc", false)
	if ns2.HasKey("epoch") {
		t.Error("Corrupt image should load empty")
	}

	// The store recovers on the next write
	ns2.PutUint("epoch", 99)
	if err := ns2.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	s3 := NewStore(dev, 0)
	ns3 := mustOpen(t, s3, "rtc", true)
	defer ns3.Close()
	if ns3.GetUint("epoch", 0) != 99 {
		t.Error("Store did not recover after corruption")
	}
}

type failingDevice struct {
	*MemoryDevice
	eraseErr error
}

func (f *failingDevice) EraseBlocks(start, length int64) error {
	return f.eraseErr
}

func TestFlushFailureReloads(t *testing.T) {
	dev := &failingDevice{MemoryDevice: newTestDevice(), eraseErr: errors.New("flash locked")}
	s := NewStore(dev, 0)

	ns := mustOpen(t, s, "rtc", false)
	ns.PutUint("epoch", 1)
	if err := ns.Close(); err == nil {
		t.Fatal("Expected Close to report the flash error")
	}

	// The failed value must not be served from memory
	ns = mustOpen(t, s, "rtc", true)
	defer ns.Close()
	if ns.HasKey("epoch") {
		t.Error("Unpersisted value visible after failed flush")
	}
}

func TestBootClockOnFlash(t *testing.T) {
	dev := newTestDevice()
	clock := &stubClock{epoch: 1000}

	bc := core.NewBootClock(clock, NewStore(dev, 0), nil)
	if !bc.Initialize() {
		t.Fatal("Initialize failed")
	}
	if bc.BootDelta() != core.DeltaUnknown {
		t.Errorf("First boot should have unknown delta, got %d", bc.BootDelta())
	}

	clock.epoch = 1500
	bc = core.NewBootClock(clock, NewStore(dev, 0), nil)
	bc.Initialize()
	if bc.BootDelta() != 500 {
		t.Errorf("Expected delta 500 after power cycle, got %d", bc.BootDelta())
	}
}
