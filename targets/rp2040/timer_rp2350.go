//go:build rp2350

package main

// RP2350 TIMER0 base address. Not the same as RP2040.
const timerBase = 0x400B0000
