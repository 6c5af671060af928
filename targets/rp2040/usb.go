//go:build rp2040 || rp2350

package main

import (
	"machine"
)

const maxLineLen = 64

var (
	lineBuf      [maxLineLen]byte
	lineLen      int
	lineOverflow bool
)

// InitUSB initializes USB serial communication
// TinyGo automatically sets up USB CDC-ACM on RP2040
func InitUSB() {
	// Configure machine.Serial (which is USB CDC on RP2040)
	err := machine.Serial.Configure(machine.UARTConfig{})
	if err != nil {
		return
	}
}

// WriteLine sends one CRLF-terminated line to the host
func WriteLine(s string) {
	machine.Serial.Write([]byte(s))
	machine.Serial.Write([]byte("\r\n"))
}

// PollLine drains buffered USB bytes and returns a completed line.
// Lines longer than maxLineLen are discarded whole.
func PollLine() (string, bool) {
	for machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			return "", false
		}
		switch b {
		case '\r', '\n':
			if lineOverflow {
				lineOverflow = false
				lineLen = 0
				WriteLine("err line too long")
				continue
			}
			if lineLen == 0 {
				continue
			}
			line := string(lineBuf[:lineLen])
			lineLen = 0
			return line, true
		default:
			if lineLen >= maxLineLen {
				lineOverflow = true
				continue
			}
			lineBuf[lineLen] = b
			lineLen++
		}
	}
	return "", false
}
