package nucleus

import (
	"fmt"
	"log"

	"example.com/vesper-nucleus/nucleus/hal"
	"example.com/vesper-nucleus/nucleus/keyboard"
	"example.com/vesper-nucleus/nucleus/pic"
	"example.com/vesper-nucleus/nucleus/scancode"
)

// Config holds the bring-up parameters of the interrupt subsystem.
type Config struct {
	// Offsets are the vector bases of the two interrupt controllers. The
	// timer is delivered at Offsets.Primary and the keyboard right after.
	Offsets pic.Offsets

	// QueueCapacity is the number of scancodes buffered between the
	// keyboard interrupt and PollKey.
	QueueCapacity int

	Control keyboard.ControlHandling

	// TimerHz programs PIT channel 0 to interrupt this many times a second.
	// Zero leaves the timer at its power-on rate of about 18.2 Hz.
	TimerHz int

	Logger *log.Logger
	Debug  bool
}

// DefaultConfig returns the standard PC setup: vectors 32-47, an 8-byte
// scancode queue, ctrl ignored, timer untouched.
func DefaultConfig() Config {
	return Config{
		Offsets:       pic.DefaultOffsets,
		QueueCapacity: scancode.DefaultCapacity,
		Control:       keyboard.ControlIgnore,
	}
}

// Validate checks the configuration before anything touches hardware.
func (c Config) Validate() error {
	if err := c.Offsets.Validate(); err != nil {
		return err
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("nucleus: queue capacity must be positive, got %d", c.QueueCapacity)
	}
	if c.TimerHz < 0 {
		return fmt.Errorf("nucleus: negative timer rate %d", c.TimerHz)
	}
	if c.TimerHz > 0 {
		div := hal.PIT_BASE_HZ / c.TimerHz
		if div < 1 || div > 0xFFFF {
			return fmt.Errorf("nucleus: timer rate %d Hz outside the PIT range", c.TimerHz)
		}
	}
	return nil
}
