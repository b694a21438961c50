package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"

	"example.com/vesper-nucleus/nucleus"
	"example.com/vesper-nucleus/nucleus/hal"
	"example.com/vesper-nucleus/nucleus/keyboard"
	"example.com/vesper-nucleus/nucleus/machine"
	"example.com/vesper-nucleus/nucleus/pic"
	"example.com/vesper-nucleus/nucleus/uart"
)

type simCmd struct {
	TimerHz     int   `name:"timer-hz" default:"100" help:"PIT channel 0 rate, 0 to leave it at 18.2 Hz."`
	Queue       int   `default:"8" help:"Scancode queue capacity."`
	Vector      uint8 `default:"32" help:"First vector of the primary interrupt controller."`
	CtrlLetters bool  `name:"ctrl-letters" default:"true" negatable:"" help:"Map ctrl+A..Z to U+0001..U+001A."`
	Baud        int   `default:"115200" help:"COM1 line rate."`
	NoRaw       bool  `name:"no-raw" help:"Leave the terminal in cooked mode."`
}

var (
	info  = color.New(color.FgCyan)
	good  = color.New(color.FgGreen)
	warn  = color.New(color.FgYellow)
	fault = color.New(color.FgRed, color.Bold)
)

func (c *simCmd) Run(g *globals) error {
	offsets, err := pic.NewOffsets(c.Vector)
	if err != nil {
		return err
	}
	cfg := nucleus.DefaultConfig()
	cfg.Offsets = offsets
	cfg.QueueCapacity = c.Queue
	cfg.TimerHz = c.TimerHz
	cfg.Debug = g.Debug
	if c.CtrlLetters {
		cfg.Control = keyboard.ControlMapLetters
	}

	devLog := log.New(io.Discard, "", 0)
	if g.Debug {
		devLog = log.New(os.Stderr, "", log.Ltime)
	}
	m := machine.New(machine.Config{
		Console:          os.Stdout,
		RunTimer:         c.TimerHz > 0,
		KeyboardByteTime: machine.PS2ByteTime,
		Logger:           devLog,
		Debug:            g.Debug,
	})

	com1 := uart.NewPort(m, hal.COM1_PORT_BASE)
	if err := com1.Init(c.Baud); err != nil {
		return err
	}
	cfg.Logger = log.New(com1, "", 0)

	k, err := nucleus.New(cfg, m.CPU, m)
	if err != nil {
		return err
	}

	if !c.NoRaw {
		restore, err := makeRaw(int(os.Stdin.Fd()))
		if err != nil {
			warn.Fprintf(os.Stderr, "vesperd: stdin stays in cooked mode: %v\n", err)
		} else {
			defer restore()
		}
	}

	info.Fprintln(os.Stderr, "vesperd: booting, Esc or ctrl+D halts the kernel")
	m.Start()
	defer m.Stop()

	go kernelMain(k, com1)
	go feedKeyboard(m)

	<-m.Done()

	if err := m.CPU.Fault(); err != nil {
		fault.Fprintf(os.Stderr, "\r\nvesperd: %v\r\n", err)
		return err
	}
	good.Fprintf(os.Stderr, "\r\nvesperd: halted after %d interrupts, %d timer ticks, %d scancodes dropped\r\n",
		m.CPU.Delivered(), k.Ticks(), k.DroppedScancodes())
	return nil
}

// kernelMain is the kernel's boot path and cooperative loop. It echoes keys
// back over COM1 and halts on Escape, ctrl+C or ctrl+D.
func kernelMain(k *nucleus.Kernel, console io.Writer) {
	k.Init()
	fmt.Fprint(console, "> ")
	k.Run(func(key keyboard.DecodedKey) bool {
		if key.Raw {
			fmt.Fprintf(console, "<%v>", key.Code)
			return true
		}
		switch key.Rune {
		case 0x1B, 0x03, 0x04:
			return false
		case '\n':
			fmt.Fprint(console, "\n> ")
		case 0x08, 0x7F:
			fmt.Fprint(console, "\b \b")
		default:
			if key.Rune < 0x20 {
				fmt.Fprintf(console, "^%c", key.Rune+'@')
			} else {
				fmt.Fprintf(console, "%c", key.Rune)
			}
		}
		return true
	})
	fmt.Fprintln(console)
	k.Halt()
}

// feedKeyboard forwards stdin to the simulated keyboard. End of input is
// typed as Escape so the kernel halts.
func feedKeyboard(m *machine.Machine) {
	buf := make([]byte, 64)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			typeHostBytes(m.Keyboard, buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				warn.Fprintf(os.Stderr, "vesperd: stdin: %v\r\n", err)
			}
			m.Keyboard.Press(escapeMake, escapeMake|0x80)
			return
		}
	}
}
