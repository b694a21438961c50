// vesperd runs the kernel nucleus on a simulated PC and moves VIMG image
// packets over serial lines.
package main

import "github.com/alecthomas/kong"

type globals struct {
	Debug bool
}

func main() {
	var cli struct {
		Debug bool `help:"Verbose device and kernel logging."`

		Sim    simCmd    `cmd:"" default:"1" help:"Run the nucleus with this terminal as keyboard and COM1."`
		Listen listenCmd `cmd:"" help:"Receive VIMG packets and save them as PNG files."`
		Send   sendCmd   `cmd:"" help:"Encode an image as a VIMG packet and send it."`
	}

	ctx := kong.Parse(&cli,
		kong.Name("vesperd"),
		kong.Description("Kernel nucleus simulator and VIMG tools."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&globals{Debug: cli.Debug})
	ctx.FatalIfErrorf(err)
}
