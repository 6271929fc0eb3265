package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "registryctl",
		Usage: "Offline tooling for keeper registry operators",
		Commands: []*cli.Command{
			KeygenCommand(),
			EncodeReportCommand(),
			DigestCommand(),
			SignReportCommand(),
			SignEnvelopeCommand(),
		},
	}
}
