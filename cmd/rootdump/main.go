// Command rootdump is a thin CLI veneer over the rootio decoder: it opens
// a file, prints the header summary, or lists the objects the decoder
// knows about. It implements no GUI, JSON export, or plotting and adds no
// systems design of its own.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"

	"github.com/kylelau519/rootio"
)

func main() {
	app := &cli.App{
		Name:  "rootdump",
		Usage: "inspect a CERN ROOT file's header, keys, and streamer catalog",
		Commands: []*cli.Command{
			infoCommand,
			listCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "rootdump: %v\n", err)
		os.Exit(1)
	}
}

var infoCommand = &cli.Command{
	Name:      "info",
	Usage:     "print a summary of a ROOT file's header and streamer catalog",
	ArgsUsage: "FILE",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return cli.Exit("info: missing FILE argument", 2)
		}
		r, err := rootio.Open(context.Background(), path)
		if err != nil {
			return err
		}
		defer r.Close()
		fmt.Println(r.FileInfo())
		return nil
	},
}

var listCommand = &cli.Command{
	Name:      "list",
	Usage:     "list the objects a ROOT file's streamer catalog describes",
	ArgsUsage: "FILE",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return cli.Exit("list: missing FILE argument", 2)
		}
		r, err := rootio.Open(context.Background(), path)
		if err != nil {
			return err
		}
		defer r.Close()

		tbl := table.New("name", "class")
		for _, obj := range r.ListObjects() {
			tbl.AddRow(obj.Name, obj.Class)
		}
		tbl.Print()
		return nil
	},
}
