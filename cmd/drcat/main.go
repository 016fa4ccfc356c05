// Copyright (c) 2026 The Schwa Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Command drcat decodes a docrep stream matching
// github.com/schwa-lab/dr/pkg/dr/schematest and prints each document's
// fields. With -i it waits for Enter between documents (q quits) instead of
// running straight through.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/codegangsta/cli"
	shlex "github.com/flynn-archive/go-shlex"
	"github.com/peterh/liner"

	log "github.com/golang/glog"
	"github.com/schwa-lab/dr/pkg/dr"
	"github.com/schwa-lab/dr/pkg/dr/schematest"
)

func main() {
	app := cli.NewApp()
	app.Name = "drcat"
	app.Usage = "Decode and print a docrep stream"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "in, f",
			Usage: "input file (default: stdin)",
		},
		cli.BoolFlag{
			Name:  "interactive, i",
			Usage: "wait for Enter between documents",
		},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		log.Exitf("drcat: %v", err)
	}
}

func run(c *cli.Context) error {
	in := os.Stdin
	if path := c.String("in"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %v", path, err)
		}
		defer f.Close()
		in = f
	}

	var line *liner.State
	if c.Bool("interactive") {
		line = liner.NewLiner()
		line.SetCtrlCAborts(true)
		defer line.Close()
	}

	reader := dr.NewReader(in, schematest.DocSchema)
	ctx := context.Background()
	n := 0
	for {
		doc, err := reader.ReadNext(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("decoding document %d: %v", n, err)
		}
		printDocument(n, doc.(*schematest.Document))
		n++

		if line != nil {
			input, err := line.Prompt("press Enter for next document, q to quit> ")
			if err != nil {
				break
			}
			// shlex gives us shell-style quoting/comment rules for free, in
			// case a future command needs more than a single bare word.
			args, err := shlex.Split(input)
			if err == nil && len(args) > 0 && (args[0] == "q" || args[0] == "quit") {
				break
			}
			line.AppendHistory(input)
		}
	}
	fmt.Printf("%d document(s)\n", n)
	return nil
}

func printDocument(i int, d *schematest.Document) {
	fmt.Printf("document %d: title=%q\n", i, d.Title)
	for j, t := range d.Tokens {
		next := "-"
		if t.Next != nil {
			for k, other := range d.Tokens {
				if other == t.Next {
					next = fmt.Sprintf("%d", k)
					break
				}
			}
		}
		fmt.Printf("  token %d: text=%q next=%s\n", j, t.Text, next)
	}
}
