// Copyright (c) 2026 The Schwa Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Command drgen writes a synthetic docrep stream matching
// github.com/schwa-lab/dr/pkg/dr/schematest, for use as a test fixture or a
// demo input to drcat.
package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/codegangsta/cli"
	"github.com/golang/snappy"

	log "github.com/golang/glog"
	"github.com/schwa-lab/dr/pkg/testutil"
)

func main() {
	app := cli.NewApp()
	app.Name = "drgen"
	app.Usage = "Generate a synthetic docrep stream"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "out, o",
			Usage: "output file (default: stdout)",
		},
		cli.IntFlag{
			Name:  "tokens, n",
			Usage: "number of tokens in the generated document's store",
			Value: 4,
		},
		cli.IntFlag{
			Name:  "docs, d",
			Usage: "number of documents to emit, back to back",
			Value: 1,
		},
		cli.BoolFlag{
			Name:  "snappy, s",
			Usage: "also write a snappy-compressed sibling file named <out>.snappy",
		},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		log.Exitf("drgen: %v", err)
	}
}

func run(c *cli.Context) error {
	nTokens := c.Int("tokens")
	nDocs := c.Int("docs")

	var out []byte
	for d := 0; d < nDocs; d++ {
		out = append(out, genDocument(nTokens, fmt.Sprintf("document %d", d))...)
	}

	outPath := c.String("out")
	if outPath == "" {
		if _, err := os.Stdout.Write(out); err != nil {
			return err
		}
	} else {
		if err := ioutil.WriteFile(outPath, out, 0644); err != nil {
			return fmt.Errorf("writing %s: %v", outPath, err)
		}
		if c.Bool("snappy") {
			compressed := snappy.Encode(nil, out)
			if err := ioutil.WriteFile(outPath+".snappy", compressed, 0644); err != nil {
				return fmt.Errorf("writing %s.snappy: %v", outPath, err)
			}
		}
	}
	return nil
}

// genDocument builds one well-formed docrep frame: wire version, a classes
// block declaring "__meta__" (one string field, title) and "Token" (a
// string field, text, and a self-pointer field, next), a stores block
// declaring a single "tokens" store of n Token instances, then the
// document instance and its store's instance group.
func genDocument(n int, title string) []byte {
	f := testutil.NewMsgpackFixture()
	f.Uint8(3) // wire version

	f.ArrayHeader(2) // classes block

	f.ArrayHeader(2) // __meta__ class entry
	f.String("__meta__")
	f.ArrayHeader(1)
	f.FieldEntry("title", false, 0, false, false, false)

	f.ArrayHeader(2) // Token class entry
	f.String("Token")
	f.ArrayHeader(2)
	f.FieldEntry("text", false, 0, false, false, false)
	f.FieldEntry("next", false, 0, false, true, false)

	f.ArrayHeader(1) // stores block
	f.ArrayHeader(3)
	f.String("tokens")
	f.Int32(1) // klass id of Token
	f.Int32(int32(n))

	doc := testutil.NewMsgpackFixture()
	doc.FieldMap(1)
	doc.FieldID(0) // title
	doc.String(title)
	f.Instance(doc.Bytes())

	var tokens [][]byte
	for i := 0; i < n; i++ {
		next := i + 1
		if next >= n {
			next = n - 1
		}
		tok := testutil.NewMsgpackFixture()
		tok.FieldMap(2)
		tok.FieldID(0) // text
		tok.String(fmt.Sprintf("token-%d", i))
		tok.FieldID(1) // next
		tok.Int32(int32(next))
		tokens = append(tokens, tok.Bytes())
	}
	f.InstanceGroup(tokens)

	return f.Bytes()
}
