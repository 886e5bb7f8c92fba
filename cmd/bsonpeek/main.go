package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"github.com/wirebind/bsonic/wire"
)

func main() {
	var (
		inFile      = flag.String("in", "", "Path to BSON document file")
		dump        = flag.Bool("spew", false, "Dump the parsed tree with go-spew")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *inFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: bsonpeek -in <file.bson>")
		fmt.Fprintln(os.Stderr, "       bsonpeek -in <file.bson> -spew")
		fmt.Fprintln(os.Stderr, "       bsonpeek -in <file.bson> -i  (interactive mode)")
		os.Exit(1)
	}

	if err := run(*inFile, *dump, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(inFile string, dump, interactive bool) error {
	data, err := os.ReadFile(inFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	root, err := wire.ParseDocument(data)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	if dump {
		spew.Dump(root)
		return nil
	}

	if interactive {
		return runInteractive(inFile, root)
	}

	fmt.Printf("Document: %s (%d bytes)\n\n", inFile, len(data))
	printTree("", root, 0)
	return nil
}

var (
	keyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	typeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
)

func printTree(key string, v wire.Value, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	label := ""
	if key != "" {
		label = keyStyle.Render(key) + ": "
	}

	if doc, ok := v.DocumentOK(); ok {
		fmt.Printf("%s%s%s\n", indent, label, typeStyle.Render("document"))
		for _, el := range doc {
			printTree(el.Key, el.Value, depth+1)
		}
		return
	}
	if arr, ok := v.ArrayOK(); ok {
		fmt.Printf("%s%s%s\n", indent, label, typeStyle.Render("array"))
		for i, item := range arr {
			printTree(fmt.Sprintf("[%d]", i), item, depth+1)
		}
		return
	}
	fmt.Printf("%s%s%s %s\n", indent, label, typeStyle.Render(v.Type.String()), v.String())
}
