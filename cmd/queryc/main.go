// Command queryc is a demo harness for the compiler: it has no parser
// of its own (spec §1 excludes a surface syntax from this repo), so it
// walks a small library of hand-built calculus trees
// (internal/examples) through Compile and pretty-prints the resulting
// algebra, type, and errors. Grounded on cmd/ailang/main.go's
// flag-dispatch-plus-color shape.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/sunholo/queryc/internal/algebra"
	"github.com/sunholo/queryc/internal/catalog"
	"github.com/sunholo/queryc/internal/compiler"
	"github.com/sunholo/queryc/internal/examples"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	var helpFlag = flag.Bool("help", false, "Show help")
	flag.Parse()

	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	switch flag.Arg(0) {
	case "list":
		runList()
	case "compile":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing example name\n", red("Error"))
			fmt.Println("Usage: queryc compile <example>")
			os.Exit(1)
		}
		runCompile(flag.Arg(1))
	case "repl":
		runREPL()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), flag.Arg(0))
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(bold("queryc - monoid query calculus compiler"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  queryc <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s              List the bundled example queries\n", cyan("list"))
	fmt.Printf("  %s <name>    Compile one example and print its algebra\n", cyan("compile"))
	fmt.Printf("  %s              Start the interactive example browser\n", cyan("repl"))
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  %s\n", cyan("queryc list"))
	fmt.Printf("  %s\n", cyan("queryc compile filter"))
}

func runList() {
	for _, name := range examples.Names() {
		ex, _ := examples.Get(name)
		fmt.Printf("  %s  %s\n", cyan(name), ex.Description)
	}
}

// runCompile loads name's example, compiles it against its expected
// catalog, and prints the result the same way compile-via-repl does.
func runCompile(name string) {
	ex, err := examples.Get(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}
	world, err := catalog.LoadFile(ex.Catalog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot load catalog %q: %v\n", red("Error"), ex.Catalog, err)
		os.Exit(1)
	}
	printResult(ex, compiler.Compile(ex.Tree, world))
}

func printResult(ex examples.Example, result *compiler.Result) {
	fmt.Printf("%s %s\n", bold("Example:"), ex.Name)
	fmt.Printf("%s  %s\n", bold("Catalog:"), ex.Catalog)
	if len(result.Errors) > 0 {
		fmt.Printf("%s\n", red("Errors:"))
		for _, e := range result.Errors {
			fmt.Printf("  %s %s\n", red("•"), e.Error())
		}
		return
	}
	fmt.Printf("%s %s\n", bold("Type:"), yellow(result.Type.String()))
	fmt.Printf("%s\n  %s\n", bold("Algebra:"), green(algebra.Print(result.Algebra)))
}

// runREPL drives a liner-based interactive loop: the user types an
// example name, queryc compiles it against its own catalog and prints
// the result; :list shows what's available, :quit exits.
func runREPL() {
	fmt.Printf("%s - type an example name, %s to list, %s to exit\n", bold("queryc repl"), cyan(":list"), cyan(":quit"))

	line := liner.NewLiner()
	defer line.Close()

	for _, name := range examples.Names() {
		line.AppendHistory(name)
	}

	for {
		input, err := line.Prompt("queryc> ")
		if err != nil {
			fmt.Println()
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch input {
		case ":quit", ":q":
			return
		case ":list":
			runList()
			continue
		}

		ex, err := examples.Get(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
			continue
		}
		world, err := catalog.LoadFile(ex.Catalog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: cannot load catalog %q: %v\n", red("Error"), ex.Catalog, err)
			continue
		}
		printResult(ex, compiler.Compile(ex.Tree, world))
	}
}
