// Command ember is the interactive REPL driver: it reads one line of
// source at a time, feeds it to the evaluator, and prints the resulting
// value or error. The REPL loop, its history file, and flag parsing are
// deliberately out of the compilation core's scope (spec.md §1) — this file
// is the whole of that outer shell.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/emberlang/ember/internal/compile"
	"github.com/emberlang/ember/internal/evaluator"
)

func main() {
	os.Exit(doMain(os.Stdin, os.Stdout, os.Stderr))
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdIn io.Reader, stdOut, stdErr io.Writer) int {
	flag.CommandLine.SetOutput(stdErr)

	var historyPath string
	flag.StringVar(&historyPath, "history", "", "Path to a file of prior input lines, replayed silently before the interactive prompt.")
	flag.BoolVar(&compile.PrintAST, "debug-ast", false, "Print the parsed AST for each input line.")
	flag.BoolVar(&compile.PrintIR, "debug-ir", false, "Print the lowered IR for each input line.")
	flag.BoolVar(&compile.PrintAsm, "debug-asm", false, "Print the emitted x86-64 machine code for each input line.")
	flag.Parse()

	if flag.NArg() != 0 {
		fmt.Fprintln(stdErr, "ember takes no positional arguments")
		flag.Usage()
		return 1
	}

	eval := evaluator.New(stdErr)

	if historyPath != "" {
		if err := replayHistory(eval, historyPath, stdErr); err != nil {
			fmt.Fprintf(stdErr, "history: %v\n", err)
			return 1
		}
	}

	return repl(eval, stdIn, stdOut, stdErr, historyPath)
}

// replayHistory silently re-evaluates every line of a previous session's
// history file, so function definitions from earlier runs are callable
// again. A missing file is not an error — there's simply no history yet.
func replayHistory(eval *evaluator.Evaluator, path string, stdErr io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if _, err := eval.Evaluate(scanner.Text()); err != nil {
			fmt.Fprintf(stdErr, "history replay: %v\n", err)
		}
	}
	return scanner.Err()
}

func repl(eval *evaluator.Evaluator, stdIn io.Reader, stdOut, stdErr io.Writer, historyPath string) int {
	var history *os.File
	if historyPath != "" {
		f, err := os.OpenFile(historyPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(stdErr, "history: %v\n", err)
		} else {
			history = f
			defer history.Close()
		}
	}

	scanner := bufio.NewScanner(stdIn)
	fmt.Fprint(stdOut, "> ")
	for scanner.Scan() {
		line := scanner.Text()
		if history != nil {
			fmt.Fprintln(history, line)
		}

		v, err := eval.Evaluate(line)
		if err != nil {
			fmt.Fprintf(stdOut, "error: %v\n", err)
		} else {
			fmt.Fprintln(stdOut, v.Render())
		}
		fmt.Fprint(stdOut, "> ")
	}
	fmt.Fprintln(stdOut)
	return 0
}
