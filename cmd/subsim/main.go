package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
)

type cli struct {
	args   []string
	stdout io.Writer
}

type command interface {
	Name() string
	Help() string
	Run(context.Context, io.Writer) error
	Register(*flag.FlagSet)
}

func (c *cli) run(ctx context.Context) int {
	cmdName, args := parseArgs(c.args)
	if cmdName == "" {
		printUsage(c.stdout)
		return errorExitCode
	}

	for _, cmd := range commands() {
		if cmd.Name() == cmdName {
			flags := flag.NewFlagSet(cmdName, flag.ContinueOnError)
			flags.SetOutput(c.stdout)
			cmd.Register(flags)
			if err := flags.Parse(args); err != nil {
				return errorExitCode
			}
			if err := cmd.Run(ctx, c.stdout); err != nil {
				fmt.Fprintf(c.stdout, "Command failed: %v\n", err)
				return errorExitCode
			}
			return successExitCode
		}
	}
	printUsage(c.stdout)
	return errorExitCode
}

var (
	successExitCode = 0
	errorExitCode   = 1
)

func commands() []command {
	return []command{&runCommand{}, &configCommand{}}
}

func main() {
	c := cli{
		args:   os.Args,
		stdout: os.Stdout,
	}
	os.Exit(c.run(context.Background()))
}

func parseArgs(args []string) (string, []string) {
	if len(args) < 2 {
		return "", nil
	}
	return args[1], args[2:]
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Subsim is a subject simulator that streams synthetic signal over UDP")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: subsim <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands() {
		fmt.Fprintf(w, "\t%s\t%s\n", cmd.Name(), cmd.Help())
	}
}
