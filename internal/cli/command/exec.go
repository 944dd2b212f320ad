package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

// ExecCommand returns the exec command.
func ExecCommand() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Aliases:   []string{"x"},
		Usage:     "Send one command and print the reply",
		ArgsUsage: "VERB [ARG...]",
		Action:    execAction,
	}
}

func execAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("exec needs a command", 2)
	}

	client, err := newClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	reply, err := client.Do(contextOf(c), strings.Join(c.Args().Slice(), " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(writerOf(c), reply)

	if strings.HasPrefix(reply, "Error: ") {
		return cli.Exit("", 1)
	}
	return nil
}
