package command

import (
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memkv-go/internal/cli/connection"
	"github.com/yndnr/memkv-go/internal/cli/output"
)

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show server health and readiness from the HTTP endpoint",
		Action: statusAction,
	}
}

// statusView renders a connection.Status as a table.
type statusView struct {
	*connection.Status
}

func (s statusView) Table() *output.Table {
	t := output.NewTable("STATUS", "READY", "LISTEN", "VERSION")
	t.AddRow(s.Status.Status, strconv.FormatBool(s.Ready), s.Listen, s.Version)
	return t
}

func statusAction(c *cli.Context) error {
	flags := ParseGlobalFlags(c)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	client := connection.NewHTTPClient(flags.HTTP, flags.Timeout)
	st, err := client.Status(contextOf(c))
	if err != nil {
		return err
	}

	var data any = st
	if format == output.FormatTable {
		data = statusView{st}
	}
	return output.NewFormatter(format).Format(writerOf(c), data)
}
