package command

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memkv-go/internal/cli/connection"
	"github.com/yndnr/memkv-go/internal/cli/output"
	"github.com/yndnr/memkv-go/internal/infra/buildinfo"
)

// DefaultServer is the address used when --server is not given.
const DefaultServer = "127.0.0.1:6380"

// App creates the CLI application. Without a subcommand it starts the
// REPL.
func App() *cli.App {
	return &cli.App{
		Name:    "memkv-cli",
		Usage:   "memkv command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ExecCommand(),
			REPLCommand(),
			SubscribeCommand(),
			StatusCommand(),
		},
		Action: replAction,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "memkv server address",
			EnvVars: []string{"MEMKV_SERVER"},
			Value:   DefaultServer,
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "dial and reply timeout",
			Value:   connection.DefaultTimeout,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format for status: table, json, yaml",
			Value:   string(output.FormatTable),
		},
		&cli.StringFlag{
			Name:    "http",
			Usage:   "metrics and health address of the server",
			EnvVars: []string{"MEMKV_HTTP"},
			Value:   "127.0.0.1:9180",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server  string
	Timeout time.Duration
	Output  string
	HTTP    string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Server:  c.String("server"),
		Timeout: c.Duration("timeout"),
		Output:  c.String("output"),
		HTTP:    c.String("http"),
	}
}

// newClient returns a connected TCP client for the --server address.
func newClient(c *cli.Context) (*connection.Client, error) {
	flags := ParseGlobalFlags(c)
	client := connection.NewClient(flags.Server, flags.Timeout)
	if err := client.Connect(contextOf(c)); err != nil {
		return nil, err
	}
	return client, nil
}

func contextOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}

func writerOf(c *cli.Context) io.Writer {
	return c.App.Writer
}

// PrintError prints an error message to the app's error writer.
func PrintError(c *cli.Context, format string, args ...any) {
	fmt.Fprintf(c.App.ErrWriter, "error: "+format+"\n", args...)
}
