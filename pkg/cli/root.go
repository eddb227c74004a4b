package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
)

// Streams are where commands read input and write output
type Streams struct {
	In  io.Reader
	Out io.Writer
}

// StdStreams returns the process's stdin and stdout
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout}
}

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet

	out io.Writer
}

// NewRootCommand creates the root command
func NewRootCommand(streams Streams) *Command {
	root := &Command{
		Name:        "datahub",
		Description: "datahub - query portal permissions and records",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("datahub", flag.ContinueOnError),
		out:         streams.Out,
	}

	for _, cmd := range []*Command{
		newPermissionsCommand(streams),
		newCheckCommand(streams),
		newFormModeCommand(streams),
		newValidationDefaultsCommand(streams),
		newApplicationsCommand(streams),
		newSubmissionsCommand(streams),
	} {
		root.Subcommands[cmd.Name] = cmd
	}

	return root
}

// Execute runs the subcommand named by args[0]
func (c *Command) Execute(args []string) error {
	if len(args) == 0 {
		return c.usage()
	}

	if args[0] == "-h" || args[0] == "--help" {
		return c.usage()
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(c.out, "Usage: %s <command> [args]\n\n", c.Name)
	fmt.Fprintf(c.out, "Commands:\n")
	for _, name := range names {
		fmt.Fprintf(c.out, "  %-20s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}

// connection holds the flags every command uses to reach the API
type connection struct {
	server *string
	token  *string
}

func addConnectionFlags(fs *flag.FlagSet) connection {
	return connection{
		server: fs.String("server", envOr("DATAHUB_URL", "http://localhost:8080"), "datahub API URL"),
		token:  fs.String("token", os.Getenv("DATAHUB_TOKEN"), "session token (default $DATAHUB_TOKEN)"),
	}
}

func (c connection) client() (*Client, error) {
	if *c.token == "" {
		return nil, fmt.Errorf("a session token is required (-token or DATAHUB_TOKEN)")
	}
	return NewClient(*c.server, *c.token), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}
