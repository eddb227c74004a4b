package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/platinummonkey/datahub/pkg/api"
)

func newPermissionsCommand(streams Streams) *Command {
	cmd := &Command{
		Name:        "permissions",
		Description: "List effective and conditional permissions",
		Flags:       newFlagSet("permissions", streams.Out),
	}
	conn := addConnectionFlags(cmd.Flags)
	user := cmd.Flags.String("user", "", "User ID (default: yourself; needs user:manage)")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		client, err := conn.client()
		if err != nil {
			return err
		}

		var resp *api.PermissionsResponse
		if *user == "" {
			resp, err = client.MyPermissions(context.Background())
		} else {
			resp, err = client.UserPermissions(context.Background(), *user)
		}
		if err != nil {
			return fmt.Errorf("failed to get permissions: %w", err)
		}

		printPermissions(streams.Out, resp)
		return nil
	}
	return cmd
}

func printPermissions(out io.Writer, resp *api.PermissionsResponse) {
	fmt.Fprintf(out, "User: %s (%s)\n", resp.UserID, resp.Role)
	fmt.Fprintf(out, "\nEffective:\n")
	for _, p := range resp.Effective {
		fmt.Fprintf(out, "  %s\n", p)
	}
	if len(resp.Conditional) > 0 {
		fmt.Fprintf(out, "\nConditional (depends on the record):\n")
		for _, p := range resp.Conditional {
			fmt.Fprintf(out, "  %s\n", p)
		}
	}
}

func newCheckCommand(streams Streams) *Command {
	cmd := &Command{
		Name:        "check",
		Description: "Check one permission, optionally against a record",
		Flags:       newFlagSet("check", streams.Out),
	}
	conn := addConnectionFlags(cmd.Flags)
	permission := cmd.Flags.String("permission", "", "Permission key, resource:action")
	application := cmd.Flags.String("application", "", "Application ID to check against")
	submission := cmd.Flags.String("submission", "", "Submission ID to check against")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}

		resource, action, ok := strings.Cut(*permission, ":")
		if !ok || resource == "" || action == "" {
			return fmt.Errorf("permission must be resource:action")
		}

		client, err := conn.client()
		if err != nil {
			return err
		}

		decision, err := client.Check(context.Background(), api.CheckRequest{
			Resource:      resource,
			Action:        action,
			ApplicationID: *application,
			SubmissionID:  *submission,
		})
		if err != nil {
			return fmt.Errorf("failed to check permission: %w", err)
		}

		if decision.Allowed {
			fmt.Fprintf(streams.Out, "%s: allowed\n", decision.Permission)
		} else {
			fmt.Fprintf(streams.Out, "%s: denied (%s)\n", decision.Permission, decision.Reason)
		}
		return nil
	}
	return cmd
}
