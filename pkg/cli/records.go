package cli

import (
	"context"
	"fmt"
	"strings"
)

func newFormModeCommand(streams Streams) *Command {
	cmd := &Command{
		Name:        "form-mode",
		Description: "Show how you may open a submission request form",
		Flags:       newFlagSet("form-mode", streams.Out),
	}
	conn := addConnectionFlags(cmd.Flags)
	application := cmd.Flags.String("application", "", "Application ID")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if *application == "" {
			return fmt.Errorf("application is required")
		}
		client, err := conn.client()
		if err != nil {
			return err
		}

		resp, err := client.FormMode(context.Background(), *application)
		if err != nil {
			return fmt.Errorf("failed to get form mode: %w", err)
		}
		fmt.Fprintf(streams.Out, "%s: %s\n", resp.ApplicationID, resp.FormMode)
		return nil
	}
	return cmd
}

func newValidationDefaultsCommand(streams Streams) *Command {
	cmd := &Command{
		Name:        "validation-defaults",
		Description: "Show the preselected validation type and target",
		Flags:       newFlagSet("validation-defaults", streams.Out),
	}
	conn := addConnectionFlags(cmd.Flags)
	submission := cmd.Flags.String("submission", "", "Submission ID")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if *submission == "" {
			return fmt.Errorf("submission is required")
		}
		client, err := conn.client()
		if err != nil {
			return err
		}

		defaults, err := client.ValidationDefaults(context.Background(), *submission)
		if err != nil {
			return fmt.Errorf("failed to get validation defaults: %w", err)
		}
		fmt.Fprintf(streams.Out, "Type:   %s\n", defaults.Type)
		fmt.Fprintf(streams.Out, "Target: %s\n", defaults.Target)
		fmt.Fprintf(streams.Out, "Runs:   %s\n", strings.Join(defaults.Types, ", "))
		return nil
	}
	return cmd
}
