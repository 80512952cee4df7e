package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"formflow/internal/cli"
	"formflow/internal/model"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List archived fill sessions",
		RunE:  runSessions,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <session-id>",
		Short: "Show the audit manifest of an archived session",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionShow,
	})

	return cmd
}

func runSessions(cmd *cobra.Command, _ []string) error {
	store, err := openStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	summaries, err := store.ListSessions(cmd.Context())
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println(cli.FormatInfo("No archived sessions."))
		return nil
	}

	var content strings.Builder
	fmt.Fprintf(&content, "  %-16s %-12s %-8s %-8s %s\n", "SESSION", "STATE", "FIELDS", "RETRIES", "OUTPUT")
	for _, s := range summaries {
		state := string(s.State)
		switch s.State {
		case model.StateDone:
			state = cli.SuccessStyle.Render(state)
		case model.StateReporting:
			state = cli.ErrorStyle.Render(state)
		}
		fmt.Fprintf(&content, "  %-16s %-12s %-8d %-8d %s\n",
			s.SessionID, state, s.FieldCount, s.AttemptCount, s.OutputPath)
	}

	fmt.Println(cli.RenderBox(fmt.Sprintf("%d archived sessions", len(summaries)), content.String()))
	return nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	store, err := openStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	session, err := store.GetSession(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	prompter := cli.NewPrompter(nil, nil)
	if session.State == model.StateDone {
		prompter.ShowSuccess(session)
	} else {
		prompter.ShowFailure(session)
	}
	return nil
}
