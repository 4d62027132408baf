package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ghusers/ghusers/internal/config"
	"github.com/ghusers/ghusers/internal/github"
	"github.com/ghusers/ghusers/internal/logging"
	"github.com/ghusers/ghusers/internal/userdetail"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show LOGIN",
	Short: "Print a user's profile and top repositories.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShow(cmd.Context(), cmd.OutOrStdout(), args[0], showJSON)
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Write JSON even on a terminal.")
}

func runShow(ctx context.Context, out io.Writer, login string, asJSON bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client, err := newGitHubClient(cfg, logging.Discard())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cliRequestTimeout)
	defer cancel()
	detail, err := userdetail.NewFetcher(client).Fetch(ctx, login)
	if github.IsNotFound(err) {
		return &exitError{code: exitNotFound, err: fmt.Errorf("user %q not found", strings.TrimSpace(login))}
	}
	if err != nil {
		return err
	}

	if asJSON || !isTerminal(out) {
		return writeJSON(out, detail)
	}
	return writeDetailText(out, detail)
}

func writeDetailText(out io.Writer, d userdetail.UserDetail) error {
	var b strings.Builder
	if d.Name != "" {
		fmt.Fprintf(&b, "%s (@%s)\n", d.Name, d.Login)
	} else {
		fmt.Fprintf(&b, "@%s\n", d.Login)
	}
	fmt.Fprintf(&b, "%s\n", d.ProfileURL)
	fmt.Fprintf(&b, "followers: %d  stars: %d\n", d.FollowersCount, d.StarsCount)
	if d.Bio != "" {
		fmt.Fprintf(&b, "\n%s\n", d.Bio)
	}
	if len(d.Repos) > 0 {
		b.WriteString("\nrepositories:\n")
		for _, r := range d.Repos {
			fmt.Fprintf(&b, "  %s  %s\n", r.Name, r.HTMLURL)
			if r.Description != "" {
				fmt.Fprintf(&b, "    %s\n", r.Description)
			}
		}
	}
	_, err := io.WriteString(out, b.String())
	return err
}
