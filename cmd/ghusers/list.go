package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ghusers/ghusers/internal/config"
	"github.com/ghusers/ghusers/internal/logging"
	"github.com/ghusers/ghusers/internal/search"
	"github.com/ghusers/ghusers/internal/userlist"
)

const cliRequestTimeout = 30 * time.Second

type listOptions struct {
	UserName string
	Location string
	Page     int
	PerPage  int
	JSON     bool
}

var listFlags listOptions

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print one page of users, optionally filtered by name and location.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd.Context(), cmd.OutOrStdout(), listFlags)
	},
}

func init() {
	listCmd.Flags().StringVar(&listFlags.UserName, "search", "", "Username to search for.")
	listCmd.Flags().StringVar(&listFlags.Location, "loc", "", "Location to search in.")
	listCmd.Flags().IntVar(&listFlags.Page, "page", 1, "Page number, starting at 1.")
	listCmd.Flags().IntVar(&listFlags.PerPage, "per-page", 0, "Rows per page: 5, 10 or 25 (default from DEFAULT_PAGE_SIZE).")
	listCmd.Flags().BoolVar(&listFlags.JSON, "json", false, "Write JSON even on a terminal.")
}

type listOutput struct {
	Directive  string               `json:"directive"`
	Query      string               `json:"query"`
	Page       int                  `json:"page"`
	PerPage    int                  `json:"perPage"`
	TotalCount int                  `json:"totalCount"`
	TotalPages int                  `json:"totalPages"`
	Rows       []search.UserSummary `json:"rows"`
}

func runList(ctx context.Context, out io.Writer, opts listOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	page := search.NewPageRequest(cfg.DefaultPageSize)
	if opts.PerPage != 0 {
		if search.ClampPageSize(opts.PerPage) != opts.PerPage {
			return fmt.Errorf("--per-page must be one of %v", search.PageSizes)
		}
		page.SetPageSize(opts.PerPage)
	}
	if opts.Page < 1 {
		return errors.New("--page must be at least 1")
	}
	page.SetPage(opts.Page - 1)

	client, err := newGitHubClient(cfg, logging.Discard())
	if err != nil {
		return err
	}

	filter := search.Filter{UserName: opts.UserName, Location: opts.Location}
	req := search.NewListRequest(filter, page)

	ctx, cancel := context.WithTimeout(ctx, cliRequestTimeout)
	defer cancel()
	result, err := userlist.FetchPage(ctx, client, req)
	if err != nil {
		return err
	}

	query := url.Values{}
	search.ApplyFilter(query, filter)
	search.ApplyPage(query, page, cfg.DefaultPageSize)
	output := listOutput{
		Directive:  req.Directive.String(),
		Query:      query.Encode(),
		Page:       page.APIPage(),
		PerPage:    page.PageSize,
		TotalCount: result.TotalCount,
		TotalPages: search.PageCount(result.TotalCount, page.PageSize),
		Rows:       result.Rows,
	}

	if opts.JSON || !isTerminal(out) {
		return writeJSON(out, output)
	}
	return writeListTable(out, page, output)
}

func writeListTable(out io.Writer, page search.PageRequest, output listOutput) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tLOGIN\tPROFILE")
	for i, row := range output.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", page.Offset()+i+1, row.Login, row.ProfileURL)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(output.Rows) == 0 {
		fmt.Fprintln(out, "No users found.")
	}
	_, err := fmt.Fprintf(out, "page %d of %d (%d users)\n", output.Page, output.TotalPages, output.TotalCount)
	return err
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
