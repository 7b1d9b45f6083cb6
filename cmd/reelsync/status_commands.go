package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelsync/internal/api"
	"reelsync/internal/config"
	"reelsync/internal/stores"
)

func newMissingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "missing",
		Short: "List export entries that are not in the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			list, err := stores.LoadMissingList(cfg.StorePath(stores.MissingFile), nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			entries := list.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No missing movies")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for i, entry := range entries {
				release := "-"
				if entry.ReleaseDate != nil {
					release = *entry.ReleaseDate
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					entry.Name,
					strconv.Itoa(entry.Year),
					release,
				})
			}
			fmt.Fprintln(out, tableView{
				headers: []string{"#", "Title", "Year", "Release"},
				aligns:  []columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
				rows:    rows,
				caption: fmt.Sprintf("%d missing", len(rows)),
			}.render())
			return nil
		},
	}
}

func newPendingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List selections waiting on a running serve process",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client := newAPIClient(cfg)
			runs, err := client.runs(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var rows [][]string
			for _, run := range runs.Runs {
				if run.Pending == 0 {
					continue
				}
				selections, err := client.selections(cmd.Context(), run.Name)
				if err != nil {
					return err
				}
				for _, req := range selections.Pending {
					keys := make([]string, 0, len(req.Options))
					for _, opt := range req.Options {
						label := opt.Key + "=" + opt.Title
						if opt.Edition != "" {
							label += " [" + opt.Edition + "]"
						}
						keys = append(keys, label)
					}
					rows = append(rows, []string{
						run.Name,
						req.Identity.String(),
						strings.Join(keys, ", "),
						req.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					})
				}
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No pending selections")
				return nil
			}
			fmt.Fprintln(out, tableView{
				headers: []string{"Run", "Movie", "Candidates", "Waiting since"},
				rows:    rows,
				caption: fmt.Sprintf("%d pending", len(rows)),
			}.render())
			return nil
		},
	}
}

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(cfg *config.Config) *apiClient {
	return &apiClient{
		baseURL: "http://" + dialAddress(cfg.Selection.APIBind),
		token:   cfg.Selection.APIToken,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// dialAddress turns a listen address such as ":8787" into one a client can
// connect to.
func dialAddress(bind string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(bind))
	if err != nil {
		return bind
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func (c *apiClient) runs(ctx context.Context) (api.RunsResponse, error) {
	var resp api.RunsResponse
	err := c.get(ctx, "/api/runs", &resp)
	return resp, err
}

func (c *apiClient) selections(ctx context.Context, run string) (api.SelectionsResponse, error) {
	var resp api.SelectionsResponse
	err := c.get(ctx, "/api/runs/"+run+"/selections", &resp)
	return resp, err
}

func (c *apiClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connect to reelsync serve at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
