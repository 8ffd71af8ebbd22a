package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"portfolio-client/internal/projects"
)

func projectsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List and manage portfolio projects",
	}
	cmd.AddCommand(
		projectsListCmd(c),
		projectsGetCmd(c),
		projectsCreateCmd(c),
		projectsUpdateCmd(c),
		projectsDeleteCmd(c),
		projectsCommentsCmd(c),
	)
	return cmd
}

func projectsListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			list, err := a.Projects.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tTAGS\tVIEWS")
			for _, p := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", p.ID, p.Title, strings.Join(p.TechTags, ","), p.ViewCount)
			}
			return tw.Flush()
		},
	}
}

func projectsGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one project as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			p, err := a.Projects.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		},
	}
}

type projectFlags struct {
	title      string
	shortDesc  string
	detailDesc string
	thumbnail  string
	demoURL    string
	githubURL  string
	tags       []string
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Title")
	cmd.Flags().StringVar(&f.shortDesc, "short", "", "Short description")
	cmd.Flags().StringVar(&f.detailDesc, "detail", "", "Detailed description")
	cmd.Flags().StringVar(&f.thumbnail, "thumbnail", "", "Thumbnail URL")
	cmd.Flags().StringVar(&f.demoURL, "demo", "", "Demo URL")
	cmd.Flags().StringVar(&f.githubURL, "github", "", "GitHub URL")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "Tech tag (repeatable)")
}

func projectsCreateCmd(c *cli) *cobra.Command {
	var f projectFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			p, err := a.Projects.Create(cmd.Context(), projects.Create{
				Title:      f.title,
				ShortDesc:  f.shortDesc,
				DetailDesc: f.detailDesc,
				Thumbnail:  f.thumbnail,
				DemoURL:    f.demoURL,
				GithubURL:  f.githubURL,
				TechTags:   f.tags,
			})
			if err != nil {
				return err
			}
			success(cmd, "Created project %d", p.ID)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func projectsUpdateCmd(c *cli) *cobra.Command {
	var f projectFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the given fields of a project (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var u projects.Update
			set := func(name string, v *string, dst **string) {
				if cmd.Flags().Changed(name) {
					*dst = v
				}
			}
			set("title", &f.title, &u.Title)
			set("short", &f.shortDesc, &u.ShortDesc)
			set("detail", &f.detailDesc, &u.DetailDesc)
			set("thumbnail", &f.thumbnail, &u.Thumbnail)
			set("demo", &f.demoURL, &u.DemoURL)
			set("github", &f.githubURL, &u.GithubURL)
			if cmd.Flags().Changed("tag") {
				u.TechTags = &f.tags
			}
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			p, err := a.Projects.Update(cmd.Context(), id, u)
			if err != nil {
				return err
			}
			success(cmd, "Updated project %d", p.ID)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func projectsDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			if err := a.Projects.Delete(cmd.Context(), id); err != nil {
				return err
			}
			success(cmd, "Deleted project %d", id)
			return nil
		},
	}
}

func projectsCommentsCmd(c *cli) *cobra.Command {
	var author, content string
	cmd := &cobra.Command{
		Use:   "comments <id>",
		Short: "List a project's comments, or add one with --content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			if content != "" {
				cm, err := a.Projects.AddComment(cmd.Context(), id, author, content)
				if err != nil {
					return err
				}
				success(cmd, "Added comment %d", cm.ID)
				return nil
			}
			list, err := a.Projects.Comments(cmd.Context(), id)
			if err != nil {
				return err
			}
			for _, cm := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s: %s\n", cm.CreatedAt, cm.AuthorName, cm.Content)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "Author name for a new comment")
	cmd.Flags().StringVar(&content, "content", "", "Body of a new comment")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid project id %q", s)
	}
	return id, nil
}
