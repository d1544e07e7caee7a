package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pders01/feedcore/internal/app"
	"github.com/pders01/feedcore/internal/config"
	"github.com/pders01/feedcore/internal/feed"
	"github.com/pders01/feedcore/internal/validation"
	"github.com/pders01/feedcore/internal/viewer"
)

func newFeedCmd(opts *rootOptions) *cobra.Command {
	var (
		pages   int
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the image feed, falling back to the cache when offline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(opts, func(client *app.Client) error {
				ctx := cmd.Context()
				out := cmd.OutOrStdout()

				if offline {
					images, err := client.LocalFeed(ctx)
					if err != nil {
						return err
					}
					printImages(out, images)
					return nil
				}

				page, err := client.Feed(ctx)
				if err != nil {
					return err
				}
				for i := 1; i < pages && page.HasMore(); i++ {
					next, err := page.LoadMore(ctx)
					if err != nil {
						return err
					}
					page = next
				}
				printImages(out, page.Items)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&pages, "pages", "p", 1, "Number of pages to load")
	cmd.Flags().BoolVar(&offline, "offline", false, "Only read the local cache")
	return cmd
}

func printImages(w io.Writer, images []feed.Image) {
	if len(images) == 0 {
		fmt.Fprintln(w, idStyle.Render("No images."))
		return
	}
	for _, img := range images {
		title := img.Description
		if title == "" {
			title = "(no description)"
		}
		fmt.Fprintln(w, titleStyle.Render(title))
		if img.Location != "" {
			fmt.Fprintln(w, "  "+locStyle.Render(img.Location))
		}
		fmt.Fprintln(w, "  "+urlStyle.Render(img.URL.String()))
		fmt.Fprintln(w, "  "+idStyle.Render(img.ID.String()))
	}
}

func newImageCmd(opts *rootOptions) *cobra.Command {
	var (
		output  string
		open    bool
		command string
	)

	cmd := &cobra.Command{
		Use:   "image <url>",
		Short: "Fetch image data, using the cache when possible",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(opts, func(client *app.Client) error {
				data, err := client.ImageData(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if open {
					return openImage(cmd, data, command)
				}
				if output == "" || output == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}

				path, err := validation.NewPathValidator().ValidateFile(output)
				if err != nil {
					return fmt.Errorf("invalid output path: %w", err)
				}
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return fmt.Errorf("writing image: %w", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), successStyle.Render(fmt.Sprintf("Wrote %d bytes to %s", len(data), path)))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write image to file instead of stdout")
	cmd.Flags().BoolVar(&open, "open", false, "Open the image in an image viewer")
	cmd.Flags().StringVar(&command, "viewer", "", "Viewer command to use with --open")
	return cmd
}

func openImage(cmd *cobra.Command, data []byte, command string) error {
	var opts []viewer.Option
	if command != "" {
		opts = append(opts, viewer.WithCommand(command))
	}
	launcher, err := viewer.NewLauncher(opts...)
	if err != nil {
		return err
	}
	path, err := viewer.WriteTemp(data)
	if err != nil {
		return err
	}
	if err := launcher.Open(path); err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), successStyle.Render(fmt.Sprintf("Opened %s with %s", path, launcher.Command())))
	return nil
}

func newCommentsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "comments <image-id>",
		Short: "List the comments of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imageID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid image id %q: %w", args[0], err)
			}
			return withClient(opts, func(client *app.Client) error {
				comments, err := client.Comments(cmd.Context(), imageID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(comments) == 0 {
					fmt.Fprintln(out, idStyle.Render("No comments."))
					return nil
				}
				for _, c := range comments {
					fmt.Fprintf(out, "%s %s\n", titleStyle.Render(c.Username), idStyle.Render(c.CreatedAt.Format("2006-01-02 15:04")))
					fmt.Fprintf(out, "  %s\n", c.Message)
				}
				return nil
			})
		},
	}
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Remove the cached feed if it expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// withClient validates on the way out
			err := withClient(opts, func(*app.Client) error { return nil })
			if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Cache validated."))
			}
			return err
		},
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the cached feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(opts, func(client *app.Client) error {
				results, err := client.Search(args[0], limit)
				if err != nil {
					return err
				}
				images := make([]feed.Image, 0, len(results))
				for _, r := range results {
					images = append(images, r.Image)
				}
				printImages(cmd.OutOrStdout(), images)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")
	return cmd
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var path string
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := path
			if target == "" {
				target = config.DefaultPath()
			}
			if err := config.GenerateDefaultConfig(target); err != nil {
				return fmt.Errorf("generating config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", filepath.Clean(target))
			return nil
		},
	}
	generate.Flags().StringVar(&path, "path", "", "Where to write the file (default ~/.config/feedcore/config.toml)")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			data, err := config.Encode(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(generate, show)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", AppName, Version)
			fmt.Fprintln(out, "Image feed client")
			fmt.Fprintln(out, "github.com/pders01/feedcore")
		},
	}
}
