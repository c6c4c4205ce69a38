package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/liveenity/liveenity/blog"
)

const previewLen = 100

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the blog_posts table and add missing columns",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, closeDB, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeDB()
		if err := store.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "blog_posts is ready")
		return nil
	},
}

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List posts, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, closeDB, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeDB()

		posts, err := store.ListPosts(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(posts) == 0 {
			fmt.Fprintln(w, "no posts")
			return nil
		}
		for _, p := range posts {
			fmt.Fprintf(w, "%s\n  /pages/%s\n  %s\n\n", p.Title, p.Slug, p.Preview(previewLen))
		}
		fmt.Fprintf(w, "%d posts\n", len(posts))
		return nil
	},
}

var postCmd = &cobra.Command{
	Use:   "post <slug>",
	Short: "Print one post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, closeDB, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeDB()

		p, err := store.GetPost(cmd.Context(), args[0])
		if errors.Is(err, blog.ErrNotFound) {
			return fmt.Errorf("no post with slug %q", args[0])
		}
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Title: %s\nSlug:  %s\nDate:  %s\n\n%s\n", p.Title, p.Slug, p.DisplayDate(time.Now()), p.Content)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initDBCmd, postsCmd, postCmd)
}
