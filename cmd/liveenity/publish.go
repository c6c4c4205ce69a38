package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/liveenity/liveenity"
	"github.com/liveenity/liveenity/blog"
	"github.com/liveenity/liveenity/markdown"
)

var (
	publishSlug      string
	publishNoSitemap bool
	sitemapOut       string
)

var publishCmd = &cobra.Command{
	Use:   "publish <file.md>",
	Short: "Publish a Markdown draft as a blog post",
	Long: `Publish a Markdown draft. The title is taken from a "**Meta Title:**"
line or the first "# " heading; meta lines are dropped from the body. A post
with the same slug is replaced. The sitemap is regenerated afterwards unless
--no-sitemap is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Regenerate sitemap.xml from the published posts",
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
		return regenerateSitemap(cmd, cfg, store)
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishSlug, "slug", "", "Slug to publish under (default: derived from the title)")
	publishCmd.Flags().BoolVar(&publishNoSitemap, "no-sitemap", false, "Do not regenerate the sitemap")
	rootCmd.PersistentFlags().StringVar(&sitemapOut, "sitemap-out", "", "Sitemap file to write (default: <static>/sitemap.xml)")
	rootCmd.AddCommand(publishCmd, sitemapCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	article := markdown.ParseArticle(string(src))
	if article.Title == "" {
		return fmt.Errorf("%s: no title; add a %q line or a \"# \" heading", args[0], "**Meta Title:**")
	}
	slug := publishSlug
	if slug == "" {
		slug = blog.Slugify(article.Title)
	}
	if slug == "" {
		return fmt.Errorf("%s: cannot derive a slug from %q; use --slug", args[0], article.Title)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	post := blog.Post{
		Slug:    slug,
		Title:   article.Title,
		Content: markdown.ToHTML(article.Body),
	}
	if err := store.SavePost(cmd.Context(), post); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "published %q at %s\n", post.Title, liveenity.BuildURL(cfg.URL, "pages", slug))
	if article.Description != "" {
		logger.Debugf("meta description: %s", article.Description)
	}

	if publishNoSitemap {
		return nil
	}
	return regenerateSitemap(cmd, cfg, store)
}

func regenerateSitemap(cmd *cobra.Command, cfg liveenity.SiteConfig, store *blog.Store) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()
	posts, err := store.ListPosts(ctx)
	if err != nil {
		return err
	}
	data, err := liveenity.BuildSitemap(cfg.URL, posts, time.Now())
	if err != nil {
		return err
	}
	out := sitemapOut
	if out == "" {
		out = filepath.Join(cfg.StaticDir, filepath.FromSlash(cfg.SitemapPath))
	}
	if err := liveenity.WriteSitemap(out, data); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d posts)\n", out, len(posts))
	return nil
}
