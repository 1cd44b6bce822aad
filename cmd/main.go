package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang-goodnews/internal/entity"
	"golang-goodnews/internal/news/analyzer"
	"golang-goodnews/internal/news/config"
	"golang-goodnews/internal/news/dto"
	"golang-goodnews/internal/news/source"
	"golang-goodnews/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string
	title      string
	topic      string
	limit      int
)

var rootCmd = &cobra.Command{
	Use:   "goodnews",
	Short: "Developer tools for the Good News service",
	Long:  `goodnews scores text with the configured positivity analyzer and previews what the news sources return.`,
}

var scoreCmd = &cobra.Command{
	Use:   "score [text]",
	Short: "Score text read from the arguments or stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if text == "" {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			text = string(raw)
		}

		cfg, log, err := loadTooling()
		if err != nil {
			return err
		}
		registry, err := analyzer.NewDefaultRegistry(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		a, err := registry.Get(cfg.News.Analyzer)
		if err != nil {
			return err
		}

		analysis, err := a.Analyze(cmd.Context(), text, title)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), analysis)
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and score articles from the configured source without storing them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadTooling()
		if err != nil {
			return err
		}
		t, err := entity.ParseTopic(topic)
		if err != nil {
			return err
		}

		src, err := source.NewDefaultRegistry(cfg, log).Get(cfg.News.Adapter)
		if err != nil {
			return err
		}
		registry, err := analyzer.NewDefaultRegistry(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		a, err := registry.Get(cfg.News.Analyzer)
		if err != nil {
			return err
		}

		articles, err := src.Fetch(cmd.Context(), dto.NewsQuery{Topic: t, Limit: limit, Page: dto.DefaultPage})
		if err != nil {
			return err
		}
		for i := range articles {
			analysis, err := a.Analyze(cmd.Context(), articles[i].Description+" "+articles[i].Content, articles[i].Title)
			if err != nil {
				continue
			}
			articles[i].PositivityScore = analysis.Score
			articles[i].AddKeywords(analysis.PositiveKeywords...)
		}
		return printJSON(cmd.OutOrStdout(), articles)
	},
}

func loadTooling() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Logger.Level, "console")
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-news.yaml", "Path to the configuration file")
	scoreCmd.Flags().StringVar(&title, "title", "", "Headline scored alongside the text")
	fetchCmd.Flags().StringVar(&topic, "topic", "all", "Topic to fetch")
	fetchCmd.Flags().IntVar(&limit, "limit", dto.DefaultLimit, "Number of articles to fetch")
	rootCmd.AddCommand(scoreCmd, fetchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'", err)
		os.Exit(1)
	}
}
