package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chriscorrea/kwcanon/internal/app"
	"github.com/chriscorrea/kwcanon/internal/config"
	"github.com/chriscorrea/kwcanon/internal/embedding"
)

// settings holds the environment configuration, loaded before any command runs
var settings *config.Config

// stringFlag returns the flag value when it was set on the command line and
// fallback otherwise
func stringFlag(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

func intFlag(cmd *cobra.Command, name string, fallback int) int {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	return fallback
}

func floatFlag(cmd *cobra.Command, name string, fallback float64) float64 {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetFloat64(name)
		return v
	}
	return fallback
}

// sourceArg returns the first positional argument, or "-" for stdin
func sourceArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

// outputPath places name in the output directory unless the flag gives a path
func outputPath(cmd *cobra.Command, flag, name string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	return filepath.Join(outputDir(cmd), name)
}

func outputDir(cmd *cobra.Command) string {
	return stringFlag(cmd, "out", settings.OutputDir)
}

func quiet(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("quiet") {
		q, _ := cmd.Flags().GetBool("quiet")
		return q
	}
	return settings.Quiet
}

// buildGraphInput reads the flags shared by the graph commands
func buildGraphInput(cmd *cobra.Command, args []string) (app.GraphInput, error) {
	clusters, err := config.LoadClusters(stringFlag(cmd, "clusters", settings.Input.ClustersPath))
	if err != nil {
		return app.GraphInput{}, err
	}
	return app.GraphInput{
		Source:           sourceArg(args),
		SynonymsPath:     stringFlag(cmd, "synonyms", settings.Input.SynonymsPath),
		Clusters:         clusters,
		Sentinel:         stringFlag(cmd, "sentinel", settings.Input.Sentinel),
		ClusterAttribute: stringFlag(cmd, "cluster-attribute", settings.Input.ClusterAttribute),
	}, nil
}

// buildWeighConfig constructs an app.WeighConfig from command flags and arguments
func buildWeighConfig(cmd *cobra.Command, args []string) (app.WeighConfig, error) {
	input, err := buildGraphInput(cmd, args)
	if err != nil {
		return app.WeighConfig{}, err
	}
	granularity, err := app.ParseGranularity(stringFlag(cmd, "granularity", "paper"))
	if err != nil {
		return app.WeighConfig{}, err
	}
	allClusters, _ := cmd.Flags().GetBool("all-clusters")

	return app.WeighConfig{
		Input:       input,
		OutputDir:   outputDir(cmd),
		TopN:        intFlag(cmd, "top", settings.Weigh.TopN),
		Granularity: granularity,
		AllClusters: allClusters,
		Quiet:       quiet(cmd),
	}, nil
}

// buildCountConfig constructs an app.CountConfig from command flags and arguments
func buildCountConfig(cmd *cobra.Command, args []string) (app.CountConfig, error) {
	input, err := buildGraphInput(cmd, args)
	if err != nil {
		return app.CountConfig{}, err
	}
	return app.CountConfig{
		Input:       input,
		OutputDir:   outputDir(cmd),
		MappingPath: stringFlag(cmd, "categories-csv", settings.Classify.MappingPath),
	}, nil
}

// buildClassifyConfig constructs an app.ClassifyConfig from command flags and arguments
func buildClassifyConfig(cmd *cobra.Command, args []string) app.ClassifyConfig {
	return app.ClassifyConfig{
		Source:         sourceArg(args),
		SchemePath:     stringFlag(cmd, "scheme", settings.Classify.SchemePath),
		UnknownLogPath: stringFlag(cmd, "unknown-log", settings.Classify.UnknownLogPath),
		CacheSize:      settings.Classify.CacheSize,
		OutputDir:      outputDir(cmd),
		Quiet:          quiet(cmd),
	}
}

func buildEmbeddingInput(cmd *cobra.Command, source string) app.EmbeddingInput {
	return app.EmbeddingInput{
		Source:       source,
		TextColumn:   stringFlag(cmd, "text-column", settings.Embedding.TextColumn),
		VectorColumn: stringFlag(cmd, "vector-column", ""),
	}
}

// buildSynonymsConfig constructs an app.SynonymsConfig from command flags and arguments
func buildSynonymsConfig(cmd *cobra.Command, args []string) app.SynonymsConfig {
	transitive, _ := cmd.Flags().GetBool("transitive")
	lexical, _ := cmd.Flags().GetBool("lexical")
	return app.SynonymsConfig{
		Input:      buildEmbeddingInput(cmd, sourceArg(args)),
		Threshold:  floatFlag(cmd, "threshold", settings.Embedding.Threshold),
		Transitive: transitive,
		Lexical:    lexical,
		OutputPath: outputPath(cmd, "output", "keyword_synonyms.json"),
		Quiet:      quiet(cmd),
	}
}

// buildProjectConfig constructs an app.ProjectConfig from command flags and arguments
func buildProjectConfig(cmd *cobra.Command, args []string) app.ProjectConfig {
	return app.ProjectConfig{
		Input: buildEmbeddingInput(cmd, sourceArg(args)),
		Options: embedding.ProjectOptions{
			Perplexity:   floatFlag(cmd, "perplexity", settings.Embedding.Perplexity),
			LearningRate: floatFlag(cmd, "learning-rate", settings.Embedding.LearningRate),
			Iterations:   intFlag(cmd, "iterations", settings.Embedding.Iterations),
		},
		OutputPath: outputPath(cmd, "output", "tsne_projection.csv"),
		Quiet:      quiet(cmd),
	}
}

// buildNearestConfig constructs an app.NearestConfig from command flags and arguments
func buildNearestConfig(cmd *cobra.Command, args []string) app.NearestConfig {
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	return app.NearestConfig{
		Keywords: buildEmbeddingInput(cmd, args[0]),
		Categories: app.EmbeddingInput{
			Source:     args[1],
			TextColumn: stringFlag(cmd, "category-column", "category"),
		},
		Exclude:    exclude,
		OutputPath: outputPath(cmd, "output", "classified_embedded_keywords.csv"),
	}
}

// buildMeshConfig constructs an app.MeshConfig from command flags and arguments
func buildMeshConfig(cmd *cobra.Command, args []string) (app.MeshConfig, error) {
	source := args[0]
	if source == "-" {
		return app.MeshConfig{}, fmt.Errorf("mesh needs a file or URL, stdin is not supported")
	}
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))

	delay := settings.Mesh.Delay
	if cmd.Flags().Changed("delay") {
		delay, _ = cmd.Flags().GetDuration("delay")
	}

	errorsPath := ""
	if cmd.Flags().Changed("errors") {
		errorsPath, _ = cmd.Flags().GetString("errors")
	}

	return app.MeshConfig{
		Source:          source,
		TitleColumn:     stringFlag(cmd, "title-column", settings.Mesh.TitleColumn),
		OutputPath:      outputPath(cmd, "output", base+"_mesh.csv"),
		ErrorsPath:      errorsPath,
		CheckpointEvery: intFlag(cmd, "checkpoint", settings.Mesh.CheckpointEvery),
		BaseURL:         stringFlag(cmd, "base-url", settings.Mesh.BaseURL),
		APIKey:          settings.Mesh.APIKey,
		Delay:           delay,
		Quiet:           quiet(cmd),
	}, nil
}

// buildMeshGraphConfig constructs an app.MeshGraphConfig from command flags and arguments
func buildMeshGraphConfig(cmd *cobra.Command, args []string) app.MeshGraphConfig {
	base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	return app.MeshGraphConfig{
		GraphSource:   args[0],
		TableSource:   args[1],
		TitleColumn:   stringFlag(cmd, "title-column", settings.Mesh.TitleColumn),
		OutputPath:    outputPath(cmd, "output", base+"_with_mesh.gexf"),
		UnmatchedPath: outputPath(cmd, "unmatched", "unmatched_nodes.csv"),
	}
}

// setupLogger configures the default slog logger based on debug and quiet modes
func setupLogger(debug, quiet bool) {
	level := slog.LevelWarn
	switch {
	case debug:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// printFiles reports written files on stdout unless quiet
func printFiles(cmd *cobra.Command, files []string) {
	if quiet(cmd) {
		return
	}
	for _, f := range files {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
}

// run wraps a command body with signal handling
func run(fn func(ctx context.Context, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return fn(ctx, cmd, args)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kwcanon",
	Short: "Canonical keyword resolution and weighting for bibliometric graphs",
	Long: `kwcanon merges near-duplicate author keywords of a citation graph into canonical
forms, classifies them into broad topical categories and ranks them per cluster with TF-IDF.

Inputs may be local files, http(s) URLs or "-" for standard input.

Examples:
  kwcanon weigh graph.gexf --synonyms keyword_synonyms.json --out results
  kwcanon count graph.gexf --categories-csv keyword_classification_25_categories.csv
  kwcanon classify all_canonical_keywords_processed.txt
  kwcanon synonyms keyword_embeddings.tsv --transitive
  kwcanon mesh papers.csv && kwcanon mesh-graph graph.gexf papers_mesh.csv`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		settings = cfg

		debug, _ := cmd.Flags().GetBool("debug")
		setupLogger(debug, quiet(cmd))
		return nil
	},
}

var weighCmd = &cobra.Command{
	Use:   "weigh GRAPH",
	Short: "Rank canonical keywords per cluster by mean TF-IDF",
	Args:  cobra.MaximumNArgs(1),
	RunE: run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		cfg, err := buildWeighConfig(cmd, args)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		res, err := app.RunWeigh(ctx, cfg)
		if err != nil {
			return fmt.Errorf("weigh failed: %w", err)
		}
		printFiles(cmd, res.Files)
		return nil
	}),
}

var countCmd = &cobra.Command{
	Use:   "count GRAPH",
	Short: "Count canonical keywords, categories and MeSH terms per cluster",
	Args:  cobra.MaximumNArgs(1),
	RunE: run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		cfg, err := buildCountConfig(cmd, args)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		res, err := app.RunCount(ctx, cfg)
		if err != nil {
			return fmt.Errorf("count failed: %w", err)
		}
		printFiles(cmd, res.Files)
		return nil
	}),
}

var classifyCmd = &cobra.Command{
	Use:   "classify [KEYWORDS_FILE]",
	Short: "Assign broad categories to a keyword list",
	Args:  cobra.MaximumNArgs(1),
	RunE: run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		res, err := app.RunClassify(ctx, buildClassifyConfig(cmd, args))
		if err != nil {
			return fmt.Errorf("classify failed: %w", err)
		}
		printFiles(cmd, res.Files)
		if !quiet(cmd) {
			fmt.Fprintf(cmd.OutOrStdout(), "%d keywords classified, %d matched no category\n", len(res.Rows), res.Unmatched)
		}
		return nil
	}),
}

var synonymsCmd = &cobra.Command{
	Use:   "synonyms EMBEDDINGS_TSV",
	Short: "Build a synonym dictionary from keyword embeddings",
	Args:  cobra.MaximumNArgs(1),
	RunE: run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		res, err := app.RunSynonyms(ctx, buildSynonymsConfig(cmd, args))
		if err != nil {
			return fmt.Errorf("synonyms failed: %w", err)
		}
		printFiles(cmd, res.Files)
		return nil
	}),
}

var meshCmd = &cobra.Command{
	Use:   "mesh PAPERS_CSV",
	Short: "Add MeSH descriptors to a paper table by title lookup",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		cfg, err := buildMeshConfig(cmd, args)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		res, err := app.RunMesh(ctx, cfg)
		if res != nil {
			printFiles(cmd, res.Files)
		}
		if err != nil {
			return fmt.Errorf("mesh failed: %w", err)
		}
		if !quiet(cmd) {
			fmt.Fprintf(cmd.OutOrStdout(), "%d looked up, %d found, %d already annotated\n",
				res.Stats.Processed, res.Stats.Found, res.Stats.Skipped)
		}
		return nil
	}),
}

var meshGraphCmd = &cobra.Command{
	Use:   "mesh-graph GRAPH PAPERS_CSV",
	Short: "Copy MeSH descriptors of an annotated paper table into the graph",
	Long: `mesh-graph matches graph nodes to the rows of a table written by "kwcanon mesh"
by DOI, then by exact title, then by normalized title, and stores the descriptors in
the mesh and mesh_id node attributes read by "kwcanon count". Nodes that already carry
MeSH terms are left alone.`,
	Args: cobra.ExactArgs(2),
	RunE: run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		res, err := app.RunMeshGraph(ctx, buildMeshGraphConfig(cmd, args))
		if err != nil {
			return fmt.Errorf("mesh-graph failed: %w", err)
		}
		printFiles(cmd, res.Files)
		if !quiet(cmd) {
			matched := 0
			for _, n := range res.Stats.Matched {
				matched += n
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d nodes matched, %d already annotated, %d unmatched\n",
				matched, res.Stats.Annotated, len(res.Stats.Unmatched))
		}
		return nil
	}),
}

var projectCmd = &cobra.Command{
	Use:   "project EMBEDDINGS_TSV",
	Short: "Project keyword embeddings to 2-D with t-SNE",
	Args:  cobra.MaximumNArgs(1),
	RunE: run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		res, err := app.RunProject(ctx, buildProjectConfig(cmd, args))
		if err != nil {
			return fmt.Errorf("project failed: %w", err)
		}
		printFiles(cmd, res.Files)
		return nil
	}),
}

var nearestCmd = &cobra.Command{
	Use:   "nearest KEYWORDS_TSV CATEGORIES_TSV",
	Short: "Assign each keyword the category with the most similar embedding",
	Args:  cobra.ExactArgs(2),
	RunE: run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		res, err := app.RunNearest(ctx, buildNearestConfig(cmd, args))
		if err != nil {
			return fmt.Errorf("nearest failed: %w", err)
		}
		printFiles(cmd, res.Files)
		return nil
	}),
}

func addGraphFlags(cmd *cobra.Command) {
	cmd.Flags().String("synonyms", "", "Synonym dictionary JSON (default: keyword_synonyms.json)")
	cmd.Flags().String("clusters", "", "Cluster metadata YAML (default: built-in)")
	cmd.Flags().String("sentinel", "", "Keyword value of papers without keywords (default: \"Unknown keywords\")")
	cmd.Flags().String("cluster-attribute", "", "Node attribute holding the cluster (default: detected)")
}

func addEmbeddingFlags(cmd *cobra.Command) {
	cmd.Flags().String("text-column", "", "Column holding the keyword text (default: keyword)")
	cmd.Flags().String("vector-column", "", "Column holding the vectors (default: <text-column>"+embedding.VectorSuffix+")")
	cmd.Flags().StringP("output", "O", "", "Output file (default: inside --out)")
}

func init() {
	rootCmd.PersistentFlags().StringP("out", "o", "", "Output directory (default: current directory)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress and output messages")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "Enable debug logging")
	_ = rootCmd.PersistentFlags().MarkHidden("debug")

	addGraphFlags(weighCmd)
	weighCmd.Flags().IntP("top", "n", 0, "Keywords per cluster in the combined ranking (default: 3)")
	weighCmd.Flags().String("granularity", "paper", "TF-IDF documents: paper (averaged per cluster) or cluster")
	weighCmd.Flags().Bool("all-clusters", false, "Also weigh clusters missing from the cluster metadata")

	addGraphFlags(countCmd)
	countCmd.Flags().String("categories-csv", "", "Keyword classification CSV (default: keyword_classification_25_categories.csv)")

	classifyCmd.Flags().String("scheme", "", "Category scheme YAML (default: built-in)")
	classifyCmd.Flags().String("unknown-log", "", "File collecting keywords that match no category (default: unknown_words.txt)")

	addEmbeddingFlags(synonymsCmd)
	synonymsCmd.Flags().Float64("threshold", 0, "Cosine similarity a pair must exceed (default: 0.99)")
	synonymsCmd.Flags().Bool("transitive", false, "Write the transitive closure of the similar pairs")
	synonymsCmd.Flags().Bool("lexical", false, "Also link keywords that share their word stems")

	addEmbeddingFlags(projectCmd)
	projectCmd.Flags().Float64("perplexity", 0, "t-SNE perplexity (default: 30)")
	projectCmd.Flags().Float64("learning-rate", 0, "t-SNE learning rate (default: 200)")
	projectCmd.Flags().Int("iterations", 0, "t-SNE iterations (default: 300)")

	addEmbeddingFlags(nearestCmd)
	nearestCmd.Flags().String("category-column", "category", "Column of the category table holding the names")
	nearestCmd.Flags().StringSlice("exclude", []string{"Z. Unclassified"}, "Categories that are never assigned")

	meshCmd.Flags().String("title-column", "", "Column holding paper titles (default: Label)")
	meshCmd.Flags().Duration("delay", 0, "Minimum time between PubMed requests (default: 350ms)")
	meshCmd.Flags().Int("checkpoint", 0, "Save progress every N lookups, 0 disables (default: 50)")
	meshCmd.Flags().String("errors", "", "Also write the rows without descriptors to this file")
	meshCmd.Flags().String("base-url", "", "E-utilities endpoint (default: PubMed)")
	meshCmd.Flags().StringP("output", "O", "", "Annotated table (default: <input>_mesh.csv inside --out)")

	meshGraphCmd.Flags().String("title-column", "", "Column of the paper table holding titles (default: Label)")
	meshGraphCmd.Flags().StringP("output", "O", "", "Annotated graph (default: <graph>_with_mesh.gexf inside --out)")
	meshGraphCmd.Flags().String("unmatched", "", "Nodes without a matching row (default: unmatched_nodes.csv inside --out)")

	rootCmd.AddCommand(weighCmd, countCmd, classifyCmd, synonymsCmd, meshCmd, meshGraphCmd, projectCmd, nearestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
