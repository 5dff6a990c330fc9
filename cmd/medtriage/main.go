// Package main is the medtriage CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/medtriage/internal/agent"
	"github.com/hyperjump/medtriage/internal/cli"
	"github.com/hyperjump/medtriage/internal/config"
	"github.com/hyperjump/medtriage/internal/models"
	"github.com/hyperjump/medtriage/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/medtriage/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory is preferred if present; when neither exists, defaults and the environment are used.
// Returns the config and the path that was actually loaded ("" for environment only).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				path = fallback
			}
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "diagnosis", "recommendation", "history", "history-backend":
		runAgent(command)
	case "ingest":
		runIngest()
	case "diagnose":
		runDiagnose()
	case "recommend":
		runRecommend()
	case "version", "--version", "-v":
		fmt.Printf("medtriage version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runAgent(role string) {
	fs := flag.NewFlagSet(role, flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewNamedLogger(debugMode, role)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)
	if err := validateRole(role, cfg); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, err := buildAgent(ctx, role, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer a.Close()

	if err := serve(ctx, a, logger, nil); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func validateRole(role string, cfg *config.Config) error {
	switch role {
	case roleDiagnosis:
		if err := config.ValidateDiagnosis(cfg); err != nil {
			return err
		}
		for name, addr := range map[string]string{
			"AGENT_ADDRESS":                cfg.Agent.Address,
			"RECOMMENDATION_AGENT_ADDRESS": cfg.Agent.RecommendationAddress,
		} {
			if !agent.IsAddress(addr) {
				return fmt.Errorf("%s %q is not an agent address (want %s...)", name, addr, agent.AddressPrefix)
			}
		}
		return nil
	case roleRecommendation:
		return config.ValidateRecommendation(cfg)
	case roleHistory:
		return config.ValidateHistory(cfg)
	default:
		return nil
	}
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	diseases := fs.Bool("diseases", true, "load the disease dataset into the medical index")
	labels := fs.Bool("labels", true, "load the label directory into the drug-label index")
	file := fs.String("file", "", "append a single label file to the drug-label index")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	opts := ingestOptions{Diseases: *diseases, Labels: *labels, File: *file}
	if *file != "" {
		opts.Diseases, opts.Labels = false, false
	}
	if err := buildIndices(context.Background(), cfg, opts, logger, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		os.Exit(1)
	}
}

func runDiagnose() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("diagnose", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8000", "diagnosis agent URL")
	raw := fs.Bool("raw", false, "treat the arguments as free text")
	structure := fs.Bool("structure", false, "only convert the free text into a structured report")
	symptoms := fs.String("symptoms", "", "comma-separated symptoms, each name[:severity] with severity one of "+strings.Join(models.Severities, "|"))
	since := fs.String("since", "", "onset date (YYYY-MM-DD)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	timeout := fs.Duration("timeout", 2*time.Minute, "request timeout")
	fs.Usage = func() { printDiagnoseUsage(fs) }
	_ = fs.Parse(args)

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	client := cli.NewClient(*serverURL, *timeout)
	ctx := context.Background()

	switch {
	case *structure:
		out, err := client.Structure(ctx, text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Structure failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(out.Structure)
	case *raw:
		if text == "" {
			printDiagnoseUsage(fs)
			os.Exit(1)
		}
		res, err := client.DiagnoseRaw(ctx, text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Diagnosis failed: %v\n", err)
			os.Exit(1)
		}
		_ = cli.WriteDiagnosis(os.Stdout, res, format)
	default:
		report, err := buildReport(text, *symptoms, *since)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			printDiagnoseUsage(fs)
			os.Exit(1)
		}
		res, err := client.Diagnose(ctx, report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Diagnosis failed: %v\n", err)
			os.Exit(1)
		}
		_ = cli.WriteDiagnosis(os.Stdout, res, format)
	}
}

func printDiagnoseUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: medtriage diagnose [flags] [description]\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  medtriage diagnose -symptoms "fever:high,diarrhea:high" -since 2025-08-10 sick after seafood
  medtriage diagnose -raw I have had a high fever since August 10 after eating seafood
  medtriage diagnose -structure -output json high fever since yesterday
`)
}

func runRecommend() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8001", "recommendation agent URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	timeout := fs.Duration("timeout", 2*time.Minute, "request timeout")
	_ = fs.Parse(args)

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Fprintf(fs.Output(), "Usage: medtriage recommend [flags] <condition or question>\n\n")
		fs.PrintDefaults()
		os.Exit(1)
	}
	res, err := cli.NewClient(*serverURL, *timeout).Recommend(context.Background(), question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recommendation failed: %v\n", err)
		os.Exit(1)
	}
	_ = cli.WriteRecommendation(os.Stdout, res, format)
}

// argsReorder moves flags that appear after the positional text to the front so flag.Parse sees
// them; the flag package stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildReport assembles a SymptomReport from CLI flags. symptoms is "name[:severity],...".
func buildReport(description, symptoms, since string) (*models.SymptomReport, error) {
	report := &models.SymptomReport{Description: description}
	for _, item := range utils.SplitList(symptoms) {
		name, severity, _ := strings.Cut(item, ":")
		report.Symptoms = append(report.Symptoms, models.Symptom{
			Name:     strings.TrimSpace(name),
			Severity: strings.TrimSpace(severity),
		})
	}
	if since == "" {
		return nil, fmt.Errorf("-since is required")
	}
	d, err := models.ParseDate(since)
	if err != nil {
		return nil, fmt.Errorf("invalid -since: %w", err)
	}
	report.Since = d
	if err := report.Validate(); err != nil {
		return nil, err
	}
	return report, nil
}

func printUsage() {
	fmt.Println(`medtriage - symptom triage agents

Usage:
  medtriage <command> [flags]

Agents:
  diagnosis        Run the diagnosis agent (REST + /submit)
  recommendation   Run the medicine recommendation agent
  history          Run the history agent
  history-backend  Run the reference history backend (SQLite)

Commands:
  ingest           Build the disease and drug-label indices
  diagnose         Ask a running diagnosis agent
  recommend        Ask a running recommendation agent
  version          Print version
  help             Show this help

Run 'medtriage <command> -h' for command flags.`)
}
