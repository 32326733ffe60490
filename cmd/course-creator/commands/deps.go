package commands

import (
	"fmt"
	"os"

	"github.com/spherical-ai/course-creator/internal/config"
	"github.com/spherical-ai/course-creator/internal/domain"
	"github.com/spherical-ai/course-creator/internal/export"
	"github.com/spherical-ai/course-creator/internal/llm"
	"github.com/spherical-ai/course-creator/internal/observability"
	"github.com/spherical-ai/course-creator/internal/pipeline"
)

// loadConfig reads configuration from --config or $CONFIG_PATH.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger writes to stderr so logs never mix with generated text. Without
// --verbose only warnings and errors are shown.
func newLogger(cfg *config.Config) *observability.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      "console",
		Output:      os.Stderr,
		ServiceName: cfg.Observability.ServiceName,
	})
}

// newController wires the generation client into a pipeline controller.
func newController(cfg *config.Config, logger *observability.Logger, opts ...pipeline.Option) (*pipeline.Controller, *llm.Client, error) {
	if err := cfg.RequireCredential(); err != nil {
		return nil, nil, err
	}

	defaults := llm.DefaultRetryConfig()
	client, err := llm.NewClient(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLM.Timeout,
		Stream:  cfg.LLM.Stream,
		Retry: &llm.RetryConfig{
			MaxRetries:     cfg.LLM.MaxRetries,
			InitialBackoff: defaults.InitialBackoff,
			MaxBackoff:     defaults.MaxBackoff,
		},
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	exporter := export.NewPDFExporter(export.LayoutFromConfig(cfg.Export))
	opts = append([]pipeline.Option{pipeline.WithExportCheck(exporter)}, opts...)
	return pipeline.NewController(client, logger, opts...), client, nil
}

// writeDocument renders text to a PDF at path and returns the page count
// read back from the written bytes.
func writeDocument(cfg *config.Config, text, path string) (int, error) {
	exporter := export.NewPDFExporter(export.LayoutFromConfig(cfg.Export))
	data, err := exporter.Export(text)
	if err != nil {
		return 0, err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, domain.IOError(fmt.Sprintf("write %s", path), err)
	}

	summary, err := export.Inspect(data)
	if err != nil {
		return 0, err
	}
	return summary.Pages, nil
}

// stepLabel names a generation step for progress output.
func stepLabel(step domain.Step) string {
	switch step {
	case domain.StepExpand:
		return "Expanding course idea"
	case domain.StepStructure:
		return "Structuring outline"
	case domain.StepElaborate:
		return "Writing full course"
	default:
		return string(step)
	}
}
