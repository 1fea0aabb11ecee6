package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/entitime/pkg/extraction"
	"github.com/otherjamesbrown/entitime/pkg/logging"
	"github.com/otherjamesbrown/entitime/pkg/timeline"
)

// Extract command flags.
var (
	extractEntityTypes []string
)

// NewExtractCommand creates the 'extract' command.
func NewExtractCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <transcript> <output-dir>",
		Short: "Extract named entities from a transcript into a timeline",
		Long: `Extract named entities from a transcript using the Private AI entity
detection API and write two JSON files into the output directory:

  entities.json   Entity dictionary keyed by the API's entity marker, with
                  every normalized position (0-100) and context sentence.
  timeline.json   Position-sorted timeline of entity mentions, the input
                  format expected by 'entitime analyze'.

The API key comes from 'entitime auth set-key' or the ENTITIME_API_KEY
environment variable.

Examples:
  # Extract the default types (NAME, ORGANIZATION)
  entitime extract ./transcript.txt ./out

  # Extract a custom type set
  entitime extract ./transcript.txt ./out --entity-types NAME,ORGANIZATION,LOCATION`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, deps, args[0], args[1])
		},
	}

	cmd.Flags().StringSliceVar(&extractEntityTypes, "entity-types", nil, "Entity types to extract (default from config: NAME,ORGANIZATION)")

	return cmd
}

// runExtract executes the extraction pipeline.
func runExtract(cmd *cobra.Command, deps *Deps, transcriptPath, outputDir string) error {
	cfg, types, err := loadConfigAndTypes(deps, extractEntityTypes)
	if err != nil {
		return err
	}

	logger := deps.Logger()

	transcript, err := timeline.LoadTranscript(transcriptPath)
	if err != nil {
		return err
	}

	recognizer, err := deps.NewRecognizer(cfg)
	if err != nil {
		return err
	}

	extractor := extraction.New(recognizer, logger)

	dict, err := extractor.Extract(commandContext(cmd.Context()), transcript, types)
	if err != nil {
		return err
	}

	tl := extractor.Timeline(dict)

	// All computation succeeded; only now touch the filesystem.
	if err := ensureOutputDir(outputDir); err != nil {
		return err
	}

	entitiesPath := filepath.Join(outputDir, "entities.json")
	if err := writeJSONFile(entitiesPath, dict); err != nil {
		return err
	}
	logger.Info("entities written", logging.F("path", entitiesPath))

	timelinePath := filepath.Join(outputDir, "timeline.json")
	if err := writeJSONFile(timelinePath, tl); err != nil {
		return err
	}
	logger.Info("timeline written", logging.F("path", timelinePath))

	fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d entities (%d mentions)\n", len(dict), len(tl))
	return nil
}
