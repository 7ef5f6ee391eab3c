package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"survey-builder/internal/app"
	"survey-builder/internal/config"
	"survey-builder/internal/domain"
	"survey-builder/internal/generation"
	"survey-builder/internal/importer"
)

// NewGenerateCmd asks a running service for a survey and prints the draft
// questions it maps to.
func NewGenerateCmd(configPath *string) *cobra.Command {
	var (
		apiBase      string
		numQuestions int
		language     string
	)
	cmd := &cobra.Command{
		Use:   "generate [brief]",
		Short: "Generate a survey draft from a short brief",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if apiBase == "" {
				apiBase = cfg.Client.APIBase
			}
			if apiBase == "" {
				apiBase = "http://localhost:" + resolvePort(port, cfg.Server.Port)
			}
			if numQuestions == 0 {
				numQuestions = cfg.Client.NumQuestions
			}
			if numQuestions == 0 {
				numQuestions = app.DefaultNumQuestions
			}
			if language == "" {
				language = cfg.Client.Language
			}
			if language == "" {
				language = app.DefaultLanguage
			}

			brief := strings.TrimSpace(strings.Join(args, " "))
			if brief == "" {
				return domain.ErrBriefRequired
			}

			opts := []generation.Option{
				generation.WithLogger(logger),
				generation.WithTimeout(config.TTLDuration(cfg.Client.Timeout, 30*time.Second)),
			}
			if len(cfg.Client.Prefixes) > 0 {
				opts = append(opts, generation.WithPrefixes(cfg.Client.Prefixes...))
			}
			survey, err := generation.NewClient(apiBase, opts...).Generate(cmd.Context(), brief, numQuestions, language)
			if err != nil {
				if generation.IsRequestError(err) {
					return fmt.Errorf("generation service refused the request: %w", err)
				}
				return err
			}

			out := struct {
				SurveyID  string `yaml:"survey_id"`
				Title     string `yaml:"title"`
				Questions any    `yaml:"questions"`
			}{
				SurveyID:  survey.ID,
				Title:     survey.Title,
				Questions: importer.MapExternalSurvey(survey),
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&apiBase, "api-base", "", "base URL of the generation service")
	cmd.Flags().IntVarP(&numQuestions, "num", "n", 0, "number of questions to request")
	cmd.Flags().StringVar(&language, "lang", "", "survey language")
	return cmd
}
