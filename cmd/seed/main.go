package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"feedbacksurvey/internal/app"
	"feedbacksurvey/internal/cli"
	"feedbacksurvey/internal/model"
	"feedbacksurvey/internal/repository"
	"feedbacksurvey/internal/survey"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		opts      cli.Options
		name      string
		file      string
		printYAML bool
	)

	cmd := &cobra.Command{
		Use:   "survey-seed",
		Short: "Store a questionnaire in MongoDB",
		Long: `Writes the built-in questionnaire (or the one in --file) to the
questionnaires collection under --name. With --yaml the questionnaire is
printed instead, which is a handy starting point for a questions file.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := survey.DefaultQuestionnaire()
			if file != "" {
				var err error
				if q, err = survey.LoadQuestionnaire(file); err != nil {
					return err
				}
			}

			if printYAML {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(q)
			}

			cfg, log, err := opts.Load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if name == "" {
				name = cfg.Survey.Questionnaire
			}
			if cfg.Mongo.URI == "" {
				return errors.New("MONGO_URI or mongo.uri is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			client, err := app.ConnectMongo(ctx, cfg.Mongo.URI)
			if err != nil {
				return err
			}
			defer client.Disconnect(context.Background())

			repo := repository.NewQuestionnaireRepo(client.Database(cfg.Mongo.Database))
			if err := repo.Save(ctx, &model.Questionnaire{Name: name, Questions: q.Questions()}); err != nil {
				return err
			}

			log.Info("questionnaire seeded",
				zap.String("name", name),
				zap.String("database", cfg.Mongo.Database),
				zap.Int("questions", q.Len()),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "stored questionnaire %q with %d questions\n", name, q.Len())
			return nil
		},
	}
	opts.Bind(cmd)
	cmd.Flags().StringVarP(&name, "name", "n", "", "questionnaire name (defaults to survey.questionnaire)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML questionnaire to store instead of the built-in one")
	cmd.Flags().BoolVar(&printYAML, "yaml", false, "print the questionnaire as YAML and exit")
	return cmd
}
