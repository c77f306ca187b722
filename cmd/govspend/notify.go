package main

import (
	"errors"

	"github.com/spf13/cobra"

	"govspend/internal/amqp"
	"govspend/internal/cli"
)

func notifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Publish a dataset-updated message so running servers drop their caches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli.LoadEnvFile()
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			if !cfg.AMQPEnabled() {
				return errors.New("AMQP_URL is not set")
			}
			logger := cli.SetupLogger(cfg.LogLevel)

			source, _ := cmd.Flags().GetString("source")
			if source == "" {
				source = cfg.DataBackend
			}

			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.PublishDatasetUpdated(cmd.Context(), source)
		},
	}
	cmd.Flags().StringP("source", "s", "", "Source named in the message (defaults to DATA_BACKEND)")
	return cmd
}
