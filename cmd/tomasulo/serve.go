package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/maemo32/tomasulo/internal/httpapi"
	"github.com/maemo32/tomasulo/internal/logging"
)

func newServeCmd() *cobra.Command {
	flags := &configFlags{}
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <program.asm>",
		Short: "Start the HTTP view layer, pre-loading the given program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve()
			if err != nil {
				return err
			}
			specs, err := loadProgram(args[0])
			if err != nil {
				return err
			}

			server := httpapi.NewServer(cfg)
			id, err := server.CreateSimulation(specs)
			if err != nil {
				return err
			}

			logging.Info("serving tomasulo http api", "addr", addr, "program", args[0], "simulation_id", id.String())
			return http.ListenAndServe(addr, server.Router())
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	return cmd
}
