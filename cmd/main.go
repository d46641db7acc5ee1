package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mindwell-ai/mindwell/cmd/service"
	_ "github.com/mindwell-ai/mindwell/pkg/plugins/selfhost"
)

func main() {
	root := &cobra.Command{
		Use:   "mindwell",
		Short: "mindwell chat service",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("empty command")
		},
	}

	root.AddCommand(service.NewCommand(), service.NewMigrateCommand(), service.NewTokenCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
