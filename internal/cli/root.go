package cli

import (
	"flag"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/bryanwahyu/whatif/internal/config"
)

func Execute() error {
	return NewRoot().Execute()
}

func NewRoot() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "whatif",
		Short:         "What-if risk analysis for UI components",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	root.PersistentFlags().StringVar(&configPath, "config", path, "path to config.yaml")

	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	root.PersistentFlags().AddGoFlagSet(fs)

	load := func() (*config.Config, error) { return config.Load(configPath) }
	root.AddCommand(
		ServeCmd(load),
		AnalyzeCmd(load),
		MigrateCmd(load),
	)
	return root
}
