package commands

import (
	"github.com/spf13/cobra"

	"github.com/hanloveland/ramulator2-sub000/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate configuration without running",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		org, err := cfg.ResolveOrg()
		if err != nil {
			return err
		}
		t, err := cfg.ResolveTiming()
		if err != nil {
			return err
		}
		cmd.Printf("configuration OK: org=%s timing=%s channels=%d pseudochannels=%d\n",
			org.Name, t.Name, org.Channels, org.PseudoChannels)
		return nil
	},
}
