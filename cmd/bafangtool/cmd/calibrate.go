package cmd

import (
	"github.com/fatih/color"
	"github.com/roffe/gobafang"
	"github.com/roffe/gobafang/pkg/device"
	"github.com/spf13/cobra"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "calibrate the motor position sensor, the motor will turn",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.requireFamily(gobafang.FamilyCAN); err != nil {
			return err
		}
		color.Yellow("lift the rear wheel off the ground before continuing")
		if !confirm(cmd, "calibrate the position sensor") {
			return nil
		}
		c := device.NewController(ctx, s.mgr, nil, s.opts()...)
		defer c.Close()
		if err := c.CalibratePositionSensor(ctx); err != nil {
			return err
		}
		color.Green("position sensor calibration started")
		return nil
	},
}

func init() {
	calibrateCmd.Flags().BoolP(flagYes, "y", false, "do not ask for confirmation")
	rootCmd.AddCommand(calibrateCmd)
}
