package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/roffe/gobafang"
	"github.com/roffe/gobafang/pkg/bar"
	"github.com/roffe/gobafang/pkg/device"
	"github.com/spf13/cobra"
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "change parameters of CAN units",
}

const (
	flagSpeedLimit    = "speed-limit"
	flagCircumference = "circumference"
	flagWheel         = "wheel"
	flagManufacturer  = "manufacturer"
	flagTotal         = "total"
	flagSingle        = "single"
)

var writeControllerCmd = &cobra.Command{
	Use:   "controller",
	Short: "change speed parameters or the manufacturer string, parameter blocks are written back as read",
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
		c := device.NewController(ctx, s.mgr, nil, s.opts()...)
		defer c.Close()
		if err := load(ctx, "controller", c, gobafang.DriveUnit); err != nil {
			return err
		}

		pf := cmd.Flags()
		speed := c.SpeedParameters()
		if speed == nil {
			return errors.New("could not read the speed parameters, refusing to write")
		}
		if pf.Changed(flagSpeedLimit) {
			speed.SpeedLimit, _ = pf.GetFloat64(flagSpeedLimit)
		}
		if pf.Changed(flagCircumference) {
			speed.Circumference, _ = pf.GetUint16(flagCircumference)
		}
		if pf.Changed(flagWheel) {
			speed.WheelDiameter, _ = pf.GetUint16(flagWheel)
		}
		c.SetSpeedParameters(speed)
		if pf.Changed(flagManufacturer) {
			m, _ := pf.GetString(flagManufacturer)
			c.SetManufacturer(m)
		}

		fmt.Printf("speed limit %.2f km/h, wheel 0x%02X, circumference %d mm, manufacturer %q\n",
			speed.SpeedLimit, speed.WheelDiameter, speed.Circumference, c.Manufacturer())
		if !confirm(cmd, "write to the controller") {
			return nil
		}
		return save(ctx, "controller", c, 4)
	},
}

var writeDisplayCmd = &cobra.Command{
	Use:   "display",
	Short: "set the display mileage counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pf := cmd.Flags()
		if !pf.Changed(flagTotal) && !pf.Changed(flagSingle) {
			return fmt.Errorf("nothing to write, use --%s or --%s", flagTotal, flagSingle)
		}
		ctx := cmd.Context()
		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.requireFamily(gobafang.FamilyCAN); err != nil {
			return err
		}
		d := device.NewDisplay(ctx, s.mgr, nil, s.opts()...)
		defer d.Close()

		n := 0
		if pf.Changed(flagTotal) {
			v, _ := pf.GetUint32(flagTotal)
			d.SetTotalMileage(v)
			n++
		}
		if pf.Changed(flagSingle) {
			v, _ := pf.GetFloat64(flagSingle)
			d.SetSingleMileage(v)
			n++
		}
		if !confirm(cmd, "write the mileage to the display") {
			return nil
		}
		return save(ctx, "display", d, n)
	},
}

var writeTimeCmd = &cobra.Command{
	Use:   "time",
	Short: "set the display clock to the local time",
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
		d := device.NewDisplay(ctx, s.mgr, nil, s.opts()...)
		defer d.Close()
		now := time.Now()
		if err := d.SetTime(ctx, now.Hour(), now.Minute(), now.Second()); err != nil {
			return err
		}
		color.Green("display clock set to %s", now.Format("15:04:05"))
		return nil
	},
}

var writeServiceCmd = &cobra.Command{
	Use:   "clean-service",
	Short: "reset the display service mileage",
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
		if !confirm(cmd, "reset the service mileage") {
			return nil
		}
		d := device.NewDisplay(ctx, s.mgr, nil, s.opts()...)
		defer d.Close()
		if err := d.CleanServiceMileage(ctx); err != nil {
			return err
		}
		color.Green("service mileage reset")
		return nil
	},
}

func init() {
	cf := writeControllerCmd.Flags()
	cf.Float64(flagSpeedLimit, 0, "speed limit in km/h")
	cf.Uint16(flagCircumference, 0, "wheel circumference in mm")
	cf.Uint16(flagWheel, 0, "wheel diameter code")
	cf.String(flagManufacturer, "", "manufacturer string")

	df := writeDisplayCmd.Flags()
	df.Uint32(flagTotal, 0, "total mileage in km")
	df.Float64(flagSingle, 0, "trip mileage in km")

	for _, c := range []*cobra.Command{writeControllerCmd, writeDisplayCmd, writeServiceCmd} {
		c.Flags().BoolP(flagYes, "y", false, "do not ask for confirmation")
	}
	writeCmd.AddCommand(writeControllerCmd, writeDisplayCmd, writeTimeCmd, writeServiceCmd)
	rootCmd.AddCommand(writeCmd)
}

type saver interface {
	Subscribe(buffer int) *device.Subscription
	SaveData()
}

// save writes every set parameter group of d behind a progress bar
func save(ctx context.Context, name string, d saver, total int) error {
	sub := d.Subscribe(16)
	defer sub.Close()
	pb := bar.New(total, "writing "+name)
	d.SaveData()
	e, err := bar.Follow(ctx, sub, pb, device.EventWriteFinish)
	fmt.Println()
	if err != nil {
		return err
	}
	if e.Failure > 0 {
		return fmt.Errorf("%s: %d of %d writes failed", name, e.Failure, e.Success+e.Failure)
	}
	color.Green("%s: %d writes done", name, e.Success)
	return nil
}

func confirm(cmd *cobra.Command, what string) bool {
	if yes, _ := cmd.Flags().GetBool(flagYes); yes || cfg.Demo {
		return true
	}
	prompt := promptui.Select{
		Label:    what + "? [Yes/No]",
		HideHelp: true,
		Items:    []string{"Yes", "No"},
	}
	_, result, err := prompt.Run()
	if err != nil {
		logger.Warn("prompt failed: %v", err)
		return false
	}
	return result == "Yes"
}
