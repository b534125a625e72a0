package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/roffe/gobafang"
	"github.com/roffe/gobafang/pkg/bar"
	"github.com/roffe/gobafang/pkg/codec"
	"github.com/roffe/gobafang/pkg/device"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "read and print every unit on the bus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		if s.family == gobafang.FamilyUART {
			return uartInfo(ctx, s)
		}

		start := time.Now()
		ctrl := device.NewController(ctx, s.mgr, s.frames(ctx, gobafang.DriveUnit), s.opts()...)
		defer ctrl.Close()
		disp := device.NewDisplay(ctx, s.mgr, s.frames(ctx, gobafang.Display), s.opts()...)
		defer disp.Close()
		sens := device.NewSensor(ctx, s.mgr, s.frames(ctx, gobafang.TorqueSensor), s.opts()...)
		defer sens.Close()

		if err := load(ctx, "controller", ctrl, gobafang.DriveUnit); err != nil {
			return err
		}
		if err := load(ctx, "display", disp, gobafang.Display); err != nil {
			return err
		}
		if err := load(ctx, "sensor", sens, gobafang.TorqueSensor); err != nil {
			return err
		}

		printController(ctrl)
		printDisplay(disp)
		printSensor(sens)
		logger.Info("took %s", time.Since(start))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

type loader interface {
	Subscribe(buffer int) *device.Subscription
	LoadData()
}

// load runs a full read of d behind a progress bar
func load(ctx context.Context, name string, d loader, role gobafang.DeviceID) error {
	sub := d.Subscribe(64)
	defer sub.Close()
	pb := bar.New(len(codec.ReadCommands(role)), "reading "+name)
	d.LoadData()
	e, err := bar.Follow(ctx, sub, pb, device.EventReadFinish)
	fmt.Println()
	if err != nil {
		return err
	}
	if e.Failure > 0 {
		color.Yellow("%s: %d of %d reads failed", name, e.Failure, e.Success+e.Failure)
	}
	return nil
}

var heading = color.New(color.FgCyan, color.Bold).PrintlnFunc()

func field(name string, v interface{}) {
	fmt.Printf("  %-22s %v\n", name+":", v)
}

func printController(c *device.Controller) {
	heading("Controller")
	if !c.Available() {
		color.Red("  not available")
		return
	}
	field("hardware version", c.HardwareVersion())
	field("software version", c.SoftwareVersion())
	field("model number", c.ModelNumber())
	field("serial number", c.SerialNumber())
	field("manufacturer", c.Manufacturer())
	if p := c.SpeedParameters(); p != nil {
		field("speed limit", fmt.Sprintf("%.2f km/h", p.SpeedLimit))
		field("wheel diameter code", fmt.Sprintf("0x%02X", p.WheelDiameter))
		field("circumference", fmt.Sprintf("%d mm", p.Circumference))
	}
	if p := c.Parameter1(); p != nil {
		field("system voltage", fmt.Sprintf("%d V", p.SystemVoltage))
		field("current limit", fmt.Sprintf("%d A", p.CurrentLimit))
		field("battery capacity", fmt.Sprintf("%d mAh", p.BatteryCapacity))
		for i, lvl := range p.AssistLevels {
			field(fmt.Sprintf("assist %d", i+1), fmt.Sprintf("current %d%% speed %d%%", lvl.CurrentLimit, lvl.SpeedLimit))
		}
	}
	if p := c.Parameter2(); p != nil {
		for i, tp := range p.TorqueProfiles {
			field(fmt.Sprintf("torque profile %d", i), fmt.Sprintf("%+v", tp))
		}
	}
	if r := c.Realtime0(); r != nil {
		field("remaining capacity", fmt.Sprintf("%d %%", r.RemainingCapacity))
	}
	if r := c.Realtime1(); r != nil {
		field("voltage", fmt.Sprintf("%.2f V", r.Voltage))
		field("temperature", fmt.Sprintf("%d °C", r.Temperature))
	}
}

func printDisplay(d *device.Display) {
	heading("Display")
	if !d.Available() {
		color.Red("  not available")
		return
	}
	field("hardware version", d.HardwareVersion())
	field("software version", d.SoftwareVersion())
	field("model number", d.ModelNumber())
	field("serial number", d.SerialNumber())
	field("customer number", d.CustomerNumber())
	field("bootloader version", d.BootloaderVersion())
	if errs := d.Errors(); len(errs) > 0 {
		field("errors", fmt.Sprintf("% X", errs))
	}
	if v := d.Data1(); v != nil {
		field("total mileage", fmt.Sprintf("%d km", v.TotalMileage))
		field("single mileage", fmt.Sprintf("%.1f km", v.SingleMileage))
		field("max speed", fmt.Sprintf("%.1f km/h", v.MaxSpeed))
	}
	if v := d.Data2(); v != nil {
		field("average speed", fmt.Sprintf("%.1f km/h", v.AverageSpeed))
		field("service mileage", fmt.Sprintf("%.1f km", v.ServiceMileage))
	}
}

func printSensor(s *device.Sensor) {
	heading("Torque sensor")
	if !s.Available() {
		color.Red("  not available")
		return
	}
	field("hardware version", s.HardwareVersion())
	field("software version", s.SoftwareVersion())
	field("model number", s.ModelNumber())
	field("serial number", s.SerialNumber())
}
