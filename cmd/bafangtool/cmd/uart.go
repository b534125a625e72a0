package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/roffe/gobafang"
	"github.com/roffe/gobafang/pkg/bar"
	"github.com/roffe/gobafang/pkg/device"
	"github.com/roffe/gobafang/pkg/uart"
	"github.com/spf13/cobra"
)

var uartCmd = &cobra.Command{
	Use:   "uart",
	Short: "BBS01/BBS02/BBSHD motor commands, use with the BBS adapter",
}

var uartInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "read and print the motor blocks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		return uartInfo(ctx, s)
	},
}

const (
	flagCurrentLimit   = "current-limit"
	flagLowBattery     = "low-battery"
	flagPedalSpeed     = "pedal-speed-limit"
	flagPedalStart     = "pedal-start-current"
	flagThrottleStart  = "throttle-start"
	flagThrottleEnd    = "throttle-end"
	flagThrottleMode   = "throttle-mode"
	flagThrottleAssist = "throttle-assist"
)

var uartWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "change motor parameters, unchanged values are written back as read",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.requireFamily(gobafang.FamilyUART); err != nil {
			return err
		}
		m := device.NewUartMotor(ctx, s.mgr, nil, s.opts()...)
		defer m.Close()
		if err := loadUart(ctx, m); err != nil {
			return err
		}

		info, basic, pedal, throttle := m.Info(), m.BasicParameters(), m.PedalParameters(), m.ThrottleParameters()
		if info == nil || basic == nil || pedal == nil || throttle == nil {
			return errors.New("could not read every block, refusing to write")
		}
		pf := cmd.Flags()
		if pf.Changed(flagCurrentLimit) {
			basic.CurrentLimit, _ = pf.GetUint8(flagCurrentLimit)
		}
		if pf.Changed(flagLowBattery) {
			basic.LowBatteryProtection, _ = pf.GetUint8(flagLowBattery)
		}
		if pf.Changed(flagPedalSpeed) {
			pedal.SpeedLimit, _ = pf.GetUint8(flagPedalSpeed)
		}
		if pf.Changed(flagPedalStart) {
			pedal.StartCurrent, _ = pf.GetUint8(flagPedalStart)
		}
		if pf.Changed(flagThrottleStart) {
			throttle.StartVoltage, _ = pf.GetFloat64(flagThrottleStart)
		}
		if pf.Changed(flagThrottleEnd) {
			throttle.EndVoltage, _ = pf.GetFloat64(flagThrottleEnd)
		}
		if pf.Changed(flagThrottleMode) {
			mode, _ := pf.GetString(flagThrottleMode)
			switch mode {
			case "speed":
				throttle.Mode = uart.ThrottleSpeed
			case "current":
				throttle.Mode = uart.ThrottleCurrent
			default:
				return fmt.Errorf("unknown throttle mode %q", mode)
			}
		}
		if pf.Changed(flagThrottleAssist) {
			throttle.DesignatedAssist, _ = pf.GetUint8(flagThrottleAssist)
		}

		if err := errors.Join(
			uart.ValidateBasic(basic, info.MaxCurrent),
			uart.ValidatePedal(pedal),
			uart.ValidateThrottle(throttle),
		); err != nil {
			return err
		}
		printUart(info, basic, pedal, throttle)
		if !confirm(cmd, "write these parameters to the motor") {
			return nil
		}

		m.SetBasicParameters(basic)
		m.SetPedalParameters(pedal)
		m.SetThrottleParameters(throttle)
		return save(ctx, "motor", m, 3)
	},
}

func init() {
	f := uartWriteCmd.Flags()
	f.Uint8(flagCurrentLimit, 0, "battery current limit in A")
	f.Uint8(flagLowBattery, 0, "low battery protection in V")
	f.Uint8(flagPedalSpeed, 0, "pedal assist speed limit in km/h, 255 = by display")
	f.Uint8(flagPedalStart, 0, "pedal assist start current in %")
	f.Float64(flagThrottleStart, 0, "throttle start voltage")
	f.Float64(flagThrottleEnd, 0, "throttle end voltage")
	f.String(flagThrottleMode, "", "speed or current")
	f.Uint8(flagThrottleAssist, 0, "throttle designated assist level, 255 = by display")
	f.BoolP(flagYes, "y", false, "do not ask for confirmation")

	uartCmd.AddCommand(uartInfoCmd, uartWriteCmd)
	rootCmd.AddCommand(uartCmd)
}

func loadUart(ctx context.Context, m *device.UartMotor) error {
	sub := m.Subscribe(16)
	defer sub.Close()
	pb := bar.New(4, "reading motor")
	m.LoadData()
	e, err := bar.Follow(ctx, sub, pb, device.EventReadFinish)
	fmt.Println()
	if err != nil {
		return err
	}
	if e.Failure > 0 {
		color.Yellow("motor: %d of %d reads failed", e.Failure, e.Success+e.Failure)
	}
	return nil
}

func uartInfo(ctx context.Context, s *session) error {
	if err := s.requireFamily(gobafang.FamilyUART); err != nil {
		return err
	}
	m := device.NewUartMotor(ctx, s.mgr, nil, s.opts()...)
	defer m.Close()
	if err := loadUart(ctx, m); err != nil {
		return err
	}
	printUart(m.Info(), m.BasicParameters(), m.PedalParameters(), m.ThrottleParameters())
	return nil
}

func byDisplay(v uint8, unit string) string {
	if v == uart.SpeedLimitByDisplay {
		return "by display"
	}
	return fmt.Sprintf("%d%s", v, unit)
}

func printUart(info *uart.Info, basic *uart.BasicParameters, pedal *uart.PedalParameters, throttle *uart.ThrottleParameters) {
	if info != nil {
		heading("Motor")
		field("manufacturer", info.Manufacturer)
		field("model", info.Model)
		field("hardware version", info.HardwareVersion)
		field("firmware version", info.FirmwareVersion)
		field("voltage", info.Voltage)
		field("max current", fmt.Sprintf("%d A", info.MaxCurrent))
	}
	if basic != nil {
		heading("Basic")
		field("low battery", fmt.Sprintf("%d V", basic.LowBatteryProtection))
		field("current limit", fmt.Sprintf("%d A", basic.CurrentLimit))
		for i, lvl := range basic.AssistLevels {
			field(fmt.Sprintf("assist %d", i), fmt.Sprintf("current %d%% speed %d%%", lvl.CurrentLimit, lvl.SpeedLimit))
		}
		field("wheel diameter code", fmt.Sprintf("0x%02X", basic.WheelDiameterCode))
		field("speedmeter", fmt.Sprintf("%s, %d signals", basic.SpeedmeterType, basic.SpeedmeterSignals))
	}
	if pedal != nil {
		heading("Pedal assist")
		field("sensor", pedal.PedalType)
		field("designated assist", byDisplay(pedal.DesignatedAssist, ""))
		field("speed limit", byDisplay(pedal.SpeedLimit, " km/h"))
		field("start current", fmt.Sprintf("%d %%", pedal.StartCurrent))
		field("slow start mode", pedal.SlowStartMode)
		field("signals before assist", pedal.SignalsBeforeAssist)
		field("time of stop", fmt.Sprintf("%d ms", pedal.TimeOfStop))
		field("stop decay", fmt.Sprintf("%d ms", pedal.StopDecay))
		field("keep current", fmt.Sprintf("%d %%", pedal.KeepCurrent))
	}
	if throttle != nil {
		heading("Throttle")
		field("start voltage", fmt.Sprintf("%.1f V", throttle.StartVoltage))
		field("end voltage", fmt.Sprintf("%.1f V", throttle.EndVoltage))
		field("mode", throttle.Mode)
		field("designated assist", byDisplay(throttle.DesignatedAssist, ""))
		field("speed limit", byDisplay(throttle.SpeedLimit, " km/h"))
		field("start current", fmt.Sprintf("%d %%", throttle.StartCurrent))
	}
}
