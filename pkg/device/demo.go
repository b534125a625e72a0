package device

import (
	"github.com/roffe/gobafang/pkg/codec"
	"github.com/roffe/gobafang/pkg/uart"
)

// Canned state loaded by orchestrators in demo mode

func controllerDemo() []codec.Fragment {
	p1 := &codec.ControllerParameter1{
		SystemVoltage:         48,
		CurrentLimit:          18,
		OverVoltage:           60,
		UnderVoltageUnderLoad: 41,
		UnderVoltage:          42,
		BatteryCapacity:       14000,
		MaxCurrentOnLowCharge: 8,
		FullCapacityRange:     80,
		PedalSensorType:       0,
		PedalSensorSignals:    24,
		SpeedSensorChannels:   1,
		MotorType:             0,
		MotorPolePairs:        8,
		SpeedmeterMagnets:     1,
		TemperatureSensorType: 1,
		DecelerationRatio:     36.6,
		MotorMaxRotorRPM:      4300,
		ThrottleStartVoltage:  1.1,
		ThrottleMaxVoltage:    3.5,
		StartCurrent:          10,
		CurrentLoadingTime:    0.5,
		CurrentSheddingTime:   0.3,
		LampsAlwaysOn:         false,
	}
	for i := range p1.AssistLevels {
		p1.AssistLevels[i] = codec.AssistLevel{
			CurrentLimit: uint8(20 + i*10),
			SpeedLimit:   100,
		}
	}
	p2 := &codec.ControllerParameter2{}
	for i := range p2.TorqueProfiles {
		p2.TorqueProfiles[i] = codec.TorqueProfile{
			StartTorque:      10,
			MaxTorque:        80,
			ReturnTorque:     5,
			MinCurrent:       10,
			MaxCurrent:       uint8(50 + i*10),
			StartPulse:       2,
			CurrentDecayTime: 250,
			StopDelay:        100,
		}
	}
	// canned values are in range, encoding over zeros cannot fail
	p1Raw, _ := codec.EncodeParameter1(p1, make([]byte, codec.Parameter1Size))
	p2Raw, _ := codec.EncodeParameter2(p2, make([]byte, codec.Parameter2Size))

	return []codec.Fragment{
		{Field: codec.FieldHardwareVersion, Value: "CR X10V.350.FC 1.0"},
		{Field: codec.FieldSoftwareVersion, Value: "CR X10V.350.FC 2.1"},
		{Field: codec.FieldModelNumber, Value: "M500"},
		{Field: codec.FieldSerialNumber, Value: "DEMO0000000001"},
		{Field: codec.FieldManufacturer, Value: "BAFANG"},
		{Field: codec.FieldParameter1, Value: p1, Raw: p1Raw},
		{Field: codec.FieldParameter2, Value: p2, Raw: p2Raw},
		{Field: codec.FieldRealtime0, Value: &codec.ControllerRealtime0{
			RemainingCapacity: 87,
			SingleTrip:        12.34,
			Cadence:           72,
			Torque:            840,
			RemainingDistance: 45.6,
		}},
		{Field: codec.FieldRealtime1, Value: &codec.ControllerRealtime1{
			Speed:               24.5,
			Current:             6.2,
			Voltage:             51.3,
			Temperature:         31,
			MotorTemperature:    42,
			HasMotorTemperature: true,
		}},
		{Field: codec.FieldSpeedParameters, Value: &codec.SpeedParameters{
			SpeedLimit:    25,
			WheelDiameter: 0x1C,
			Circumference: 2200,
		}},
	}
}

func displayDemo() []codec.Fragment {
	return []codec.Fragment{
		{Field: codec.FieldHardwareVersion, Value: "DP C18.UART 1.0"},
		{Field: codec.FieldSoftwareVersion, Value: "DP C18.UART 2.3"},
		{Field: codec.FieldModelNumber, Value: "DP C18"},
		{Field: codec.FieldSerialNumber, Value: "DEMO0000000002"},
		{Field: codec.FieldCustomerNumber, Value: "0000"},
		{Field: codec.FieldBootloaderVersion, Value: "BL 1.0"},
		{Field: codec.FieldDisplayErrors, Value: []uint8{}},
		{Field: codec.FieldDisplayState, Value: &codec.DisplayState{
			AssistLevels:       5,
			RideMode:           codec.RideModeEco,
			CurrentAssistLevel: 2,
			Light:              true,
		}},
		{Field: codec.FieldDisplayData1, Value: &codec.DisplayData1{
			TotalMileage:  1234,
			SingleMileage: 12.3,
			MaxSpeed:      32.1,
		}},
		{Field: codec.FieldDisplayData2, Value: &codec.DisplayData2{
			AverageSpeed:   18.7,
			ServiceMileage: 766,
		}},
	}
}

func sensorDemo() []codec.Fragment {
	return []codec.Fragment{
		{Field: codec.FieldHardwareVersion, Value: "TS 1.0"},
		{Field: codec.FieldSoftwareVersion, Value: "TS 1.2"},
		{Field: codec.FieldModelNumber, Value: "TS01"},
		{Field: codec.FieldSerialNumber, Value: "DEMO0000000003"},
		{Field: codec.FieldSensorRealtime, Value: &codec.SensorRealtime{
			Torque:  750,
			Cadence: 70,
		}},
	}
}

func uartDemo() []codec.Fragment {
	basic := &uart.BasicParameters{
		LowBatteryProtection: 41,
		CurrentLimit:         25,
		WheelDiameterCode:    0x37,
		SpeedmeterType:       uart.SpeedmeterExternal,
		SpeedmeterSignals:    1,
	}
	for i := range basic.AssistLevels {
		basic.AssistLevels[i] = uart.AssistLevel{
			CurrentLimit: uint8(i * 11),
			SpeedLimit:   100,
		}
	}
	return []codec.Fragment{
		{Field: FieldInfo, Value: &uart.Info{
			Manufacturer:    "HZXT",
			Model:           "SZ",
			HardwareVersion: "1.1",
			FirmwareVersion: "1.0.1.3",
			Voltage:         "48V",
			MaxCurrent:      25,
		}},
		{Field: FieldBasic, Value: basic},
		{Field: FieldPedal, Value: &uart.PedalParameters{
			PedalType:           uart.PedalBBSensor32,
			DesignatedAssist:    uart.SpeedLimitByDisplay,
			SpeedLimit:          uart.SpeedLimitByDisplay,
			StartCurrent:        10,
			SlowStartMode:       3,
			SignalsBeforeAssist: 4,
			WorkMode:            10,
			TimeOfStop:          250,
			CurrentDecay:        8,
			StopDecay:           0,
			KeepCurrent:         20,
		}},
		{Field: FieldThrottle, Value: &uart.ThrottleParameters{
			StartVoltage:     1.1,
			EndVoltage:       4.2,
			Mode:             uart.ThrottleCurrent,
			DesignatedAssist: 9,
			SpeedLimit:       uart.SpeedLimitByDisplay,
			StartCurrent:     10,
		}},
	}
}
