package main

import (
	"errors"
	"fmt"

	"sensornode/app"
	"sensornode/config"
	"sensornode/core"
	"sensornode/targets/sim"
)

// simConfig maps the device configuration onto the simulated board
func simConfig(cfg *config.Config) sim.Config {
	sc := sim.DefaultConfig()
	sc.SensorAddress = core.I2CAddress(cfg.Sensor.Address)
	if cfg.Sensor.SimTempC != nil {
		sc.TemperatureC = *cfg.Sensor.SimTempC
	}
	sc.ConversionUS = cfg.Sensor.ConversionUs
	sc.Baud = uint32(cfg.Serial.Baud)
	sc.Loopback = cfg.Serial.Loopback
	sc.RealTime = cfg.Serial.RealTime
	return sc
}

// hardware exposes the board peripherals to the application
func hardware(b *sim.Board) app.Hardware {
	return app.Hardware{
		I2C:     b.I2C,
		UART:    b.UART,
		Timer:   b.Timer,
		GPIO:    b.GPIO,
		Sleeper: b,
		Wait:    b.Step,
	}
}

// newSimDevice boots a device on a fresh simulated board
func newSimDevice(cfg *config.Config, sc sim.Config) (*app.Device, *sim.Board, error) {
	board := sim.NewBoard(sc)
	dev, err := app.New(cfg, hardware(board))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build device: %w", err)
	}
	board.Connect(sim.Handlers{
		Timer: dev.Timer.HandleInterrupt,
		I2C:   dev.I2C.HandleInterrupt,
		UART:  dev.UART.HandleInterrupt,
	})
	return dev, board, nil
}

// guard runs fn and turns a firmware halt into an error
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var f *core.Fault
			if e, ok := r.(error); ok && errors.As(e, &f) {
				err = fmt.Errorf("device halted: %w", f)
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}
