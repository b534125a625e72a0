package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/roffe/gobafang"
	"github.com/roffe/gobafang/pkg/device"
	"github.com/roffe/gobafang/pkg/request"
	"go.bug.st/serial"
)

// session is one connection to the bus, or none in demo mode
type session struct {
	family gobafang.Family
	client *gobafang.Client
	mgr    *request.Manager
	cancel context.CancelFunc
}

func connect(ctx context.Context) (*session, error) {
	info, found := adapterInfo(cfg.Adapter.Name)
	if !found {
		return nil, fmt.Errorf("unknown adapter %q, see the adapters command", cfg.Adapter.Name)
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &session{family: info.Family, cancel: cancel}
	if cfg.Demo {
		return s, nil
	}
	if info.RequiresSerialPort && cfg.Adapter.Port == "*" {
		cancel()
		if err := printPorts(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("no port selected")
	}

	adapter, err := gobafang.NewAdapter(cfg.Adapter.Name, cfg.AdapterSettings(logger))
	if err != nil {
		cancel()
		return nil, err
	}
	client, err := gobafang.New(ctx, adapter, gobafang.WithLogger(logger))
	if err != nil {
		cancel()
		return nil, err
	}
	s.client = client
	s.mgr = request.New(ctx, client,
		request.WithTimeout(cfg.RequestTimeout()),
		request.WithRetries(cfg.Request.Retries),
		request.WithLogger(logger),
	)
	s.mgr.Pump(client.Subscribe(ctx).Chan())
	go s.events(ctx)
	return s, nil
}

func (s *session) events(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-s.client.Event():
			logger.Info("%s", e)
		}
	}
}

func (s *session) Close() {
	s.cancel()
	if s.client != nil {
		logger.Debug("%s", s.client.Stats())
		if err := s.client.Close(); err != nil {
			logger.Warn("close: %v", err)
		}
		// let the adapter put the port back in a sane state
		time.Sleep(50 * time.Millisecond)
	}
}

// frames returns the telemetry feed for one unit, nil in demo mode
func (s *session) frames(ctx context.Context, source gobafang.DeviceID) <-chan *gobafang.Frame {
	if s.client == nil {
		return nil
	}
	return s.client.Subscribe(ctx, source).Chan()
}

func (s *session) opts() []device.Opt {
	opts := []device.Opt{device.WithLogger(logger)}
	if cfg.Demo {
		opts = append(opts, device.WithDemo())
	}
	return opts
}

func (s *session) requireFamily(f gobafang.Family) error {
	if s.family != f {
		return fmt.Errorf("adapter %s talks to %s units, this command needs %s", cfg.Adapter.Name, s.family, f)
	}
	return nil
}

func adapterInfo(name string) (gobafang.AdapterInfo, bool) {
	for _, a := range gobafang.ListAdapters() {
		if a.Name == name {
			return a, true
		}
	}
	return gobafang.AdapterInfo{}, false
}

func printPorts() error {
	ports, err := serial.GetPortsList()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		log.Println("no serial ports found")
		return nil
	}
	log.Println("available ports:")
	for _, p := range ports {
		log.Println("  " + p)
	}
	return nil
}
