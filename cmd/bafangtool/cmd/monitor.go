package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/go-redis/redis/v8"
	"github.com/roffe/gobafang"
	"github.com/roffe/gobafang/pkg/device"
	"github.com/roffe/gobafang/pkg/telemetry"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const flagRaw = "raw"

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "print live data broadcast by the units",
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

		var pub *telemetry.Publisher
		if cfg.Redis.Addr != "" {
			rdb, err := openRedis(ctx)
			if err != nil {
				return err
			}
			defer rdb.Close()
			pub = telemetry.New(logger, rdb, cfg.Redis.Prefix)
		}

		units := []struct {
			name string
			dev  interface {
				Subscribe(int) *device.Subscription
				LoadData()
				Close()
			}
		}{
			{"controller", device.NewController(ctx, s.mgr, s.frames(ctx, gobafang.DriveUnit), s.opts()...)},
			{"display", device.NewDisplay(ctx, s.mgr, s.frames(ctx, gobafang.Display), s.opts()...)},
			{"sensor", device.NewSensor(ctx, s.mgr, s.frames(ctx, gobafang.TorqueSensor), s.opts()...)},
		}

		errg, gctx := errgroup.WithContext(ctx)
		for _, u := range units {
			u := u
			defer u.dev.Close()
			sub := u.dev.Subscribe(64)
			errg.Go(func() error {
				printEvents(gctx, u.name, sub)
				return nil
			})
			if pub != nil {
				psub := u.dev.Subscribe(64)
				errg.Go(func() error {
					pub.Run(gctx, u.name, psub)
					return nil
				})
			}
			if cfg.Demo {
				// demo units broadcast nothing, show the canned state once
				u.dev.LoadData()
			}
		}
		if raw, _ := cmd.Flags().GetBool(flagRaw); raw && s.client != nil {
			frames := s.client.Subscribe(gctx)
			errg.Go(func() error {
				for f := range frames.Chan() {
					fmt.Println(f.ColorString())
				}
				return nil
			})
		}
		logger.Info("monitoring, press ctrl+c to stop")
		err = errg.Wait()
		if s.client != nil {
			fmt.Println(s.client.Stats())
		}
		return err
	},
}

func init() {
	monitorCmd.Flags().Bool(flagRaw, false, "also print every raw frame")
	rootCmd.AddCommand(monitorCmd)
}

func openRedis(ctx context.Context) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	return rdb, nil
}

var (
	unitColor  = color.New(color.FgGreen).SprintFunc()
	eventColor = color.New(color.FgHiBlue).SprintFunc()
)

func printEvents(ctx context.Context, unit string, sub *device.Subscription) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C():
			if !ok {
				return
			}
			if e.Type != device.EventData {
				fmt.Printf("%s %s\n", unitColor(fmt.Sprintf("%-10s", unit)), e)
				continue
			}
			fmt.Printf("%s %s %+v\n", unitColor(fmt.Sprintf("%-10s", unit)), eventColor(e.Name()), e.Value)
		}
	}
}
