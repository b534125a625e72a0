package bar

import (
	"context"

	"github.com/k0kubun/go-ansi"
	"github.com/roffe/gobafang/pkg/device"
	"github.com/schollz/progressbar/v3"
)

func New(length int, text string) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		length,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription("[cyan]"+text+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// Follow advances pb on every data event of sub and returns the first event
// of kind. Failed requests produce no data event, the bar is completed once
// the batch finished.
func Follow(ctx context.Context, sub *device.Subscription, pb *progressbar.ProgressBar, kind device.EventType) (device.Event, error) {
	defer pb.Finish()
	for {
		select {
		case <-ctx.Done():
			return device.Event{}, ctx.Err()
		case e, ok := <-sub.C():
			if !ok {
				return device.Event{}, device.ErrClosed
			}
			switch e.Type {
			case kind:
				return e, nil
			case device.EventData:
				pb.Add(1)
			}
		}
	}
}
