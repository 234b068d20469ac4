package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/guardian/internal/client/location"
	"github.com/iudanet/guardian/internal/client/netmon"
)

const shutdownGrace = 5 * time.Second

func (c *Cli) trackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track",
		Short: "Track location and keep queues flowing until interrupted",
		Long: `Track location in the foreground. Samples are queued locally and uploaded
in batches; queued changes are delivered whenever the backend becomes
reachable. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runTrack(cmd.Context())
		},
	}
}

func (c *Cli) runTrack(ctx context.Context) error {
	a := c.app

	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		a.monitor.Run(runCtx, netmon.NewProbeProvider(a.api, a.cfg.Netmon.ProbeInterval))
	}()
	detachQueue := a.queue.AttachMonitor(runCtx, a.monitor)

	unsubscribe := a.location.Subscribe(func(st location.Status) {
		c.io.Printf("[%s] %s queued=%d uploading=%t last_upload=%s%s\n",
			time.Now().Format(time.TimeOnly), st.State, st.QueueLength, st.Uploading,
			formatTime(st.LastUpload), errorSuffix(st.LastError))
	})

	if !a.location.Initialize(sess.Token, sess.UserID) {
		unsubscribe()
		detachQueue()
		return errors.New("location tracking refused to start")
	}
	c.io.Println("Tracking started, press Ctrl+C to stop.")

	<-ctx.Done()

	a.location.Stop()
	unsubscribe()
	detachQueue()
	cancel()
	<-monitorDone

	// Wait for a drain started by the last reconnect.
	waitCtx, waitCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer waitCancel()
	for a.queue.Processing() {
		select {
		case <-waitCtx.Done():
			return fmt.Errorf("queue still draining after %s", shutdownGrace)
		case <-time.After(50 * time.Millisecond):
		}
	}

	c.io.Println("Tracking stopped.")
	return nil
}

func (c *Cli) captureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capture",
		Short: "Capture one location sample and upload the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runCapture(cmd.Context())
		},
	}
}

func (c *Cli) runCapture(ctx context.Context) error {
	a := c.app

	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	if !a.location.Initialize(sess.Token, sess.UserID) {
		return errors.New("location capture refused to start")
	}
	defer a.location.Stop()

	a.probe(ctx)

	sample := a.location.CaptureNow(ctx)
	if sample == nil {
		c.io.Println("⚠️  No position available")
	} else {
		c.io.Printf("✓ Captured %.6f, %.6f at %s\n", sample.Latitude, sample.Longitude, sample.TimestampUTC)
		c.io.Printf("  %s\n", sample.MapsURL())
	}

	if err := a.flushLocations(ctx); err != nil {
		pending, _ := a.location.Pending(ctx)
		c.io.Printf("Upload failed (%v), %d sample(s) stay queued.\n", err, len(pending))
		return nil
	}
	c.io.Println("✓ Location queue uploaded")
	return nil
}

func errorSuffix(msg string) string {
	if msg == "" {
		return ""
	}
	return " error=" + msg
}
