// Command yulaosd boots one in-process System and drives a deterministic
// scripted scenario: two compositor clients attach shared-memory
// surfaces, commit a frame each, the pointer moves across them, and the
// window manager tiles both onto the screen — exercising pmm, sched,
// shmfs, comp, and wm end to end (ipcfs and futex are booted but not
// driven by the scenario), the userspace
// analogue of go-ublk's ublk-mem demo CLI driving one memory-backed
// block device.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	yulaos "github.com/yula1234/yulaos"
	"github.com/yula1234/yulaos/internal/logging"
	"github.com/yula1234/yulaos/internal/sched"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		verbose      bool
		totalPagesMB uint32
		screenW      uint32
		screenH      uint32
	)

	cmd := &cobra.Command{
		Use:           "yulaosd",
		Short:         "boot a YulaOS userspace systems layer and run the demo scenario",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logConfig := logging.DefaultConfig()
			if verbose {
				logConfig.Level = logging.LevelDebug
			}
			logger := logging.NewLogger(logConfig)
			logging.SetDefault(logger)

			params := yulaos.DefaultSystemParams()
			if totalPagesMB > 0 {
				params.TotalPages = (totalPagesMB << 20) / 4096
			}
			if screenW > 0 {
				params.ScreenWidth = screenW
			}
			if screenH > 0 {
				params.ScreenHeight = screenH
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sig
				cancel()
			}()

			sys, err := yulaos.Boot(ctx, params, &yulaos.Options{Logger: logger})
			if err != nil {
				return fmt.Errorf("boot: %w", err)
			}
			defer func() {
				if err := yulaos.Shutdown(context.Background(), sys); err != nil {
					logger.Error("shutdown failed", "error", err)
				}
			}()

			if err := runDemoScenario(sys, logger); err != nil {
				return fmt.Errorf("demo scenario: %w", err)
			}

			logger.Info("demo scenario complete", "status", sys.String())
			snap := sys.MetricsSnapshot()
			logger.Info("final metrics",
				"page_allocs", snap.PageAllocs,
				"tasks_spawned", snap.TasksSpawned,
				"compositor_commits", snap.CompositorCommits,
				"ipc_messages", snap.IPCMessages,
			)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().Uint32Var(&totalPagesMB, "mem-mb", 0, "override the page allocator pool size, in MiB")
	cmd.Flags().Uint32Var(&screenW, "screen-width", 0, "override the compositor screen width")
	cmd.Flags().Uint32Var(&screenH, "screen-height", 0, "override the compositor screen height")
	return cmd
}

// runDemoScenario registers two compositor clients, has each attach a
// shared-memory surface and commit a frame, moves the pointer across
// both, tiles them onto the workspace through the window manager, and
// spawns one short-lived probe process on the scheduler — one
// deterministic pass through the stack.
func runDemoScenario(sys *yulaos.System, logger *logging.Logger) error {
	const (
		clientAPID = 10
		clientBPID = 11
		surfaceID  = 1
		surfaceW   = 640
		surfaceH   = 480
		stride     = surfaceW * 4
		format     = 1 // ARGB8888
	)

	frames := make([][]byte, 2)
	clientA := sys.NewCompositorClient(clientAPID, func(b []byte) error {
		frames[0] = append(frames[0], b...)
		return nil
	})
	clientB := sys.NewCompositorClient(clientBPID, func(b []byte) error {
		frames[1] = append(frames[1], b...)
		return nil
	})

	if _, err := clientA.Surface(surfaceID); err != nil {
		return fmt.Errorf("client A surface: %w", err)
	}
	if _, err := clientB.Surface(surfaceID); err != nil {
		return fmt.Errorf("client B surface: %w", err)
	}

	if _, err := sys.Shm.CreateNamed("yulaosd-a", surfaceW*surfaceH*4); err != nil {
		return fmt.Errorf("create shm A: %w", err)
	}
	if _, err := sys.Shm.CreateNamed("yulaosd-b", surfaceW*surfaceH*4); err != nil {
		return fmt.Errorf("create shm B: %w", err)
	}

	if err := sys.Comp.HandleAttachShmName(clientAPID, surfaceID, surfaceW, surfaceH, stride, format, "yulaosd-a"); err != nil {
		return fmt.Errorf("attach shm A: %w", err)
	}
	if err := sys.Comp.HandleAttachShmName(clientBPID, surfaceID, surfaceW, surfaceH, stride, format, "yulaosd-b"); err != nil {
		return fmt.Errorf("attach shm B: %w", err)
	}

	if err := sys.Comp.HandleCommit(clientAPID, surfaceID, 0, 0, 0); err != nil {
		return fmt.Errorf("commit A: %w", err)
	}
	if err := sys.Comp.HandleCommit(clientBPID, surfaceID, 0, 0, 0); err != nil {
		return fmt.Errorf("commit B: %w", err)
	}
	sys.Metrics().RecordCompositorFrame()

	sys.Comp.DispatchPointer(100, 100, 0, 0)
	sys.Comp.DispatchPointer(400, 300, 1, 0)

	sys.WM.MapView(clientAPID, surfaceID)
	sys.WM.MapView(clientBPID, surfaceID)

	done := make(chan struct{})
	task, err := sys.SpawnProcess("yulaosd-reaper-probe", 0, sched.PriorityLow, func(t *sched.Task) int32 {
		close(done)
		return 0
	})
	if err != nil {
		return fmt.Errorf("spawn probe task: %w", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		logger.Warn("probe task did not complete in time", "pid", task.PID)
	}

	logger.Info("tiled two surfaces", "workspace", sys.WM.ActiveWorkspace())
	return nil
}
