package yulaos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yula1234/yulaos/internal/sched"
)

func testParams() SystemParams {
	p := DefaultSystemParams()
	p.TotalPages = (4 << 20) / 4096 // 4 MiB, small enough for a quick test boot
	p.ReservedPages = 0
	return p
}

func TestBootWiresEverySubsystem(t *testing.T) {
	sys, err := Boot(context.Background(), testParams(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, Shutdown(context.Background(), sys)) })

	require.NotNil(t, sys.PMM)
	require.NotNil(t, sys.Sched)
	require.NotNil(t, sys.Devfs)
	require.NotNil(t, sys.Shm)
	require.NotNil(t, sys.IPC)
	require.NotNil(t, sys.Futex)
	require.NotNil(t, sys.Comp)
	require.NotNil(t, sys.WM)
	require.True(t, sys.IsRunning())
	require.Equal(t, SystemStateRunning, sys.State())
}

func TestBootRejectsZeroTotalPages(t *testing.T) {
	params := testParams()
	params.TotalPages = 0
	_, err := Boot(context.Background(), params, nil)
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeInvalid))
}

func TestShutdownIsIdempotent(t *testing.T) {
	sys, err := Boot(context.Background(), testParams(), nil)
	require.NoError(t, err)

	require.NoError(t, Shutdown(context.Background(), sys))
	require.Equal(t, SystemStateStopped, sys.State())
	require.False(t, sys.IsRunning())

	// Calling again must not panic or error.
	require.NoError(t, Shutdown(context.Background(), sys))
}

func TestShutdownOnNilSystemErrors(t *testing.T) {
	err := Shutdown(context.Background(), nil)
	require.Error(t, err)
}

func TestSpawnProcessRecordsMetrics(t *testing.T) {
	sys, err := Boot(context.Background(), testParams(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, Shutdown(context.Background(), sys)) })

	done := make(chan struct{})
	_, err = sys.SpawnProcess("test-proc", 0, sched.PriorityNormal, func(tk *sched.Task) int32 {
		close(done)
		return 0
	})
	require.NoError(t, err)

	<-done
	require.Eventually(t, func() bool {
		return sys.MetricsSnapshot().TasksSpawned >= 1
	}, time.Second, time.Millisecond)
}

func TestNewCompositorClientAttachesToSharedCompositor(t *testing.T) {
	sys, err := Boot(context.Background(), testParams(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, Shutdown(context.Background(), sys)) })

	var sent [][]byte
	client := sys.NewCompositorClient(42, func(b []byte) error {
		sent = append(sent, b)
		return nil
	})
	require.NotNil(t, client)
	require.Equal(t, uint32(1), client.NextSeq())
}

func TestTransferSurfaceBytesReadsThroughNodeOps(t *testing.T) {
	sys, err := Boot(context.Background(), testParams(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, Shutdown(context.Background(), sys)) })

	node, err := sys.Shm.CreateNamed("test-surface", 4096)
	require.NoError(t, err)

	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i)
	}
	_, err = node.Ops().Write(payload, 0)
	require.NoError(t, err)

	dst := make([]byte, 256)
	n, err := sys.TransferSurfaceBytes(node, 0, dst)
	require.NoError(t, err)
	require.Equal(t, 256, n)
	require.Equal(t, payload, dst)
}

func TestTransferSurfaceBytesUsesPooledBufferForLargeChunks(t *testing.T) {
	sys, err := Boot(context.Background(), testParams(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, Shutdown(context.Background(), sys)) })

	const size = 256 * 1024
	node, err := sys.Shm.CreateNamed("big-surface", size)
	require.NoError(t, err)

	payload := make([]byte, size)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	_, err = node.Ops().Write(payload, 0)
	require.NoError(t, err)

	dst := make([]byte, size)
	n, err := sys.TransferSurfaceBytes(node, 0, dst)
	require.NoError(t, err)
	require.Equal(t, size, n)
	require.Equal(t, payload, dst)
}

func TestInfoReportsPageAndTaskCounts(t *testing.T) {
	sys, err := Boot(context.Background(), testParams(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, Shutdown(context.Background(), sys)) })

	done := make(chan struct{})
	_, err = sys.SpawnProcess("info-probe", 0, sched.PriorityNormal, func(tk *sched.Task) int32 {
		<-done
		return 0
	})
	require.NoError(t, err)
	defer close(done)

	info := sys.Info()
	require.Equal(t, sys.PMM.TotalBlocks(), info.TotalPages)
	require.Equal(t, sys.PMM.UsedBlocks(), info.UsedPages)
	require.Equal(t, sys.PMM.FreeBlocks(), info.FreePages)
	require.GreaterOrEqual(t, info.TaskCount, 1)
	require.Greater(t, info.TasksByState["RUNNING"]+info.TasksByState["RUNNABLE"], 0)
}

func TestStringReflectsState(t *testing.T) {
	var sys *System
	require.Contains(t, sys.String(), "<nil>")

	booted, err := Boot(context.Background(), testParams(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, Shutdown(context.Background(), booted)) })
	require.Contains(t, booted.String(), "running")
}
