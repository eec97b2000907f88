package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReqAccessors(t *testing.T) {
	r := NewReq(OpWrite, BestEffort, 100, 8).WithZone(3).WithAsync(true)
	require.Equal(t, OpWrite, r.Op())
	require.Equal(t, BestEffort, r.Priority())
	require.Equal(t, uint64(100), r.StartSector())
	require.Equal(t, uint32(8), r.SectorCount())
	require.Equal(t, uint32(8*512), r.ByteLen())
	require.Equal(t, uint64(3), r.Zone())
	require.True(t, r.Async())
	require.False(t, r.HeadInsert())
}

func TestReqHoldCount(t *testing.T) {
	r := NewReq(OpReset, BestEffort, 0, 0)
	require.Equal(t, uint32(0), r.HoldCount())
	r.IncHoldCount()
	r.IncHoldCount()
	require.Equal(t, uint32(2), r.HoldCount())
	r.ResetHoldCount()
	require.Equal(t, uint32(0), r.HoldCount())
}

func TestReqDeadline(t *testing.T) {
	r := NewReq(OpRead, RealTime, 0, 1)
	now := time.Now()
	r.SetDeadline(now)
	require.Equal(t, now, r.Deadline())
}

func TestReqExtendTo(t *testing.T) {
	r := NewReq(OpWrite, BestEffort, 100, 8)
	r.ExtendTo(92, 8)
	require.Equal(t, uint64(92), r.StartSector())
	require.Equal(t, uint32(16), r.SectorCount())
	require.Equal(t, uint32(16*512), r.ByteLen())
}

func TestUnitsFromBytesFloorsToOne(t *testing.T) {
	require.Equal(t, uint32(1), UnitsFromBytes(0))
	require.Equal(t, uint32(1), UnitsFromBytes(4096))
	require.Equal(t, uint32(2), UnitsFromBytes(1<<14))
}

func TestUnitsFromSectorsFloorsToOne(t *testing.T) {
	require.Equal(t, uint32(1), UnitsFromSectors(0))
	require.Equal(t, uint32(1), UnitsFromSectors(8))
	require.Equal(t, uint32(2), UnitsFromSectors(32))
}

func TestPriorityString(t *testing.T) {
	require.Equal(t, "real-time", RealTime.String())
	require.Equal(t, "best-effort", BestEffort.String())
	require.Equal(t, "idle", Idle.String())
}

func TestOpIsManagement(t *testing.T) {
	require.True(t, OpReset.IsManagement())
	require.True(t, OpFinish.IsManagement())
	require.False(t, OpRead.IsManagement())
	require.False(t, OpWrite.IsManagement())
	require.False(t, OpOther.IsManagement())
}
