package telemetry

import (
	"time"

	"github.com/Plantigo/plantigo-backend/pkg/storage"
)

// RefreshDeviceActivity recomputes the is_active flag for a single device:
// active iff its most recent reading falls within the lookback window from
// now. Callers persisting a reading outside the batch path must invoke this
// so the flag stays consistent without polling.
func RefreshDeviceActivity(st storage.Interface, deviceID int32, window time.Duration, now time.Time) error {
	active := false

	latest, err := st.Telemetry().LatestByDeviceID(deviceID)
	if err != nil && err != storage.ErrNotFound {
		return err
	}
	if err == nil {
		active = latest.Timestamp.After(now.Add(-window))
	}

	return st.Devices().SetActiveStatus([]int32{deviceID}, active)
}
