package telemetry

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Plantigo/plantigo-backend/pkg/events"
	"github.com/Plantigo/plantigo-backend/pkg/model"
	"github.com/Plantigo/plantigo-backend/pkg/queue"
	"github.com/Plantigo/plantigo-backend/pkg/storage"
)

// Config contains the tunable parameters of the batch processor.
type Config struct {
	BatchSize      int
	MaxRetries     int
	RetryBaseDelay time.Duration
	IdleDelay      time.Duration
	ActivityWindow time.Duration
	LocalZone      *time.Location
}

// Summary reports the outcome of a single batch cycle.
type Summary struct {
	Processed     int `json:"processed"`
	Persisted     int `json:"persisted"`
	Errors        int `json:"errors"`
	Duplicates    int `json:"duplicates"`
	Notifications int `json:"notifications_created"`
}

// Processor drains the intake queue in batches: it validates, normalizes
// and deduplicates raw readings, persists the survivors together with limit
// violation notifications and device activity flags in one transaction, and
// only then purges the examined queue entries. Cycles never overlap; Run
// schedules the next cycle only after the previous one finished.
type Processor struct {
	store  storage.Interface
	queue  queue.Queue
	events *events.Publisher
	cfg    Config

	// now is replaceable in tests
	now func() time.Time
}

// NewProcessor creates a batch processor. The events publisher may be nil.
func NewProcessor(store storage.Interface, q queue.Queue, pub *events.Publisher, cfg Config) *Processor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.IdleDelay <= 0 {
		cfg.IdleDelay = time.Second
	}
	if cfg.ActivityWindow <= 0 {
		cfg.ActivityWindow = 4 * time.Hour
	}
	if cfg.LocalZone == nil {
		cfg.LocalZone = time.UTC
	}

	return &Processor{
		store:  store,
		queue:  q,
		events: pub,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Run executes batch cycles until the context is cancelled. A non-empty
// cycle is followed immediately by the next one to drain backlogs; an empty
// queue reschedules after the idle delay. A failed cycle leaves the queue
// untouched and the loop moves on to the next scheduled attempt.
func (p *Processor) Run(ctx context.Context) error {
	log.Info("telemetry: batch processor started")

	for {
		if ctx.Err() != nil {
			log.Info("telemetry: batch processor stopped")
			return nil
		}

		sum, err := p.ProcessBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("telemetry: batch processor stopped")
				return nil
			}
			log.Errorf("telemetry: batch cycle failed: %s", err)
		}

		if err == nil && sum.Processed > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			log.Info("telemetry: batch processor stopped")
			return nil
		case <-time.After(p.cfg.IdleDelay):
		}
	}
}

// ProcessBatch runs a single cycle: peek, validate, commit, purge. Commit
// failures retry the whole cycle with exponential backoff up to the
// configured bound; the queue is only purged after a successful commit, so
// no entry is ever lost to a storage outage.
func (p *Processor) ProcessBatch(ctx context.Context) (Summary, error) {
	queueLength, err := p.queue.Length(ctx)
	if err != nil {
		return Summary{}, errors.Wrap(err, "failed to read intake queue length")
	}

	batchSize := int64(p.cfg.BatchSize)
	if queueLength < batchSize {
		batchSize = queueLength
	}

	entries, err := p.queue.PeekRange(ctx, batchSize)
	if err != nil {
		return Summary{}, errors.Wrap(err, "failed to peek intake queue")
	}

	if len(entries) == 0 {
		return Summary{}, nil
	}

	log.Debugf("telemetry: starting cycle with %d of %d queued entries", len(entries), queueLength)

	var (
		sum     Summary
		created []*model.Notification
	)

	for attempt := 0; ; attempt++ {
		sum, created, err = p.processEntries(entries)
		if err == nil {
			break
		}

		if attempt >= p.cfg.MaxRetries {
			log.Errorf("telemetry: giving up cycle after %d retries, entries remain queued: %s",
				p.cfg.MaxRetries, err)
			return sum, err
		}

		delay := p.cfg.RetryBaseDelay << uint(attempt)
		log.Warnf("telemetry: cycle attempt %d failed, retrying in %s: %s", attempt+1, delay, err)

		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		case <-time.After(delay):
		}
	}

	// Remove exactly the examined entries. Newer concurrent appends sit
	// behind them and stay queued for the next cycle.
	for range entries {
		if err := p.queue.PopFront(ctx); err != nil {
			log.Errorf("telemetry: failed to purge queue entry: %s", err)
			break
		}
	}

	for _, n := range created {
		if err := p.events.Publish("notifications", n); err != nil {
			log.Warnf("telemetry: failed to publish notification event: %s", err)
		}
	}
	if err := p.events.Publish("cycles", sum); err != nil {
		log.Warnf("telemetry: failed to publish cycle summary: %s", err)
	}

	log.Infof("telemetry: cycle done: processed=%d persisted=%d errors=%d duplicates=%d notifications=%d",
		sum.Processed, sum.Persisted, sum.Errors, sum.Duplicates, sum.Notifications)

	return sum, nil
}

type rawReading struct {
	MACAddress   *string  `json:"mac_address"`
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
	Pressure     *float64 `json:"pressure"`
	SoilMoisture *float64 `json:"soil_moisture"`
	Timestamp    *string  `json:"timestamp"`
}

func (r *rawReading) complete() bool {
	return r.MACAddress != nil && r.Temperature != nil && r.Humidity != nil &&
		r.Pressure != nil && r.SoilMoisture != nil && r.Timestamp != nil
}

type stagedReading struct {
	device  *model.Device
	reading *model.Telemetry
}

// classifyEntry validates a single raw queue entry. It returns the staged
// reading or one of the package's classification errors; any other error is
// a storage failure the caller must treat as transient.
func (p *Processor) classifyEntry(raw []byte) (*stagedReading, error) {
	var data rawReading
	if err := json.Unmarshal(raw, &data); err != nil || !data.complete() {
		return nil, errors.Wrapf(ErrMalformedPayload, "entry %q", string(raw))
	}

	mac := FormatMACAddress(*data.MACAddress)

	device, err := p.store.Devices().FindByMACAddress(mac)
	if err == storage.ErrNotFound {
		return nil, errors.Wrapf(ErrUnknownDevice, "MAC address %s", mac)
	} else if err != nil {
		return nil, err
	}

	ts, err := ParseTimestamp(*data.Timestamp, p.cfg.LocalZone)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidTimestamp, "%s", err)
	}

	exists, err := p.store.Telemetry().ExistsByDeviceAndTimestamp(device.ID, ts)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Wrapf(ErrDuplicateReading, "device %d at %s", device.ID, ts)
	}

	return &stagedReading{
		device: device,
		reading: &model.Telemetry{
			DeviceID:     device.ID,
			Temperature:  *data.Temperature,
			Humidity:     *data.Humidity,
			Pressure:     *data.Pressure,
			SoilMoisture: int(*data.SoilMoisture),
			Timestamp:    ts,
		},
	}, nil
}

// processEntries classifies every entry of the batch and commits the
// surviving readings, their notifications and the device activity flags in
// a single transaction. It is safe to call repeatedly with the same
// entries: a failed attempt leaves storage untouched.
func (p *Processor) processEntries(entries [][]byte) (Summary, []*model.Notification, error) {
	sum := Summary{Processed: len(entries)}

	staged := make([]stagedReading, 0, len(entries))
	seen := make(map[int32]map[time.Time]struct{})

	for _, raw := range entries {
		s, err := p.classifyEntry(raw)
		if err != nil {
			switch errors.Cause(err) {
			case ErrDuplicateReading:
				log.Debugf("telemetry: dropping entry: %s", err)
				sum.Duplicates++
			case ErrMalformedPayload, ErrUnknownDevice, ErrInvalidTimestamp:
				log.Warnf("telemetry: dropping entry: %s", err)
				sum.Errors++
			default:
				// Storage failure below the validation stage aborts the
				// cycle so nothing is purged.
				return sum, nil, err
			}
			continue
		}

		ts := s.reading.Timestamp
		if _, ok := seen[s.device.ID][ts]; ok {
			log.Debugf("telemetry: dropping in-batch duplicate for device %d at %s", s.device.ID, ts)
			sum.Duplicates++
			continue
		}
		if seen[s.device.ID] == nil {
			seen[s.device.ID] = make(map[time.Time]struct{})
		}
		seen[s.device.ID][ts] = struct{}{}

		staged = append(staged, *s)
	}

	if len(staged) == 0 {
		return sum, nil, nil
	}

	// Chronological write order for downstream consumers relying on
	// insertion order.
	sort.Slice(staged, func(i, j int) bool {
		return staged[i].reading.Timestamp.Before(staged[j].reading.Timestamp)
	})

	created := make([]*model.Notification, 0)

	err := p.store.Atomically(func(tx storage.Interface) error {
		readings := make([]*model.Telemetry, 0, len(staged))
		for _, s := range staged {
			readings = append(readings, s.reading)
		}

		if err := tx.Telemetry().CreateBatch(readings); err != nil {
			return err
		}

		for _, s := range staged {
			limits, err := tx.SensorLimits().FindByDeviceID(s.device.ID)
			if err == storage.ErrNotFound {
				continue
			} else if err != nil {
				return err
			}

			violations, severity := EvaluateLimits(s.reading, limits)
			if len(violations) == 0 {
				continue
			}

			n := &model.Notification{
				UserID:      s.device.UserID,
				DeviceID:    s.device.ID,
				TelemetryID: s.reading.ID,
				Message:     strings.Join(violations, "\n"),
				Severity:    severity,
			}
			if err := tx.Notifications().Create(n); err != nil {
				return err
			}
			created = append(created, n)
		}

		if err := p.updateActivity(tx, staged); err != nil {
			return err
		}

		sum.Persisted = len(readings)
		sum.Notifications = len(created)
		return nil
	})
	if err != nil {
		sum.Persisted = 0
		sum.Notifications = 0
		return sum, nil, err
	}

	return sum, created, nil
}

// updateActivity recomputes is_active for every device touched by the
// batch, based on its latest stored reading relative to the lookback
// window.
func (p *Processor) updateActivity(tx storage.Interface, staged []stagedReading) error {
	touched := make(map[int32]struct{})
	for _, s := range staged {
		touched[s.device.ID] = struct{}{}
	}

	cutoff := p.now().Add(-p.cfg.ActivityWindow)

	activeIDs := make([]int32, 0, len(touched))
	inactiveIDs := make([]int32, 0)

	for id := range touched {
		latest, err := tx.Telemetry().LatestByDeviceID(id)
		if err != nil && err != storage.ErrNotFound {
			return err
		}

		if err == nil && latest.Timestamp.After(cutoff) {
			activeIDs = append(activeIDs, id)
		} else {
			inactiveIDs = append(inactiveIDs, id)
		}
	}

	if err := tx.Devices().SetActiveStatus(activeIDs, true); err != nil {
		return err
	}

	return tx.Devices().SetActiveStatus(inactiveIDs, false)
}
