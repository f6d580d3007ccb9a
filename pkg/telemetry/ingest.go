package telemetry

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Plantigo/plantigo-backend/pkg/queue"
)

// Ingestor is the MQTT-side entry point of the pipeline. It stamps the
// device MAC captured from the topic into the payload and appends the raw
// entry to the intake queue. All parsing and validation beyond that is
// deferred to the batch processor.
type Ingestor struct {
	queue queue.Queue
}

// NewIngestor creates an ingestor appending to the given intake queue.
func NewIngestor(q queue.Queue) *Ingestor {
	return &Ingestor{queue: q}
}

// HandleSensorData is registered as the topic router handler for the
// sensor data pattern. The first captured topic segment is the device MAC.
func (i *Ingestor) HandleSensorData(ctx context.Context, captures []string, payload []byte) {
	var data map[string]interface{}
	if err := json.Unmarshal(payload, &data); err != nil {
		log.Warnf("ingest: dropping payload with invalid JSON: %s", err)
		return
	}

	if len(captures) > 0 && captures[0] != "" {
		data["mac_address"] = captures[0]
	}

	if _, ok := data["timestamp"]; !ok {
		data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	}

	entry, err := json.Marshal(data)
	if err != nil {
		log.Errorf("ingest: failed to encode queue entry: %s", err)
		return
	}

	if err := i.queue.Push(ctx, entry); err != nil {
		log.Errorf("ingest: failed to enqueue reading: %s", err)
		return
	}

	log.Debugf("ingest: queued reading from %v", data["mac_address"])
}
