package telemetry

type processingError string

const (
	// ErrMalformedPayload marks a queue entry with broken JSON or missing
	// required fields. Never retried.
	ErrMalformedPayload = processingError("malformed payload")

	// ErrUnknownDevice marks a reading whose MAC address resolves to no
	// registered device. Never retried.
	ErrUnknownDevice = processingError("unknown device")

	// ErrInvalidTimestamp marks a reading with an unparseable timestamp.
	ErrInvalidTimestamp = processingError("invalid timestamp")

	// ErrDuplicateReading marks a reading whose (device, timestamp) pair
	// already exists. Not persisted, counted separately from errors.
	ErrDuplicateReading = processingError("duplicate reading")
)

func (e processingError) Error() string {
	return string(e)
}
