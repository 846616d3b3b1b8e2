package rowan

// QueueDevice is a scripted DeviceBackend for tests and the step runner.
// Each Poll consumes the next queued snapshot; when the queue is empty the
// last snapshot repeats, so a held key stays held across frames until a
// snapshot without it is queued.
type QueueDevice struct {
	queue []DeviceState
	last  DeviceState
}

// NewQueueDevice creates an empty scripted device. Polling before anything
// is queued yields an all-released state.
func NewQueueDevice() *QueueDevice {
	return &QueueDevice{}
}

// Push queues a snapshot for a future frame.
func (d *QueueDevice) Push(s DeviceState) {
	d.queue = append(d.queue, s)
}

// PushKeys queues a snapshot with only the given keys down.
func (d *QueueDevice) PushKeys(keys ...Key) {
	d.Push(DeviceState{Keys: keys})
}

// PushRelease queues an all-released snapshot.
func (d *QueueDevice) PushRelease() {
	d.Push(DeviceState{})
}

// Poll implements DeviceBackend.
func (d *QueueDevice) Poll() DeviceState {
	if len(d.queue) == 0 {
		return d.last
	}
	s := d.queue[0]
	d.queue = d.queue[1:]
	d.last = s
	return s
}
