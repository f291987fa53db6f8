package reminder

import (
	"strconv"
	"sync"
	"time"

	"github.com/jmcfet/promoUI-sub009/internal/prefs"
	"github.com/jmcfet/promoUI-sub009/internal/types"
)

// Frequency is the auto-tune recurrence selected by the viewer.
type Frequency string

const (
	FreqOnce   Frequency = "once"
	FreqDaily  Frequency = "daily"
	FreqWeekly Frequency = "weekly"
)

// IsValid checks whether the frequency is one of the defined constants.
func (f Frequency) IsValid() bool {
	return f == FreqOnce || f == FreqDaily || f == FreqWeekly
}

// AutoTuneProperties accumulates the fields of an auto-tune being
// configured in the UI. The record is reset to defaults whenever a new
// auto-tune setup starts, mutated field by field by the setters, and read
// back when the job is submitted.
type AutoTuneProperties struct {
	mu        sync.Mutex
	frequency Frequency
	startTime time.Time
	serviceID int64
	jobID     string
}

// NewAutoTuneProperties returns properties initialised to defaults: the
// current channel, the given instant, and a one-shot frequency.
func NewAutoTuneProperties(now time.Time, store *prefs.Store) *AutoTuneProperties {
	p := &AutoTuneProperties{}
	p.Reset(now, store)
	return p
}

// Reset restores the defaults for a fresh auto-tune setup.
func (p *AutoTuneProperties) Reset(now time.Time, store *prefs.Store) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frequency = FreqOnce
	p.startTime = now
	p.jobID = ""
	p.serviceID = 0
	if store != nil {
		if v, ok := store.Get(prefs.KeyCurrentChannel); ok {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				p.serviceID = id
			}
		}
	}
}

// SetFrequency records the selected recurrence; invalid values are
// ignored.
func (p *AutoTuneProperties) SetFrequency(f Frequency) {
	if !f.IsValid() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frequency = f
}

// SetStartTime records the selected date and time.
func (p *AutoTuneProperties) SetStartTime(t time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startTime = t
}

// SetServiceID records the target channel.
func (p *AutoTuneProperties) SetServiceID(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.serviceID = id
}

// SetJobID records the scheduler job backing this auto-tune once created.
func (p *AutoTuneProperties) SetJobID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobID = id
}

// Frequency returns the selected recurrence.
func (p *AutoTuneProperties) Frequency() Frequency {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frequency
}

// StartTime returns the selected start instant.
func (p *AutoTuneProperties) StartTime() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.startTime
}

// ServiceID returns the target channel.
func (p *AutoTuneProperties) ServiceID() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.serviceID
}

// JobID returns the backing scheduler job id, empty until created.
func (p *AutoTuneProperties) JobID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jobID
}

// JobSpec builds the scheduler job submission for the configured
// auto-tune.
func (p *AutoTuneProperties) JobSpec() JobSpec {
	p.mu.Lock()
	defer p.mu.Unlock()

	jobType := types.JobOneTime
	if p.frequency != FreqOnce {
		jobType = types.JobRepeating
	}
	return JobSpec{
		Type:      jobType,
		Kind:      KindAutoTune,
		ServiceID: p.serviceID,
		StartTime: p.startTime,
		Extra: map[string]string{
			"frequency": string(p.frequency),
		},
	}
}
