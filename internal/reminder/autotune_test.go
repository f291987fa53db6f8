package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcfet/promoUI-sub009/internal/prefs"
	"github.com/jmcfet/promoUI-sub009/internal/types"
)

func TestAutoTuneProperties_Defaults(t *testing.T) {
	t.Parallel()
	store := prefs.NewVolatile()
	require.NoError(t, store.Set(prefs.KeyCurrentChannel, "42", false))

	now := time.Date(2026, 3, 1, 19, 30, 0, 0, time.UTC)
	p := NewAutoTuneProperties(now, store)

	assert.Equal(t, FreqOnce, p.Frequency())
	assert.Equal(t, now, p.StartTime())
	assert.Equal(t, int64(42), p.ServiceID())
	assert.Empty(t, p.JobID())
}

func TestAutoTuneProperties_ResetClearsEdits(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 19, 30, 0, 0, time.UTC)
	p := NewAutoTuneProperties(now, nil)

	p.SetFrequency(FreqWeekly)
	p.SetServiceID(9)
	p.SetStartTime(now.Add(2 * time.Hour))
	p.SetJobID("job-5")

	p.Reset(now, nil)

	assert.Equal(t, FreqOnce, p.Frequency())
	assert.Equal(t, now, p.StartTime())
	assert.Zero(t, p.ServiceID())
	assert.Empty(t, p.JobID())
}

func TestAutoTuneProperties_InvalidFrequencyIgnored(t *testing.T) {
	t.Parallel()
	p := NewAutoTuneProperties(time.Now(), nil)

	p.SetFrequency(FreqDaily)
	p.SetFrequency(Frequency("fortnightly"))

	assert.Equal(t, FreqDaily, p.Frequency())
}

func TestAutoTuneProperties_JobSpec(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		freq     Frequency
		wantType types.JobType
	}{
		{"once is one-time", FreqOnce, types.JobOneTime},
		{"daily repeats", FreqDaily, types.JobRepeating},
		{"weekly repeats", FreqWeekly, types.JobRepeating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewAutoTuneProperties(start, nil)
			p.SetFrequency(tt.freq)
			p.SetServiceID(7)

			spec := p.JobSpec()

			assert.Equal(t, tt.wantType, spec.Type)
			assert.Equal(t, KindAutoTune, spec.Kind)
			assert.Equal(t, int64(7), spec.ServiceID)
			assert.Equal(t, start, spec.StartTime)
			assert.Equal(t, string(tt.freq), spec.Extra["frequency"])
		})
	}
}

func TestSetAutoTune_SubmitsJobSpec(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.sched.deliver = func(h Handle) {
		f.m.HandleEvent(context.Background(), Event{Type: EventAddJobOK, Handle: h, JobID: "job-at"})
	}

	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	p := NewAutoTuneProperties(start, nil)
	p.SetFrequency(FreqDaily)
	p.SetServiceID(7)

	require.NoError(t, f.m.SetAutoTune(context.Background(), p))

	require.Len(t, f.sched.addCalls, 1)
	spec := f.sched.addCalls[0]
	assert.Equal(t, types.JobRepeating, spec.Type)
	assert.Equal(t, KindAutoTune, spec.Kind)
	assert.Equal(t, int64(7), spec.ServiceID)
}
