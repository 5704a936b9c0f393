package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "09:00", want: "0 0 9 * * *"},
		{in: " 23:59 ", want: "0 59 23 * * *"},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := buildDailySpec(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchedulerService_Register(t *testing.T) {
	s := NewSchedulerService(time.UTC, time.Second)
	noop := func(context.Context) error { return nil }

	_, err := s.ScheduleDaily("digest", "07:30", noop)
	require.NoError(t, err)
	_, err = s.ScheduleInterval("tick", time.Hour, noop)
	require.NoError(t, err)
	_, err = s.ScheduleInterval("never", 0, noop)
	assert.Error(t, err)
	_, err = s.ScheduleDaily("bad", "7", noop)
	assert.Error(t, err)

	assert.Equal(t, 2, s.Entries())
}

func TestSchedulerService_RunPassesDeadline(t *testing.T) {
	s := NewSchedulerService(time.UTC, 50*time.Millisecond)
	var hadDeadline bool
	s.run("probe", func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return errors.New("boom")
	})()
	assert.True(t, hadDeadline)
}

func TestSchedulerService_StartStop(t *testing.T) {
	s := NewSchedulerService(time.UTC, time.Second)
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
