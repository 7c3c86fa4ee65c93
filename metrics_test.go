package iqpipe

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestProgressAccumulatesCounters(t *testing.T) {
	p := NewProgress()
	p.AddFramesRead(100)
	p.AddFramesRead(50)
	p.AddOutputFrames(120)

	snap := p.Snapshot()
	if snap.FramesRead != 150 {
		t.Errorf("Expected 150 frames read, got %d", snap.FramesRead)
	}
	if snap.OutputFrames != 120 {
		t.Errorf("Expected 120 output frames, got %d", snap.OutputFrames)
	}
}

func TestProgressSnapshotIsConsistentUnderConcurrentWrites(t *testing.T) {
	p := NewProgress()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			p.AddFramesRead(1)
		}
		close(done)
	}()
	for i := 0; i < 1000; i++ {
		p.AddOutputFrames(1)
	}
	<-done

	snap := p.Snapshot()
	if snap.FramesRead != 1000 {
		t.Errorf("Expected 1000 frames read, got %d", snap.FramesRead)
	}
	if snap.OutputFrames != 1000 {
		t.Errorf("Expected 1000 output frames, got %d", snap.OutputFrames)
	}
}

func TestProgressInputFrameRateIsZeroBeforeTimePasses(t *testing.T) {
	p := NewProgress()
	snap := p.Snapshot()
	if snap.InputFrameRate != 0 {
		t.Errorf("Expected 0 frame rate with no frames read, got %f", snap.InputFrameRate)
	}
}

func TestProgressInputFrameRateIsPositiveAfterFramesAndTime(t *testing.T) {
	p := NewProgress()
	p.AddFramesRead(1000)
	time.Sleep(5 * time.Millisecond)

	snap := p.Snapshot()
	if snap.InputFrameRate <= 0 {
		t.Errorf("Expected positive frame rate, got %f", snap.InputFrameRate)
	}
}

func TestNewPromMetricsRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPromMetrics(reg)

	m.FramesRead.Add(10)
	m.FramesWritten.Add(5)
	m.ByteRingOverruns.Add(1)
	m.IQOptPasses.Add(2)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) != 4 {
		t.Errorf("Expected 4 registered metric families, got %d", len(families))
	}
}

func TestNewPromMetricsPanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPromMetrics(reg)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic from duplicate MustRegister, got none")
		}
	}()
	NewPromMetrics(reg)
}
