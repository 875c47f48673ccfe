package collector

import "testing"

func TestNewBatchCollector_DefaultsBatchSizeAndInterval(t *testing.T) {
	bc := NewBatchCollector(nil, 0, 0)
	if bc.batchSize != 100 {
		t.Errorf("batchSize = %d, want default 100", bc.batchSize)
	}
	if bc.flushInterval <= 0 {
		t.Errorf("flushInterval = %v, want a positive default", bc.flushInterval)
	}
}

func TestBatchCollector_TrackAccumulatesWithoutFlushing(t *testing.T) {
	bc := NewBatchCollector(nil, 10, 0)
	bc.Track("k1", map[string]string{"a": "1"})
	bc.Track("k2", map[string]string{"b": "2"})

	if got := bc.BufferLen(); got != 2 {
		t.Errorf("BufferLen() = %d, want 2", got)
	}
}

func TestBatchCollector_BufferLenEmptyInitially(t *testing.T) {
	bc := NewBatchCollector(nil, 10, 0)
	if got := bc.BufferLen(); got != 0 {
		t.Errorf("BufferLen() = %d, want 0", got)
	}
}
