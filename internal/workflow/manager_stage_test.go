package workflow

import (
	"testing"
	"time"
)

func TestDocumentSaverSavesOnCountChange(t *testing.T) {
	saver := &documentSaver{interval: time.Minute}
	now := time.Now()
	if !saver.due(now, 0, 0) {
		t.Fatal("first update should save")
	}
	if saver.due(now.Add(time.Second), 0, 0) {
		t.Fatal("unchanged counts inside the interval should not save")
	}
	if !saver.due(now.Add(2*time.Second), 0, 1) {
		t.Fatal("a new paragraph should save")
	}
	if !saver.due(now.Add(3*time.Second), 1, 1) {
		t.Fatal("a finalized paragraph should save")
	}
	if !saver.due(now.Add(2*time.Minute), 1, 1) {
		t.Fatal("growing text should save once the interval elapses")
	}
}
