package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type voteTally struct {
	runs  int
	votes int64
}

func (v *voteTally) Consume(_ context.Context, batch []Event) error {
	for _, evt := range batch {
		switch evt.Stage {
		case StageRunDone:
			v.runs++
		case StageRecordIngested:
			v.votes += evt.Votes
		}
	}
	return nil
}

func (*voteTally) Close(context.Context) error { return nil }

func ExampleHub() {
	tally := &voteTally{}
	hub := NewHub(Config{MaxBatchWait: time.Second}, tally)

	run := UUIDToBytes(uuid.MustParse("00000000-0000-0000-0000-000000000002"))
	hub.Emit(Event{RunID: run, TS: time.Unix(0, 0), Stage: StageRecordIngested, Chamber: "house", Coordinate: "house 2024 #1", Votes: 432})
	hub.Emit(Event{RunID: run, TS: time.Unix(1, 0), Stage: StageRecordIngested, Chamber: "house", Coordinate: "house 2024 #2", Votes: 429})
	hub.Emit(Event{RunID: run, TS: time.Unix(2, 0), Stage: StageRunDone, Chamber: "house"})

	// Close flushes the partial batch before returning.
	if err := hub.Close(context.Background()); err != nil {
		panic(err)
	}
	fmt.Printf("%d run, %d votes\n", tally.runs, tally.votes)
	// Output:
	// 1 run, 861 votes
}
