package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/talentcheck/internal/domain/model"
)

func job(id string) model.Job {
	return model.Job{
		RunID:      "run-" + id,
		Submission: model.Submission{Record: model.AssessmentRecord{ID: id}},
		EnqueuedAt: time.Now(),
	}
}

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with capacity 2", t, func() {
		q := NewInMemoryQueue(WithCapacity(2))
		So(q.Len(), ShouldEqual, 0)
		So(q.Capacity(), ShouldEqual, 2)

		Convey("When jobs are enqueued", func() {
			So(q.Enqueue(ctx, job("a")), ShouldBeNil)
			So(q.Enqueue(ctx, job("b")), ShouldBeNil)

			Convey("Then a third is rejected as full", func() {
				So(q.Enqueue(ctx, job("c")), ShouldEqual, ErrFull)
				So(q.Len(), ShouldEqual, 2)
			})

			Convey("Then they are dequeued in order", func() {
				ch := q.Dequeue(ctx)
				So((<-ch).RunID, ShouldEqual, "run-a")
				So((<-ch).RunID, ShouldEqual, "run-b")
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, job("a")), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue fails and queued jobs still drain", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, job("b")), ShouldEqual, ErrClosed)

				var got []string
				for j := range q.Dequeue(ctx) {
					got = append(got, j.RunID)
				}
				So(got, ShouldResemble, []string{"run-a"})
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			So(q.Enqueue(cctx, job("a")), ShouldEqual, context.Canceled)
		})
	})
}

func TestInMemoryQueueDrops(t *testing.T) {
	Convey("Given a queue with a drop handler", t, func() {
		var mu sync.Mutex
		var dropped []string
		q := NewInMemoryQueue(WithCapacity(4), WithDropHandler(func(j model.Job) {
			mu.Lock()
			defer mu.Unlock()
			dropped = append(dropped, j.Submission.Record.ID)
		}))
		droppedIDs := func() []string {
			mu.Lock()
			defer mu.Unlock()
			return append([]string(nil), dropped...)
		}

		Convey("When the consumer goes away holding a job", func() {
			ctx, cancel := context.WithCancel(context.Background())
			So(q.Enqueue(ctx, job("a")), ShouldBeNil)
			ch := q.Dequeue(ctx)
			for q.Len() > 0 {
				time.Sleep(time.Millisecond)
			}
			// Nobody receives from ch, so the forwarder can only observe ctx.
			cancel()
			deadline := time.Now().Add(2 * time.Second)
			for len(droppedIDs()) == 0 && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}

			Convey("Then the job is handed to the drop handler", func() {
				So(droppedIDs(), ShouldResemble, []string{"a"})
				_, open := <-ch
				So(open, ShouldBeFalse)
			})
		})

		Convey("When jobs are still buffered at Drain", func() {
			So(q.Enqueue(context.Background(), job("a")), ShouldBeNil)
			So(q.Enqueue(context.Background(), job("b")), ShouldBeNil)

			Convey("Then each is dropped and the queue is closed", func() {
				So(q.Drain(), ShouldEqual, 2)
				So(droppedIDs(), ShouldResemble, []string{"a", "b"})
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Drain(), ShouldEqual, 0)
			})
		})
	})
}

func TestInMemoryQueueConcurrent(t *testing.T) {
	Convey("Given concurrent producers and one consumer", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		q := NewInMemoryQueue(WithCapacity(16))
		const producers, perProducer = 8, 25

		var wg sync.WaitGroup
		for p := 0; p < producers; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < perProducer; i++ {
					for q.Enqueue(ctx, job(fmt.Sprintf("%d-%d", p, i))) != nil {
						time.Sleep(time.Millisecond)
					}
				}
			}(p)
		}

		seen := make(map[string]bool)
		ch := q.Dequeue(ctx)
		for len(seen) < producers*perProducer {
			j := <-ch
			seen[j.RunID] = true
		}
		wg.Wait()

		Convey("Then every job arrives exactly once", func() {
			So(len(seen), ShouldEqual, producers*perProducer)
			So(q.Len(), ShouldEqual, 0)
		})
	})
}
