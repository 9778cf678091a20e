package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/platecheck/internal/adapters/repository"
	service "github.com/okian/platecheck/internal/app"
	"github.com/okian/platecheck/internal/domain/model"
	"github.com/okian/platecheck/internal/domain/recognition"
	"github.com/okian/platecheck/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

var errUpstream = errors.New("upstream 503")

func TestProcessBatch(t *testing.T) {
	Convey("Given three images where the second one fails upstream", t, func() {
		v := &scriptedVision{
			reports: map[string]recognition.VisionReport{
				"1.jpg": plateReport("12가3456"),
				"3.jpg": plateReport("345나6789"),
			},
			fail: map[string]error{"2.jpg": errUpstream},
		}
		svc := service.New(service.WithVisionProvider(v))
		ctx := context.Background()

		Convey("When the batch is processed", func() {
			records, err := svc.ProcessBatch(ctx, []model.Image{img("1.jpg"), img("2.jpg"), img("3.jpg")}, model.TierStandard)

			Convey("Then every image gets a record in input order", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 3)
				So(records[0].FileName(), ShouldEqual, "1.jpg")
				So(records[1].FileName(), ShouldEqual, "2.jpg")
				So(records[2].FileName(), ShouldEqual, "3.jpg")
				So(v.calls, ShouldResemble, []string{"1.jpg", "2.jpg", "3.jpg"})
			})

			Convey("And the failing image has only failed outcomes", func() {
				So(records[1].AllFailed(), ShouldBeTrue)
				for _, o := range records[1].Outcomes() {
					So(o.Status(), ShouldEqual, model.StatusFailed)
					So(o.Message(), ShouldContainSubstring, "upstream 503")
				}
				So(records[1].Consistency(), ShouldEqual, model.Indeterminate)
			})

			Convey("And the other images are unaffected", func() {
				So(records[0].Consistency(), ShouldEqual, model.Consistent)
				So(records[0].PlateFor(model.SourcePlateFocus).String, ShouldEqual, "12가3456")
				So(records[2].PlateFor(model.SourceDamageFocus).String, ShouldEqual, "345나6789")
			})

			Convey("And history holds the records in completion order", func() {
				history := svc.History(ctx)
				So(history, ShouldHaveLength, 3)
				for i := range history {
					So(history[i].ID(), ShouldEqual, records[i].ID())
				}
			})
		})

		Convey("When the context is already canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			records, err := svc.ProcessBatch(cctx, []model.Image{img("1.jpg")}, model.TierStandard)

			Convey("Then nothing is processed", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(records, ShouldBeEmpty)
			})
		})
	})
}

func TestProcessImagePremium(t *testing.T) {
	Convey("Given a premium pipeline", t, func() {
		ctx := context.Background()
		v := &scriptedVision{reports: map[string]recognition.VisionReport{
			"car.jpg": plateReport("12가3456"),
			"cat.jpg": {
				PlateFocus:  recognition.RawVision{Status: "NOT_VEHICLE", Message: "차량이 아닙니다."},
				DamageFocus: recognition.RawVision{Status: "EXCEPT", Message: "차량이 아닙니다."},
			},
		}}

		Convey("When OCR reads the same plate", func() {
			ocr := &scriptedText{text: "서울 12가 3456 주차장"}
			svc := service.New(service.WithVisionProvider(v), service.WithTextProvider(ocr))
			rec, err := svc.ProcessImage(ctx, img("car.jpg"), model.TierPremium)

			Convey("Then all three sources agree", func() {
				So(err, ShouldBeNil)
				So(rec.ModelTier(), ShouldEqual, model.TierPremium)
				So(rec.Outcomes(), ShouldHaveLength, 3)
				So(rec.PlateFor(model.SourcePrecisionOCR).String, ShouldEqual, "12가3456")
				So(rec.Consistency(), ShouldEqual, model.Consistent)
				So(rec.PlateDistance(), ShouldEqual, 0)
			})

			Convey("And the OCR text is kept", func() {
				o, ok := rec.Outcome(model.SourcePrecisionOCR)
				So(ok, ShouldBeTrue)
				So(o.RawText().String, ShouldEqual, "서울 12가 3456 주차장")
			})
		})

		Convey("When OCR reads one digit differently", func() {
			ocr := &scriptedText{text: "12가3457"}
			svc := service.New(service.WithVisionProvider(v), service.WithTextProvider(ocr))
			rec, err := svc.ProcessImage(ctx, img("car.jpg"), model.TierPremium)

			Convey("Then the record is inconsistent at distance one", func() {
				So(err, ShouldBeNil)
				So(rec.Consistency(), ShouldEqual, model.Inconsistent)
				So(rec.PlateDistance(), ShouldEqual, 1)
			})
		})

		Convey("When OCR fails", func() {
			ocr := &scriptedText{err: errUpstream}
			svc := service.New(service.WithVisionProvider(v), service.WithTextProvider(ocr))
			rec, err := svc.ProcessImage(ctx, img("car.jpg"), model.TierPremium)

			Convey("Then only the OCR outcome is failed", func() {
				So(err, ShouldBeNil)
				o, _ := rec.Outcome(model.SourcePrecisionOCR)
				So(o.Status(), ShouldEqual, model.StatusFailed)
				So(rec.Consistency(), ShouldEqual, model.Consistent)
			})
		})

		Convey("When vision sees no vehicle", func() {
			ocr := &scriptedText{text: "12가3456"}
			svc := service.New(service.WithVisionProvider(v), service.WithTextProvider(ocr))
			rec, err := svc.ProcessImage(ctx, img("cat.jpg"), model.TierPremium)

			Convey("Then OCR is skipped and no vehicle is reported", func() {
				So(err, ShouldBeNil)
				So(ocr.calls, ShouldEqual, 0)
				o, _ := rec.Outcome(model.SourcePrecisionOCR)
				So(o.Status(), ShouldEqual, model.StatusSkipped)
				So(rec.VehicleDetected(), ShouldBeFalse)
			})
		})

		Convey("When no OCR provider is configured", func() {
			svc := service.New(service.WithVisionProvider(v))
			rec, err := svc.ProcessImage(ctx, img("car.jpg"), model.TierPremium)

			Convey("Then the OCR outcome is skipped", func() {
				So(err, ShouldBeNil)
				o, ok := rec.Outcome(model.SourcePrecisionOCR)
				So(ok, ShouldBeTrue)
				So(o.Status(), ShouldEqual, model.StatusSkipped)
				So(rec.Consistency(), ShouldEqual, model.Consistent)
			})
		})

		Convey("When the standard tier is requested", func() {
			ocr := &scriptedText{text: "12가3456"}
			svc := service.New(service.WithVisionProvider(v), service.WithTextProvider(ocr))
			rec, err := svc.ProcessImage(ctx, img("car.jpg"), "")

			Convey("Then OCR never runs", func() {
				So(err, ShouldBeNil)
				So(ocr.calls, ShouldEqual, 0)
				So(rec.Outcomes(), ShouldHaveLength, 2)
				So(rec.ModelTier(), ShouldEqual, model.TierStandard)
			})
		})
	})
}

func TestProcessImagePanic(t *testing.T) {
	Convey("Given a provider that panics", t, func() {
		v := &scriptedVision{panics: map[string]bool{"boom.jpg": true}}
		svc := service.New(service.WithVisionProvider(v), service.WithTextProvider(&scriptedText{}))

		Convey("When the image is processed", func() {
			rec, err := svc.ProcessImage(context.Background(), img("boom.jpg"), model.TierPremium)

			Convey("Then a fully failed record is still produced", func() {
				So(err, ShouldBeNil)
				So(rec.Outcomes(), ShouldHaveLength, 3)
				for _, o := range rec.Outcomes() {
					So(o.Status(), ShouldEqual, model.StatusFailed)
				}
				So(rec.VehicleDetected(), ShouldBeTrue)
			})
		})
	})
}

// gatedVision blocks every call until its gate is closed.
type gatedVision struct {
	gate chan struct{}
}

func (g *gatedVision) Name() string { return "gated" }

func (g *gatedVision) Analyze(ctx context.Context, _ model.Image) (recognition.VisionReport, error) {
	select {
	case <-g.gate:
		return plateReport("12가3456"), nil
	case <-ctx.Done():
		return recognition.VisionReport{}, ctx.Err()
	}
}

func waitForState(svc *service.Service, id string, want types.BatchState) types.BatchStatus {
	deadline := time.Now().Add(5 * time.Second)
	for {
		st, err := svc.Batch(id)
		if err == nil && st.State == want {
			return st
		}
		if time.Now().After(deadline) {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSubmitBatch(t *testing.T) {
	Convey("Given a started service", t, func() {
		v := &scriptedVision{
			reports: map[string]recognition.VisionReport{"1.jpg": plateReport("12가3456")},
			fail:    map[string]error{"2.jpg": errUpstream},
		}
		svc := service.New(service.WithVisionProvider(v), service.WithWorkerCount(2))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a batch is submitted", func() {
			st, dup, err := svc.SubmitBatch(ctx, "batch-a", model.TierStandard, []model.Image{img("1.jpg"), img("2.jpg")})
			So(err, ShouldBeNil)
			So(dup, ShouldBeFalse)
			So(st.ID, ShouldEqual, "batch-a")
			So(st.Total, ShouldEqual, 2)

			Convey("Then it completes with one record per image", func() {
				done := waitForState(svc, "batch-a", types.BatchDone)
				So(done.State, ShouldEqual, types.BatchDone)
				So(done.Completed, ShouldEqual, 2)
				So(done.RecordIDs, ShouldHaveLength, 2)
				So(done.FinishedAt, ShouldNotBeNil)

				second, err := svc.Record(ctx, done.RecordIDs[1])
				So(err, ShouldBeNil)
				So(second.FileName(), ShouldEqual, "2.jpg")
				So(second.AllFailed(), ShouldBeTrue)
			})

			Convey("And resubmitting the id is reported as a duplicate", func() {
				_, dup, err := svc.SubmitBatch(ctx, "batch-a", model.TierStandard, []model.Image{img("1.jpg")})
				So(err, ShouldBeNil)
				So(dup, ShouldBeTrue)
			})
		})

		Convey("When a batch has no id", func() {
			st, _, err := svc.SubmitBatch(ctx, "", "", []model.Image{img("1.jpg")})

			Convey("Then one is generated", func() {
				So(err, ShouldBeNil)
				So(st.ID, ShouldNotBeEmpty)
				So(st.Tier, ShouldEqual, "standard")
			})
		})

		Convey("When a batch is empty", func() {
			_, _, err := svc.SubmitBatch(ctx, "empty", model.TierStandard, nil)
			So(errors.Is(err, service.ErrEmptyBatch), ShouldBeTrue)
		})

		Convey("When an unknown batch is looked up", func() {
			_, err := svc.Batch("nope")
			So(errors.Is(err, service.ErrBatchNotFound), ShouldBeTrue)
		})
	})
}

func TestSubmitBatchConcurrentDuplicates(t *testing.T) {
	Convey("Given a started service", t, func() {
		g := &gatedVision{gate: make(chan struct{})}
		svc := service.New(service.WithVisionProvider(g), service.WithWorkerCount(1))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		defer close(g.gate)

		Convey("When the same batch id is submitted from many goroutines", func() {
			const callers = 32
			images := []model.Image{img("1.jpg"), img("2.jpg")}
			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				accepted int
				statuses []types.BatchStatus
			)
			for range callers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					st, dup, err := svc.SubmitBatch(ctx, "shared", model.TierStandard, images)
					if err != nil {
						return
					}
					mu.Lock()
					defer mu.Unlock()
					if !dup {
						accepted++
					}
					statuses = append(statuses, st)
				}()
			}
			wg.Wait()

			Convey("Then one submission is queued and every duplicate sees its real status", func() {
				So(accepted, ShouldEqual, 1)
				So(statuses, ShouldHaveLength, callers)
				for _, st := range statuses {
					So(st.ID, ShouldEqual, "shared")
					So(st.Total, ShouldEqual, 2)
					So(st.State, ShouldNotEqual, types.BatchDone)
				}
			})
		})
	})
}

// brokenHistory stores the first keep records and then fails.
type brokenHistory struct {
	repository.Store
	mu   sync.Mutex
	keep int
}

var errStoreDown = errors.New("store down")

func (b *brokenHistory) Append(ctx context.Context, rec *model.ComparisonRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.keep == 0 {
		return errStoreDown
	}
	b.keep--
	return b.Store.Append(ctx, rec)
}

func TestSubmitBatchStoreFailure(t *testing.T) {
	Convey("Given a history that fails after one record", t, func() {
		v := &scriptedVision{reports: map[string]recognition.VisionReport{
			"1.jpg": plateReport("12가3456"),
			"2.jpg": plateReport("34나5678"),
		}}
		h := &brokenHistory{Store: repository.NewMemoryStore(), keep: 1}
		svc := service.New(service.WithVisionProvider(v), service.WithHistory(h))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a two-image batch runs", func() {
			_, _, err := svc.SubmitBatch(ctx, "broken", model.TierStandard, []model.Image{img("1.jpg"), img("2.jpg")})
			So(err, ShouldBeNil)

			Convey("Then it ends failed with the cause and the partial progress", func() {
				st := waitForState(svc, "broken", types.BatchFailed)
				So(st.State, ShouldEqual, types.BatchFailed)
				So(st.Completed, ShouldEqual, 1)
				So(st.Total, ShouldEqual, 2)
				So(st.RecordIDs, ShouldHaveLength, 1)
				So(st.Error, ShouldContainSubstring, "store down")
				So(st.FinishedAt, ShouldNotBeNil)
			})
		})
	})
}

func TestSubmitBatchBackpressure(t *testing.T) {
	Convey("Given one worker stuck on a slow provider and a one-slot queue", t, func() {
		g := &gatedVision{gate: make(chan struct{})}
		svc := service.New(
			service.WithVisionProvider(g),
			service.WithWorkerCount(1),
			service.WithQueueSize(1),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When batches keep arriving", func() {
			var rejected string
			var rejectErr error
			for i := 0; i < 10; i++ {
				id := fmt.Sprintf("b-%d", i)
				_, _, err := svc.SubmitBatch(ctx, id, model.TierStandard, []model.Image{img(id + ".jpg")})
				if err != nil {
					rejected, rejectErr = id, err
					break
				}
			}
			close(g.gate)
			svc.Stop()

			Convey("Then the queue pushes back", func() {
				So(errors.Is(rejectErr, service.ErrBackpressure), ShouldBeTrue)
			})

			Convey("And the rejected id may be resubmitted", func() {
				So(svc.SeenAndRecord(ctx, rejected), ShouldBeFalse)
				_, err := svc.Batch(rejected)
				So(errors.Is(err, service.ErrBatchNotFound), ShouldBeTrue)
			})
		})
	})
}
