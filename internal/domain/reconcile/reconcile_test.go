package reconcile_test

import (
	"testing"

	"github.com/okian/platecheck/internal/domain/model"
	"github.com/okian/platecheck/internal/domain/recognition"
	"github.com/okian/platecheck/internal/domain/reconcile"
	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/guregu/null.v4"
)

func outcome(source model.SourceID, status model.Status, plate string) model.RecognitionOutcome {
	p := null.String{}
	if plate != "" {
		p = null.StringFrom(plate)
	}
	return model.NewOutcome(source, status, p, "", null.String{})
}

func TestVehicleDetected(t *testing.T) {
	Convey("Given vision outcomes", t, func() {
		Convey("When every vision source says not a vehicle", func() {
			v := reconcile.Reconcile([]model.RecognitionOutcome{
				outcome(model.SourcePlateFocus, model.StatusNotAVehicle, ""),
				outcome(model.SourceDamageFocus, model.StatusNotAVehicle, ""),
			})

			Convey("Then no vehicle is detected", func() {
				So(v.VehicleDetected, ShouldBeFalse)
			})
		})

		Convey("When one source says not a vehicle and the other reports a plate", func() {
			outcomes := []model.RecognitionOutcome{
				outcome(model.SourcePlateFocus, model.StatusNotAVehicle, ""),
				outcome(model.SourceDamageFocus, model.StatusSuccess, "12가3456"),
			}
			v := reconcile.Reconcile(outcomes)

			Convey("Then the positive source wins and both outcomes are untouched", func() {
				So(v.VehicleDetected, ShouldBeTrue)
				So(outcomes[0].Status(), ShouldEqual, model.StatusNotAVehicle)
				So(outcomes[1].Plate().String, ShouldEqual, "12가3456")
			})
		})

		Convey("When a dissenting source failed", func() {
			v := reconcile.Reconcile([]model.RecognitionOutcome{
				outcome(model.SourcePlateFocus, model.StatusNotAVehicle, ""),
				recognition.Failed(model.SourceDamageFocus, nil),
			})

			Convey("Then the failure is not an explicit rejection", func() {
				So(v.VehicleDetected, ShouldBeTrue)
			})
		})

		Convey("When the only not-a-vehicle outcome comes from OCR", func() {
			v := reconcile.Reconcile([]model.RecognitionOutcome{
				outcome(model.SourcePrecisionOCR, model.StatusNotAVehicle, ""),
			})

			Convey("Then the vehicle is still assumed", func() {
				So(v.VehicleDetected, ShouldBeTrue)
			})
		})
	})
}

func TestConsistency(t *testing.T) {
	Convey("Given reported plates", t, func() {
		Convey("When two vision sources and OCR agree after normalization", func() {
			v := reconcile.Reconcile([]model.RecognitionOutcome{
				outcome(model.SourcePlateFocus, model.StatusSuccess, "12가3456"),
				outcome(model.SourceDamageFocus, model.StatusSuccess, "12가 3456"),
				outcome(model.SourcePrecisionOCR, model.StatusSuccess, "12가3456"),
			})

			Convey("Then the verdict is consistent", func() {
				So(v.Consistency, ShouldEqual, model.Consistent)
				So(v.PlateDistance, ShouldEqual, 0)
			})
		})

		Convey("When only one source reports a plate", func() {
			v := reconcile.Reconcile([]model.RecognitionOutcome{
				outcome(model.SourcePlateFocus, model.StatusSuccess, "34나5678"),
				outcome(model.SourceDamageFocus, model.StatusSuccess, ""),
				recognition.Skipped(model.SourcePrecisionOCR, "standard tier"),
			})

			Convey("Then the verdict is indeterminate", func() {
				So(v.Consistency, ShouldEqual, model.Indeterminate)
			})
		})

		Convey("When no source reports a plate", func() {
			v := reconcile.Reconcile([]model.RecognitionOutcome{
				recognition.Failed(model.SourcePlateFocus, nil),
				recognition.Failed(model.SourceDamageFocus, nil),
			})

			Convey("Then the verdict is indeterminate", func() {
				So(v.Consistency, ShouldEqual, model.Indeterminate)
				So(v.VehicleDetected, ShouldBeTrue)
			})
		})

		Convey("When plates differ by one character", func() {
			v := reconcile.Reconcile([]model.RecognitionOutcome{
				outcome(model.SourcePlateFocus, model.StatusSuccess, "12가3456"),
				outcome(model.SourceDamageFocus, model.StatusSuccess, "12가3458"),
			})

			Convey("Then the near miss is inconsistent and the distance is reported", func() {
				So(v.Consistency, ShouldEqual, model.Inconsistent)
				So(v.PlateDistance, ShouldEqual, 1)
			})
		})

		Convey("When two of three plates agree", func() {
			v := reconcile.Reconcile([]model.RecognitionOutcome{
				outcome(model.SourcePlateFocus, model.StatusSuccess, "12가3456"),
				outcome(model.SourceDamageFocus, model.StatusSuccess, "12가3456"),
				outcome(model.SourcePrecisionOCR, model.StatusSuccess, "123가4567"),
			})

			Convey("Then it is still inconsistent", func() {
				So(v.Consistency, ShouldEqual, model.Inconsistent)
				So(v.PlateDistance, ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestPlates(t *testing.T) {
	Convey("Plates keeps only non-null plates in outcome order", t, func() {
		got := reconcile.Plates([]model.RecognitionOutcome{
			outcome(model.SourcePlateFocus, model.StatusSuccess, "서울 34나 5678"),
			outcome(model.SourceDamageFocus, model.StatusDamageIssue, ""),
			outcome(model.SourcePrecisionOCR, model.StatusSuccess, "12가3456"),
		})
		So(got, ShouldResemble, []string{"서울34나5678", "12가3456"})
		So(reconcile.MaxDistance(nil), ShouldEqual, 0)
	})
}
