package batchrun_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/platecheck/internal/access"
	"github.com/okian/platecheck/internal/adapters/vision"
	service "github.com/okian/platecheck/internal/app"
	"github.com/okian/platecheck/internal/batchrun"
	"github.com/okian/platecheck/internal/domain/model"
	"github.com/okian/platecheck/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func writeFiles(dir string, names ...string) {
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("data "+n), 0o600); err != nil {
			panic(err)
		}
	}
}

func TestScan(t *testing.T) {
	Convey("Given a directory with mixed files", t, func() {
		dir := t.TempDir()
		writeFiles(dir, "b.PNG", "a.jpg", "c.webp", "notes.txt", "d.jpeg")
		So(os.Mkdir(filepath.Join(dir, "nested.jpg"), 0o750), ShouldBeNil)

		Convey("When it is scanned", func() {
			images, err := batchrun.Scan(dir)

			Convey("Then only images are returned in name order", func() {
				So(err, ShouldBeNil)
				names := make([]string, len(images))
				for i, img := range images {
					names[i] = img.FileName
				}
				So(names, ShouldResemble, []string{"a.jpg", "b.PNG", "c.webp", "d.jpeg"})
				So(images[1].MIMEType, ShouldEqual, "image/png")
				So(images[0].Ref, ShouldNotBeEmpty)
			})
		})

		Convey("When the directory does not exist", func() {
			_, err := batchrun.Scan(filepath.Join(dir, "missing"))
			So(err, ShouldNotBeNil)
		})
	})
}

type stoppingProcessor struct {
	inner batchrun.Processor
	err   error
}

func (p stoppingProcessor) ProcessBatch(ctx context.Context, images []model.Image, tier model.ModelTier) ([]*model.ComparisonRecord, error) {
	recs, _ := p.inner.ProcessBatch(ctx, images[:1], tier)
	return recs, p.err
}

func TestRun(t *testing.T) {
	Convey("Given a directory of images and the stub provider", t, func() {
		dir := t.TempDir()
		writeFiles(dir, "2.jpg", "1.jpg")
		out := filepath.Join(t.TempDir(), "reports", "history.csv")
		svc := service.New(service.WithVisionProvider(vision.NewStatic("12가3456")), service.WithLogger(logger.Nop()))
		gate, err := access.NewGate("")
		So(err, ShouldBeNil)
		var printed bytes.Buffer

		Convey("When the run completes", func() {
			stats, err := batchrun.Run(context.Background(), &batchrun.Config{Dir: dir, Output: out}, svc, gate, &printed)

			Convey("Then every image is summarized and exported", func() {
				So(err, ShouldBeNil)
				So(stats.Images, ShouldEqual, 2)
				So(stats.Consistent, ShouldEqual, 2)
				So(stats.Output, ShouldEqual, out)

				lines := strings.Split(strings.TrimSpace(printed.String()), "\n")
				So(lines, ShouldHaveLength, 2)
				So(lines[0], ShouldStartWith, "1.jpg")
				So(lines[0], ShouldContainSubstring, "OCR=-")

				csv, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				So(strings.Count(string(csv), "\n"), ShouldEqual, 3)
				So(string(csv), ShouldContainSubstring, "12가3456")
			})
		})

		Convey("When a premium password is given without a configured gate", func() {
			_, err := batchrun.Run(context.Background(), &batchrun.Config{Dir: dir, Output: out, PremiumPassword: "pw"}, svc, gate, &printed)

			So(errors.Is(err, access.ErrPremiumDisabled), ShouldBeTrue)
		})

		Convey("When the directory has no images", func() {
			_, err := batchrun.Run(context.Background(), &batchrun.Config{Dir: t.TempDir(), Output: out}, svc, gate, &printed)

			So(errors.Is(err, batchrun.ErrNoImages), ShouldBeTrue)
		})

		Convey("When processing stops early", func() {
			p := stoppingProcessor{inner: svc, err: context.Canceled}
			stats, err := batchrun.Run(context.Background(), &batchrun.Config{Dir: dir, Output: out, Verbose: true}, p, gate, &printed)

			Convey("Then the partial result is still exported", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(stats.Images, ShouldEqual, 1)
				So(printed.String(), ShouldContainSubstring, "plate_focus: success")
				_, statErr := os.Stat(out)
				So(statErr, ShouldBeNil)
			})
		})
	})
}
