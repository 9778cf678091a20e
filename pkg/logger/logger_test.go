package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/okian/platecheck/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			err := logger.Init()

			Convey("Then Get returns a usable logger", func() {
				So(err, ShouldBeNil)
				So(logger.Get(), ShouldNotBeNil)
				So(logger.Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with an unknown format", func() {
			err := logger.Init(logger.WithFormat("xml"))

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerJSONOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(logger.Init(logger.WithFormat("json"), logger.WithOutput(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			logger.Named("pipeline").Info(ctx, "record built",
				logger.String("plate", "12가3456"),
				logger.Bool("vehicle", true),
				logger.Error(errors.New("boom")),
			)

			Convey("Then the entry carries every field", func() {
				var entry map[string]any
				So(json.Unmarshal(buf.Bytes(), &entry), ShouldBeNil)
				So(entry["msg"], ShouldEqual, "record built")
				So(entry["component"], ShouldEqual, "pipeline")
				So(entry["plate"], ShouldEqual, "12가3456")
				So(entry["vehicle"], ShouldEqual, true)
				So(entry["error"], ShouldEqual, "boom")
				So(entry["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level filters debug output", func() {
			So(logger.SetLevelString("warn"), ShouldBeNil)
			logger.Get().Debug(ctx, "hidden")
			logger.Get().Info(ctx, "hidden too")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
			So(logger.SetLevelString("info"), ShouldBeNil)
		})

		Reset(func() {
			So(logger.Init(), ShouldBeNil)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(logger.Init(), ShouldBeNil)
		for _, lvl := range []string{"debug", "INFO", "", "warning", "error"} {
			So(logger.SetLevelString(lvl), ShouldBeNil)
		}
		err := logger.SetLevelString("verbose")
		So(err, ShouldNotBeNil)
		So(strings.Contains(err.Error(), "verbose"), ShouldBeTrue)
		So(logger.SetLevelString("info"), ShouldBeNil)
	})
}

func TestNop(t *testing.T) {
	Convey("Nop discards everything without panicking", t, func() {
		l := logger.Nop().Named("x").With(logger.Int("n", 1))
		So(func() { l.Error(context.Background(), "dropped") }, ShouldNotPanic)
	})
}
