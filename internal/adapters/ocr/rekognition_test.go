package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/okian/platecheck/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeDetectText struct {
	in  *rekognition.DetectTextInput
	out *rekognition.DetectTextOutput
	err error
}

func (f *fakeDetectText) DetectText(_ context.Context, in *rekognition.DetectTextInput, _ ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestRekognition(t *testing.T) {
	img := model.Image{Data: []byte("jpeg")}

	Convey("Given a Rekognition adapter over a fake client", t, func() {
		fake := &fakeDetectText{}
		r := &Rekognition{api: fake}
		So(r.Name(), ShouldEqual, "rekognition")

		Convey("When lines and words are detected", func() {
			fake.out = &rekognition.DetectTextOutput{TextDetections: []types.TextDetection{
				{Type: types.TextTypesLine, DetectedText: aws.String("12가 3456")},
				{Type: types.TextTypesWord, DetectedText: aws.String("12가")},
				{Type: types.TextTypesLine, DetectedText: aws.String("  ")},
				{Type: types.TextTypesLine, DetectedText: aws.String("HYUNDAI")},
			}}
			text, err := r.ReadText(context.Background(), img)

			Convey("Then only non-empty lines are joined", func() {
				So(err, ShouldBeNil)
				So(text.Text, ShouldEqual, "12가 3456 HYUNDAI")
				So(string(fake.in.Image.Bytes), ShouldEqual, "jpeg")
			})
		})

		Convey("When the call fails", func() {
			fake.err = errors.New("throttled")
			_, err := r.ReadText(context.Background(), img)

			Convey("Then the error is wrapped", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "throttled")
			})
		})
	})
}
