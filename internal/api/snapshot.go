package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/mipicam/internal/capture"
)

// SnapshotInput selects the image encoding.
type SnapshotInput struct {
	Format string `query:"format" default:"jpeg" enum:"jpeg,jpg,png,bmp,tiff,tif" doc:"Image encoding"`
}

// SnapshotOutput is the encoded latest frame.
type SnapshotOutput struct {
	ContentType string `header:"Content-Type"`
	Sequence    string `header:"X-Frame-Sequence"`
	Body        []byte
}

func (s *Server) registerSnapshotRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-snapshot",
		Method:      http.MethodGet,
		Path:        "/api/snapshot",
		Summary:     "Snapshot",
		Description: "Encode the most recent converted frame",
		Tags:        []string{"capture"},
		Security:    withAuth(),
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Encoded frame",
				Content: map[string]*huma.MediaType{
					"image/jpeg": {}, "image/png": {}, "image/bmp": {}, "image/tiff": {},
				},
			},
		},
	}, func(_ context.Context, input *SnapshotInput) (*SnapshotOutput, error) {
		if s.latest == nil {
			return nil, huma.Error503ServiceUnavailable("Capture is not running")
		}
		img, seq, _ := s.latest.Load()
		if img == nil {
			return nil, huma.Error503ServiceUnavailable("No frame captured yet")
		}

		format, err := capture.NormalizeFormat(input.Format)
		if err != nil {
			return nil, huma.Error400BadRequest("Unsupported format", err)
		}
		var buf bytes.Buffer
		if err := capture.Encode(&buf, img, format); err != nil {
			return nil, huma.Error500InternalServerError("Failed to encode frame", err)
		}
		return &SnapshotOutput{
			ContentType: capture.ContentType(format),
			Sequence:    strconv.FormatUint(seq, 10),
			Body:        buf.Bytes(),
		}, nil
	})
}
