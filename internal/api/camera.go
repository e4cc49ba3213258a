package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/mipicam/internal/api/models"
	"github.com/smazurov/mipicam/internal/arducam"
	"github.com/smazurov/mipicam/internal/negotiate"
	"github.com/smazurov/mipicam/pkg/linuxav/v4l2"
)

// FrameSizesInput selects the format to list sizes for.
type FrameSizesInput struct {
	FourCC string `path:"fourcc" example:"Y16" minLength:"3" maxLength:"4" doc:"Pixel format as a 3 or 4 character code"`
}

func (s *Server) registerCameraRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-device",
		Method:      http.MethodGet,
		Path:        "/api/device",
		Summary:     "Device",
		Description: "Describe the open capture device, its active format and bridge firmware",
		Tags:        []string{"device"},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.DeviceResponse, error) {
		caps, err := s.camera.Capability()
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to query device capabilities", err)
		}
		pf, err := s.camera.Format()
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to read active format", err)
		}

		data := models.DeviceData{
			SessionID:    s.camera.ID(),
			DevicePath:   s.camera.Path(),
			DeviceName:   caps.DeviceName,
			Driver:       caps.Driver,
			BusInfo:      caps.BusInfo,
			Capabilities: translateCapabilities(caps.Caps),
			Platform:     s.camera.Platform(),
			ActiveFormat: models.PixFormat{
				Width:        pf.Width,
				Height:       pf.Height,
				PixelFormat:  v4l2.FormatFourCC(pf.PixelFormat),
				FormatName:   v4l2.FourCCName(pf.PixelFormat),
				BytesPerLine: pf.BytesPerLine,
				SizeImage:    pf.SizeImage,
			},
		}
		if info, err := s.camera.Info(); err != nil {
			data.FirmwareError = err.Error()
		} else {
			data.Firmware = firmwareModel(info)
		}
		return &models.DeviceResponse{Body: data}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-formats",
		Method:      http.MethodGet,
		Path:        "/api/formats",
		Summary:     "Formats",
		Description: "List the pixel formats the device advertises",
		Tags:        []string{"device"},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.FormatsResponse, error) {
		formats, err := s.camera.Formats()
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to enumerate formats", err)
		}
		table := s.camera.Table()
		out := make([]models.FormatInfo, 0, len(formats))
		for _, f := range formats {
			_, covered := table.Lookup(f.PixelFormat)
			if !covered {
				_, covered = negotiate.Raw8Table().Lookup(f.PixelFormat)
			}
			out = append(out, models.FormatInfo{
				Index:       f.Index,
				PixelFormat: v4l2.FormatFourCC(f.PixelFormat),
				Description: f.Description,
				Emulated:    f.Emulated,
				HasPolicy:   covered,
			})
		}
		return &models.FormatsResponse{Body: models.FormatsData{Formats: out, Count: len(out)}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-frame-sizes",
		Method:      http.MethodGet,
		Path:        "/api/formats/{fourcc}/sizes",
		Summary:     "Frame sizes",
		Description: "List the frame sizes offered for a pixel format",
		Tags:        []string{"device"},
		Security:    withAuth(),
	}, func(_ context.Context, input *FrameSizesInput) (*models.FrameSizesResponse, error) {
		pf, err := v4l2.ParseFourCC(input.FourCC)
		if err != nil {
			return nil, huma.Error400BadRequest("Invalid pixel format", err)
		}
		sizes, err := s.camera.FrameSizes(pf)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to enumerate frame sizes", err)
		}
		out := make([]models.Resolution, len(sizes))
		for i, r := range sizes {
			out[i] = models.Resolution{Width: r.Width, Height: r.Height}
		}
		return &models.FrameSizesResponse{Body: models.FrameSizesData{
			PixelFormat: v4l2.FormatFourCC(pf),
			Sizes:       out,
			Count:       len(out),
		}}, nil
	})
}

func firmwareModel(info arducam.Info) *models.FirmwareInfo {
	return &models.FirmwareInfo{
		FirmwareVersion:  info.FirmwareVersion,
		FirmwareSensorID: info.FirmwareSensorID,
		SensorID:         info.SensorID,
		SerialNumber:     info.SerialNumber,
		SerialHex:        fmt.Sprintf("0x%08X", info.SerialNumber),
	}
}
