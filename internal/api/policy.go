package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/mipicam/internal/api/models"
	"github.com/smazurov/mipicam/internal/convert"
	"github.com/smazurov/mipicam/internal/negotiate"
	"github.com/smazurov/mipicam/pkg/linuxav/v4l2"
)

func (s *Server) registerPolicyRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-policy",
		Method:      http.MethodGet,
		Path:        "/api/policy",
		Summary:     "Active policy",
		Description: "Get the conversion policy applied to captured frames and how it was chosen",
		Tags:        []string{"policy"},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.PolicyResponse, error) {
		return &models.PolicyResponse{Body: s.policyData(s.camera.Decision())}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh-policy",
		Method:      http.MethodPost,
		Path:        "/api/policy/refresh",
		Summary:     "Refresh policy",
		Description: "Re-apply the preferred format and resolve the conversion policy again",
		Tags:        []string{"policy"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.PolicyResponse, error) {
		d, err := s.camera.Refresh(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Policy resolution failed", err)
		}
		return &models.PolicyResponse{Body: s.policyData(d)}, nil
	})
}

func (s *Server) policyData(d negotiate.Decision) models.PolicyData {
	candidates := make([]models.Candidate, len(d.Candidates))
	for i, c := range d.Candidates {
		candidates[i] = models.Candidate{
			Index:       c.Index,
			PixelFormat: fourCC(c.PixelFormat),
			Description: c.Description,
			Policy:      policyModel(c.Policy),
		}
	}
	return models.PolicyData{
		PixelFormat:     fourCC(d.PixelFormat),
		Source:          string(d.Source),
		Table:           d.Table,
		Policy:          policyModel(d.Policy),
		Candidates:      candidates,
		PreferredFormat: fourCC(s.camera.PreferredFormat()),
	}
}

func policyModel(p convert.Policy) models.Policy {
	return models.Policy{
		BitDepth:    p.BitDepth,
		ColorCode:   int(p.ColorCode),
		ColorName:   p.ColorCode.String(),
		PassThrough: p.PassThrough,
	}
}

func fourCC(pixelFormat uint32) string {
	if pixelFormat == 0 {
		return ""
	}
	return v4l2.FormatFourCC(pixelFormat)
}
