package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/retrodraw/retrodraw/internal/api"
	"github.com/retrodraw/retrodraw/internal/ocr"
	"github.com/retrodraw/retrodraw/internal/svcctx"
)

// MethodInfo describes one recognition method and its availability.
type MethodInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
}

// TierInfo lists the configured remote model tiers in cascade order.
type TierInfo struct {
	Specialized []string `json:"specialized"`
	General     []string `json:"general"`
	Budget      []string `json:"budget"`
}

// MethodsResponse lists the recognition methods a process request can
// name in its method field, the quality levels, and the model tiers.
type MethodsResponse struct {
	Methods   []MethodInfo `json:"methods"`
	Qualities []string     `json:"qualities"`
	Tiers     *TierInfo    `json:"tiers,omitempty"`
}

// MethodsEndpoint handles GET /api/ocr/methods.
type MethodsEndpoint struct{}

var _ api.Endpoint = (*MethodsEndpoint)(nil)

func (e *MethodsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/ocr/methods", e.handler
}

func (e *MethodsEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		List recognition methods
//	@Description	List the methods a process request can select and whether each is currently usable
//	@Tags			ocr
//	@Produce		json
//	@Success		200	{object}	MethodsResponse
//	@Router			/api/ocr/methods [get]
func (e *MethodsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var caps ocr.Capabilities
	if svc := svcctx.OCRFrom(r.Context()); svc != nil {
		caps = svc.Capabilities(true)
	}

	resp := MethodsResponse{
		Methods: []MethodInfo{
			{
				Name:        "auto",
				Description: "Classify the document and pick the best method automatically",
				Available:   caps.Any(),
			},
			{
				Name:        string(ocr.KindTextLayer),
				Description: "Read the embedded text layer of vector PDFs",
				Available:   caps.TextLayer,
			},
			{
				Name:        string(ocr.KindLocalEngine),
				Description: "Local Tesseract engine with preprocessing retries",
				Available:   caps.Local,
			},
			{
				Name:        string(ocr.KindRemoteModel),
				Description: "Remote vision models with the tiered fallback cascade",
				Available:   caps.Remote,
			},
			{
				Name:        string(ocr.KindRemoteThenLocal),
				Description: "Remote vision models first, local engine as fallback",
				Available:   caps.Remote || caps.Local,
			},
		},
		Qualities: []string{
			string(ocr.QualityFast),
			string(ocr.QualityBalanced),
			string(ocr.QualityAccurate),
		},
	}

	if cm := svcctx.ConfigFrom(r.Context()); cm != nil {
		remote := cm.Get().Remote
		resp.Tiers = &TierInfo{
			Specialized: remote.Specialized,
			General:     remote.General,
			Budget:      remote.Budget,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *MethodsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List available recognition methods",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp MethodsResponse
			if err := client.Get(cmd.Context(), "/api/ocr/methods", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
