package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/retrodraw/retrodraw/internal/analyze"
	"github.com/retrodraw/retrodraw/internal/api"
	"github.com/retrodraw/retrodraw/internal/svcctx"
)

// AnalyzeEndpoint handles POST /api/drawings/analyze: structured
// extraction of materials, standards, roughness, fits and heat
// treatment from a drawing image.
type AnalyzeEndpoint struct{}

var _ api.Endpoint = (*AnalyzeEndpoint)(nil)

func (e *AnalyzeEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/drawings/analyze", e.handler
}

func (e *AnalyzeEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Analyze a drawing image
//	@Description	Extract structured data (materials, standards, Ra values, fits, heat treatment) from a drawing
//	@Tags			drawings
//	@Accept			mpfd
//	@Produce		json
//	@Param			file	formData	file	true	"Drawing image"
//	@Param			model	formData	string	false	"Pin the first remote model to try"
//	@Success		200	{object}	analyze.Analysis
//	@Failure		400	{object}	ErrorResponse
//	@Failure		502	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/drawings/analyze [post]
func (e *AnalyzeEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 50 << 20 // 50MB
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read file: %v", err))
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "uploaded file is empty")
		return
	}

	analyzer := svcctx.AnalyzerFrom(r.Context())
	if analyzer == nil || !analyzer.Available() {
		writeError(w, http.StatusServiceUnavailable, "drawing analyzer not available: no remote vision provider configured")
		return
	}

	result, err := analyzer.Analyze(r.Context(), data, r.FormValue("model"))
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("analysis failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (e *AnalyzeEndpoint) Command(getServerURL func() string) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Extract structured data from a drawing image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			client := api.NewClient(getServerURL())
			var resp analyze.Analysis
			fields := map[string]string{"model": model}
			if err := client.PostFile(cmd.Context(), "/api/drawings/analyze", filepath.Base(args[0]), data, fields, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "pin the first remote model to try")
	return cmd
}
