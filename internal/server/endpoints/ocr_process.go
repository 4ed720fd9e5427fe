package endpoints

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/retrodraw/retrodraw/internal/api"
	"github.com/retrodraw/retrodraw/internal/ocr"
	"github.com/retrodraw/retrodraw/internal/svcctx"
)

// ProcessResponse is the terminal success of one recognition request.
type ProcessResponse struct {
	Text       string    `json:"text"`
	MethodUsed string    `json:"method_used"`
	PageCount  int       `json:"page_count"`
	ElapsedMS  int64     `json:"elapsed_ms"`
	Trace      ocr.Trace `json:"trace"`
	RequestID  string    `json:"request_id"`
}

// ProcessFailureResponse is returned when every recognition method was
// attempted or skipped and none produced text.
type ProcessFailureResponse struct {
	Error string    `json:"error"`
	Trace ocr.Trace `json:"trace"`
}

// ProcessEndpoint handles POST /api/ocr/process with a multipart upload.
type ProcessEndpoint struct{}

var _ api.Endpoint = (*ProcessEndpoint)(nil)

func (e *ProcessEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/ocr/process", e.handler
}

func (e *ProcessEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Extract text from a document
//	@Description	Upload a PDF or image and extract its text through the recognition fallback chain
//	@Tags			ocr
//	@Accept			mpfd
//	@Produce		json
//	@Param			file		formData	file	true	"PDF or image to process"
//	@Param			languages	formData	string	false	"Comma-separated language codes (default from config)"
//	@Param			method		formData	string	false	"Recognition method override (text_layer, local, remote, cascade)"
//	@Param			quality		formData	string	false	"Cost/accuracy bias: fast, balanced, accurate"
//	@Param			model		formData	string	false	"Pin the first remote model to try"
//	@Param			no_fallback	formData	bool	false	"Restrict execution to the primary method"
//	@Success		200	{object}	ProcessResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		422	{object}	ProcessFailureResponse
//	@Failure		500	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/ocr/process [post]
func (e *ProcessEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 100 << 20 // 100MB
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
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

	svc := svcctx.OCRFrom(r.Context())
	if svc == nil {
		writeError(w, http.StatusServiceUnavailable, "recognition service not initialized")
		return
	}

	languages := splitLanguages(r.FormValue("languages"))
	if len(languages) == 0 {
		if cm := svcctx.ConfigFrom(r.Context()); cm != nil {
			languages = cm.Get().Languages
		}
	}

	req := ocr.Request{
		Data:       data,
		MIMEType:   uploadMIMEType(header.Header.Get("Content-Type"), header.Filename),
		Languages:  languages,
		Method:     r.FormValue("method"),
		Quality:    r.FormValue("quality"),
		Model:      r.FormValue("model"),
		NoFallback: r.FormValue("no_fallback") == "true",
	}

	result, err := svc.Process(r.Context(), req)
	if err != nil {
		var exhausted *ocr.ExhaustedError
		if errors.As(err, &exhausted) {
			writeJSON(w, http.StatusUnprocessableEntity, ProcessFailureResponse{
				Error: exhausted.Error(),
				Trace: exhausted.Trace,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("processing failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, ProcessResponse{
		Text:       result.Text,
		MethodUsed: string(result.Method),
		PageCount:  result.PageCount,
		ElapsedMS:  result.Elapsed.Milliseconds(),
		Trace:      result.Trace,
		RequestID:  result.RequestID,
	})
}

func (e *ProcessEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		languages  string
		method     string
		quality    string
		model      string
		noFallback bool
	)

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Extract text from a PDF or image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			fields := map[string]string{
				"languages": languages,
				"method":    method,
				"quality":   quality,
				"model":     model,
			}
			if noFallback {
				fields["no_fallback"] = "true"
			}

			client := api.NewClient(getServerURL())
			var resp ProcessResponse
			if err := client.PostFile(cmd.Context(), "/api/ocr/process", filepath.Base(args[0]), data, fields, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}

	cmd.Flags().StringVar(&languages, "languages", "", "comma-separated language codes (e.g. rus,eng)")
	cmd.Flags().StringVar(&method, "method", "", "recognition method override (text_layer, local, remote, cascade)")
	cmd.Flags().StringVar(&quality, "quality", "", "cost/accuracy bias: fast, balanced, accurate")
	cmd.Flags().StringVar(&model, "model", "", "pin the first remote model to try")
	cmd.Flags().BoolVar(&noFallback, "no-fallback", false, "restrict execution to the primary method")
	return cmd
}

// splitLanguages parses a comma-separated language list, dropping blanks.
func splitLanguages(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// uploadMIMEType settles the document MIME type: the part's declared
// Content-Type when present, the filename extension otherwise.
func uploadMIMEType(declared, filename string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		return byExt
	}
	return declared
}
