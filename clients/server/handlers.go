// handlers.go - HTTP handlers for rendering, exporting and uploads.

package server

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xob0t/GoPoster/pkg/exporter"
	"github.com/xob0t/GoPoster/pkg/layout"
	"github.com/xob0t/GoPoster/pkg/poster"
	"github.com/xob0t/GoPoster/pkg/typeface"
)

// PlaceholderHeader is set on image responses that carry the placeholder
// frame instead of a poster.
const PlaceholderHeader = "X-Poster-Placeholder"

const maxUploadBytes = 10 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func abort(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}

// Health reports liveness and whether the typeface has loaded.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"typeface": s.renderer.Gate().Ready(),
	})
}

// Layouts lists the layout variant names.
func (s *Server) Layouts(c *gin.Context) {
	names := make([]string, 0, len(layout.Variants()))
	for _, v := range layout.Variants() {
		names = append(names, v.String())
	}
	c.JSON(http.StatusOK, gin.H{"layouts": names, "default": layout.Modern.String()})
}

// CanvasPresets lists the named canvas sizes.
func (s *Server) CanvasPresets(c *gin.Context) {
	out := make(map[string]poster.Canvas, len(poster.Presets))
	for name, size := range poster.Presets {
		out[name] = poster.Canvas{Width: size[0], Height: size[1], Preset: name}
	}
	c.JSON(http.StatusOK, gin.H{"presets": out, "default": poster.DefaultPreset})
}

// Validate reports the fields of a descriptor that will fall back to defaults.
func (s *Server) Validate(c *gin.Context) {
	desc, ok := s.readDescriptor(c)
	if !ok {
		return
	}
	warnings := poster.Validate(desc)
	if warnings == nil {
		warnings = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"warnings": warnings})
}

// Render returns the encoded poster. Query: format, quality, layout.
func (s *Server) Render(c *gin.Context) {
	desc, opts, ok := s.renderRequest(c)
	if !ok {
		return
	}
	img, placeholder, ok := s.render(c, desc)
	if !ok {
		return
	}
	enc, err := exporter.Encode(img, opts)
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}

	status := http.StatusOK
	if placeholder {
		status = http.StatusServiceUnavailable
		c.Header(PlaceholderHeader, "true")
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="poster%s"`, enc.Format.Ext()))
	c.Data(status, enc.ContentType(), enc.Bytes)
}

type exportResponse struct {
	ID          string   `json:"id"`
	Format      string   `json:"format"`
	ContentType string   `json:"contentType"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Data        string   `json:"data"`
	Path        string   `json:"path,omitempty"`
	Warnings    []string `json:"warnings"`
}

// Export renders, waits for the frame to settle and returns it base64
// encoded. When an export directory is configured the file is saved too.
func (s *Server) Export(c *gin.Context) {
	desc, opts, ok := s.renderRequest(c)
	if !ok {
		return
	}
	img, placeholder, ok := s.render(c, desc)
	if !ok {
		return
	}
	if placeholder {
		abort(c, http.StatusServiceUnavailable, typeface.ErrUnavailable)
		return
	}

	enc, err := exporter.Snapshot(c.Request.Context(), exporter.StaticSource{Image: img}, opts)
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}

	resp := exportResponse{
		Format:      string(enc.Format),
		ContentType: enc.ContentType(),
		Width:       enc.Width,
		Height:      enc.Height,
		Data:        enc.Base64(),
		Warnings:    poster.Validate(desc),
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	if dir := s.cfg.Export.Dir; dir != "" {
		path, err := enc.WriteDir(dir)
		if err != nil {
			abort(c, http.StatusInternalServerError, err)
			return
		}
		resp.Path = path
		resp.ID = strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), "poster-"), enc.Format.Ext())
	} else if resp.ID, err = exporter.NewID(); err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// renderRequest reads the descriptor body and the output options.
func (s *Server) renderRequest(c *gin.Context) (poster.Descriptor, exporter.Options, bool) {
	format, err := exporter.ParseFormat(c.DefaultQuery("format", s.cfg.Render.Format))
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return poster.Descriptor{}, exporter.Options{}, false
	}
	quality := s.cfg.Render.Quality
	if q := c.Query("quality"); q != "" {
		if quality, err = strconv.Atoi(q); err != nil {
			abort(c, http.StatusBadRequest, fmt.Errorf("quality: %w", err))
			return poster.Descriptor{}, exporter.Options{}, false
		}
	}
	desc, ok := s.readDescriptor(c)
	if !ok {
		return poster.Descriptor{}, exporter.Options{}, false
	}
	return desc, exporter.Options{Format: format, Quality: exporter.Quality(quality)}, true
}

// readDescriptor decodes a JSON or YAML descriptor from the request body.
// A layout query parameter overrides the descriptor's layout.
func (s *Server) readDescriptor(c *gin.Context) (poster.Descriptor, bool) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.Server.MaxBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abort(c, http.StatusRequestEntityTooLarge, err)
			return poster.Descriptor{}, false
		}
		abort(c, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return poster.Descriptor{}, false
	}

	format := ""
	if strings.Contains(c.ContentType(), "yaml") {
		format = "yaml"
	}
	desc, err := poster.ParseDescriptor(data, format)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return poster.Descriptor{}, false
	}
	if l := c.Query("layout"); l != "" {
		desc.Layout = l
	}
	return desc, true
}

// render runs the renderer under the configured timeout. placeholder is
// true when the typeface failed and img is the placeholder frame.
func (s *Server) render(c *gin.Context, desc poster.Descriptor) (img image.Image, placeholder, ok bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.Server.RenderTimeout)
	defer cancel()

	out, err := s.renderer.Render(ctx, desc)
	switch {
	case err == nil:
		return out, false, true
	case errors.Is(err, typeface.ErrUnavailable) && out != nil:
		s.log.Warn("serving placeholder", zap.Error(err))
		return out, true, true
	case errors.Is(err, context.DeadlineExceeded):
		abort(c, http.StatusGatewayTimeout, err)
	default:
		abort(c, http.StatusInternalServerError, err)
	}
	return nil, false, false
}

// Upload stores a multipart "file" image and returns its upload:// ref.
func (s *Server) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		abort(c, http.StatusBadRequest, fmt.Errorf("no file: %w", err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		abort(c, http.StatusUnsupportedMediaType, fmt.Errorf("%s is %s, not an image", fh.Filename, mime))
		return
	}
	up, err := s.uploads.add(filepath.Base(fh.Filename), mime, data)
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":   up.ID,
		"name": up.Name,
		"ref":  UploadScheme + up.ID,
		"url":  "/api/uploads/" + up.ID,
	})
}

// ListUploads lists stored uploads.
func (s *Server) ListUploads(c *gin.Context) {
	c.JSON(http.StatusOK, s.uploads.list())
}

// GetUpload serves the raw bytes of an upload.
func (s *Server) GetUpload(c *gin.Context) {
	up, ok := s.uploads.get(c.Param("id"))
	if !ok {
		abort(c, http.StatusNotFound, fmt.Errorf("upload %q not found", c.Param("id")))
		return
	}
	c.Data(http.StatusOK, up.Mime, up.data)
}

// DeleteUpload forgets an upload. Posters already rendered from it keep
// their cached copy.
func (s *Server) DeleteUpload(c *gin.Context) {
	id := c.Param("id")
	if !s.uploads.remove(id) {
		abort(c, http.StatusNotFound, fmt.Errorf("upload %q not found", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}
