package export

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qadash/whiteboard/internal/document"
	"github.com/qadash/whiteboard/internal/engine"
	"github.com/qadash/whiteboard/internal/store"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want rgb
		ok   bool
	}{
		{"#ff8000", rgb{255, 128, 0}, true},
		{"#fff", rgb{255, 255, 255}, true},
		{"1f2937", rgb{31, 41, 55}, true},
		{"transparent", rgb{}, false},
		{"", rgb{}, false},
		{"#12345", rgb{}, false},
		{"#zzzzzz", rgb{}, false},
	}
	for _, tt := range tests {
		got, ok := parseColor(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestDrawingBoundsSkipsSelection(t *testing.T) {
	box, ok := drawingBounds([]engine.DrawCommand{
		{Op: engine.OpRect, X: 10, Y: 20, Width: 30, Height: 40},
		{Op: engine.OpLine, Points: []float64{100, 0, 50, 10}},
		{Op: engine.OpSelection, X: -500, Y: -500, Width: 10, Height: 10},
	})
	require.True(t, ok)
	assert.Equal(t, engine.Rect{X: 10, Y: 0, Width: 90, Height: 60}, box)

	_, ok = drawingBounds(nil)
	assert.False(t, ok)
}

func TestWritePDF(t *testing.T) {
	scene := document.NewSampleScene("user_1")
	var buf bytes.Buffer
	err := WritePDF(&buf, engine.CompileDrawCommands(scene, nil), PDFOptions{
		Title:     "sample",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	buf.Reset()
	require.NoError(t, WritePDF(&buf, nil, PDFOptions{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestExportHandler(t *testing.T) {
	mem := store.NewMemory()
	require.NoError(t, mem.Save(context.Background(), "board_1", document.NewSampleScene("u").Snapshot(1, time.Now())))

	r := mux.NewRouter()
	r.HandleFunc("/api/boards/{boardId}/export.pdf", NewHandler(mem, nil).ExportPDF)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/boards/board_1/export.pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="board_1.pdf"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/boards/missing/export.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClampOpacity(t *testing.T) {
	assert.Equal(t, 0.0, clampOpacity(-0.5))
	assert.Equal(t, 0.0, clampOpacity(0))
	assert.Equal(t, 0.4, clampOpacity(0.4))
	assert.Equal(t, 1.0, clampOpacity(1.5))
}

func TestTransparentElementStaysTransparent(t *testing.T) {
	scene := document.NewScene(document.NewElement("a", 0, 0, &document.Rect{Width: 20, Height: 20}))
	e := engine.New(scene, engine.Config{})
	defer e.Close(context.Background())

	zero := 0.0
	require.NoError(t, e.SetElementStyle("a", engine.StylePatch{Opacity: &zero}))

	cmds := engine.CompileDrawCommands(e.Scene(), nil)
	require.Len(t, cmds, 1)
	assert.Equal(t, 0.0, clampOpacity(cmds[0].Opacity))

	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, cmds, PDFOptions{Title: "clear"}))
	assert.NotZero(t, buf.Len())
}
