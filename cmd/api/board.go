package main

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hospital-shifts/scheduler/internal/middleware"
	"github.com/hospital-shifts/scheduler/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// BoardData feeds the public duty board page.
type BoardData struct {
	Month      string
	Generated  time.Time
	Entries    []models.DutyCalendarEntry
	OpenShifts []models.Shift
}

type boardRenderer struct {
	tmpl *template.Template
}

func newBoardRenderer() *boardRenderer {
	tmpl := template.Must(template.New("layout").Funcs(template.FuncMap{
		"json":     toJSON,
		"datetime": formatDateTime,
	}).ParseFS(templateFS, "templates/layout.html", "templates/board.html"))
	return &boardRenderer{tmpl: tmpl}
}

func toJSON(v any) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return template.JS(b)
}

func formatDateTime(dt models.DateTime) string {
	return dt.In(time.Local).Format("Mon 02 Jan 15:04")
}

func (r *boardRenderer) render(c *gin.Context, data any) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// handleBoard renders this month's duty calendar and the open shifts.
func (s *server) handleBoard(c *gin.Context) {
	ctx := c.Request.Context()
	entries, err := s.app.Calendar.ListByRange(ctx, nil, nil)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	open, err := s.app.Shifts.ListOpen(ctx)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	now := time.Now()
	s.board.render(c, BoardData{
		Month:      now.Format("January 2006"),
		Generated:  now,
		Entries:    entries,
		OpenShifts: open,
	})
}
