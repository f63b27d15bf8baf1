package web

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	appLog "gigcal/internal/log"
	"gigcal/internal/printout"
)

// Print ranges are capped so a typo'd query can't render months of
// grids through Chromium.
const maxPrintDays = 31

// printTemplate renders the printable schedule, one grid per day. The
// root element carries data-ready="true" so the PDF renderer knows the
// page is complete (server-side rendering finishes before the first
// byte, but the marker keeps the wait condition uniform with dynamic
// pages).
var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.BandName}} schedule</title>
<style>
  body { font-family: sans-serif; margin: 24px; color: #111; }
  h1 { font-size: 20px; margin: 0 0 4px; }
  h2 { font-size: 14px; margin: 20px 0 6px; }
  .sub { color: #555; margin-bottom: 16px; }
  .day { page-break-inside: avoid; }
  .grid { position: relative; border-left: 1px solid #ddd; height: {{.GridHeight}}px; }
  .hour { position: absolute; left: 0; right: 0; border-top: 1px solid #eee;
          font-size: 10px; color: #999; padding-left: 2px; }
  .block { position: absolute; border-radius: 3px; padding: 2px 4px;
           font-size: 11px; overflow: hidden; box-sizing: border-box;
           border: 1px solid rgba(0,0,0,0.15); }
  .allday { margin-bottom: 8px; font-size: 12px; }
  .allday span { padding: 2px 6px; border-radius: 3px; margin-right: 6px; }
  table { margin-top: 12px; border-collapse: collapse; font-size: 12px; width: 100%; }
  th, td { text-align: left; padding: 4px 8px; border-bottom: 1px solid #eee; }
</style>
</head>
<body data-ready="true">
<h1>{{.BandName}}</h1>
<div class="sub">{{.From}} to {{.To}} ({{.Timezone}})</div>

{{range .Days}}<div class="day">
<h2>{{.WeekDay}}, {{.Date}}</h2>

{{if .AllDay}}<div class="allday">
{{range .AllDay}}<span style="background:{{.BackgroundColor}};color:{{.TextColor}}">{{.Title}}</span>{{end}}
</div>{{end}}

<div class="grid">
{{range .Hours}}<div class="hour" style="top:{{.Top}}px">{{.Label}}</div>
{{end}}
{{range .Items}}<div class="block" style="top:{{.Top}}px;height:{{.Height}}px;left:{{.LeftPct}}%;width:{{.WidthPct}}%;background:{{.BackgroundColor}};color:{{.TextColor}};border-left:3px solid {{.AccentColor}}">
  <strong>{{.Title}}</strong>{{if .Location}}<br>{{.Location}}{{end}}
</div>
{{end}}
</div>

{{if .Items}}<table>
<tr><th>Time</th><th>Title</th><th>Location</th><th>Status</th></tr>
{{range .Items}}<tr><td>{{.TimeLabel}}</td><td>{{.Title}}</td><td>{{.Location}}</td><td>{{.Status}}</td></tr>
{{end}}
</table>{{end}}
</div>
{{end}}
</body>
</html>
`))

type printHour struct {
	Top   float64
	Label string
}

type printItem struct {
	scheduleItemDTO
	LeftPct   float64
	WidthPct  float64
	TimeLabel string
}

type printDay struct {
	Date    string
	WeekDay string
	Hours   []printHour
	AllDay  []scheduleItemDTO
	Items   []printItem
}

type printData struct {
	BandName   string
	From       string
	To         string
	Timezone   string
	GridHeight float64
	Days       []printDay
}

// printRange resolves the requested date range: from/to, a single
// date=, or today.
func (s *Server) printRange(r *http.Request) (from, to time.Time, err error) {
	q := r.URL.Query()
	fromStr := q.Get("from")
	toStr := q.Get("to")
	if fromStr == "" && toStr == "" {
		date := q.Get("date")
		if date == "" {
			date = time.Now().In(s.loc).Format("2006-01-02")
		}
		fromStr, toStr = date, date
	}
	if fromStr == "" {
		fromStr = toStr
	}
	if toStr == "" {
		toStr = fromStr
	}

	from, err = time.ParseInLocation("2006-01-02", fromStr, s.loc)
	if err != nil {
		return from, to, fmt.Errorf("invalid from date %q", fromStr)
	}
	to, err = time.ParseInLocation("2006-01-02", toStr, s.loc)
	if err != nil {
		return from, to, fmt.Errorf("invalid to date %q", toStr)
	}
	if to.Before(from) {
		return from, to, fmt.Errorf("to is before from")
	}
	if to.Sub(from) > maxPrintDays*24*time.Hour {
		return from, to, fmt.Errorf("range exceeds %d days", maxPrintDays)
	}
	return from, to, nil
}

// handlePrintSchedule renders the server-side printable view that the
// PDF endpoint screenshots.
func (s *Server) handlePrintSchedule(w http.ResponseWriter, r *http.Request) {
	from, to, err := s.printRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data := printData{
		BandName: s.cfg.BandName,
		From:     from.Format("2006-01-02"),
		To:       to.Format("2006-01-02"),
		Timezone: s.loc.String(),
	}

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		date := day.Format("2006-01-02")
		resp, err := s.buildSchedule(r, day, date, false)
		if err != nil {
			appLog.Error("print schedule build failed", err, "date", date)
			writeError(w, http.StatusInternalServerError, "failed to build schedule")
			return
		}
		data.GridHeight = float64(resp.WindowEndMinutes-resp.WindowStartMinutes) / 60 * resp.PixelsPerHour
		data.Days = append(data.Days, buildPrintDay(resp))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := printTemplate.Execute(w, data); err != nil {
		appLog.Error("print template failed", err)
	}
}

func buildPrintDay(resp scheduleResponse) printDay {
	day := printDay{
		Date:    resp.Date,
		WeekDay: resp.WeekDay,
		AllDay:  resp.AllDay,
	}
	for m := resp.WindowStartMinutes; m < resp.WindowEndMinutes; m += 60 {
		day.Hours = append(day.Hours, printHour{
			Top:   float64(m-resp.WindowStartMinutes) / 60 * resp.PixelsPerHour,
			Label: fmt.Sprintf("%02d:00", m/60),
		})
	}
	for _, it := range resp.Items {
		cols := it.TotalColumns
		if cols <= 0 {
			cols = 1
		}
		width := 100.0 / float64(cols)
		day.Items = append(day.Items, printItem{
			scheduleItemDTO: it,
			LeftPct:         width * float64(it.Column),
			WidthPct:        width,
			TimeLabel: fmt.Sprintf("%02d:%02d-%02d:%02d",
				it.StartMinutes/60, it.StartMinutes%60, it.EndMinutes/60, it.EndMinutes%60),
		})
	}
	return day
}

// handlePrintoutPDF renders the printable view through headless
// Chromium and returns the PDF.
func (s *Server) handlePrintoutPDF(w http.ResponseWriter, r *http.Request) {
	from, to, err := s.printRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fromStr := from.Format("2006-01-02")
	toStr := to.Format("2006-01-02")

	target := fmt.Sprintf("http://%s/print/schedule?%s", s.cfg.Listen, url.Values{
		"from": {fromStr},
		"to":   {toStr},
	}.Encode())
	pdf, err := printout.RenderPDF(r.Context(), printout.Options{
		URL:       target,
		Landscape: r.URL.Query().Get("landscape") == "1",
	})
	if err != nil {
		appLog.Error("pdf render failed", err, "from", fromStr, "to", toStr)
		writeError(w, http.StatusInternalServerError, "failed to render PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="schedule-%s.pdf"`, fromStr))
	if _, err := w.Write(pdf); err != nil {
		appLog.Error("pdf write failed", err)
	}
}
