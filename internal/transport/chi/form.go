package chi

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartdesk/internal/logger"
)

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>SmartDesk</title>
<style>
body { font-family: sans-serif; max-width: 42rem; margin: 2rem auto; }
label { display: block; margin-top: .75rem; }
input, textarea { width: 100%; }
pre { white-space: pre-wrap; padding: .75rem; border-radius: 4px; }
.logs { background: #f3f3f3; }
.success { background: #e6f4ea; }
.error { background: #fce8e6; }
</style>
</head>
<body>
<h1>SmartDesk ticket triage</h1>
<form method="post" action="/">
<label>User ID <input name="user_id" value="{{.UserID}}"></label>
<label>Title <input name="title" value="{{.Title}}"></label>
<label>Description <textarea name="description" rows="4">{{.Description}}</textarea></label>
<button type="submit">Submit ticket</button>
</form>
{{if .Logs}}<h2>Log</h2>
<pre class="logs">{{range .Logs}}{{.}}
{{end}}</pre>{{end}}
{{if .Draft}}<h2>Solved</h2>
<pre class="success">{{.Draft}}</pre>{{end}}
{{if .Escalation}}<h2>Escalated</h2>
<pre class="error">{{.Escalation}}</pre>{{end}}
{{if .Error}}<pre class="error">{{.Error}}</pre>{{end}}
</body>
</html>
`))

type formView struct {
	UserID      string
	Title       string
	Description string
	Logs        []string
	Draft       string
	Escalation  string
	Error       string
}

// Form handles GET /: the ticket form with the default user prefilled.
func (s *Server) Form(w http.ResponseWriter, r *http.Request) {
	s.renderForm(w, r, http.StatusOK, formView{UserID: s.defaultUserID})
}

// SubmitForm handles POST /: triages the submitted ticket and renders the outcome.
func (s *Server) SubmitForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.renderForm(w, r, http.StatusBadRequest, formView{UserID: s.defaultUserID, Error: "Invalid form: " + err.Error()})
		return
	}

	view := formView{
		UserID:      r.PostForm.Get("user_id"),
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
	}

	t, err := s.newTicket(view.UserID, view.Title, view.Description)
	if err != nil {
		view.Error = err.Error()
		s.renderForm(w, r, http.StatusBadRequest, view)
		return
	}
	view.UserID = t.UserID()

	res, err := s.triage.Triage(r.Context(), t)
	if err != nil {
		logger.FromContext(r.Context(), s.logger).Warn("form triage failed", zap.Error(err))
		view.Error = safeDomainMessage(err)
		s.renderForm(w, r, statusFor(err), view)
		return
	}

	view.Logs = res.Logs()
	view.Draft = res.Draft()
	view.Escalation = res.EscalationNote()
	s.renderForm(w, r, http.StatusOK, view)
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, view formView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := formTemplate.Execute(w, view); err != nil {
		logger.FromContext(r.Context(), s.logger).Error("render form", zap.Error(err))
	}
}
