package reminders

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/speakerhub/backend/internal/models"
)

const timeLayout = "Mon, 02 Jan 2006 15:04 MST"

var (
	speakerHTML = template.Must(template.New("speaker").Parse(
		`<p>Dear {{.Name}},<br>Your event "{{.Title}}" is scheduled for {{.When}}.</p>` +
			`{{if .Link}}<p>Join here: <a href="{{.Link}}">{{.Link}}</a></p>{{end}}`))
	attendeeHTML = template.Must(template.New("attendee").Parse(
		`<p>Dear {{.Name}},<br>The event "{{.Title}}" is scheduled for {{.When}}.</p>` +
			`{{if .Link}}<p>Join here: <a href="{{.Link}}">{{.Link}}</a></p>{{end}}`))
)

type view struct {
	Name  string
	Title string
	When  string
	Link  string
}

type content struct {
	subject string
	html    string
	text    string
}

func render(tmpl *template.Template, subject string, ev models.Event, name string) (content, error) {
	v := view{Name: name, Title: ev.Title, When: ev.DateTime.UTC().Format(timeLayout), Link: ev.MeetingLink}
	if v.Name == "" {
		v.Name = "there"
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return content{}, fmt.Errorf("render %s reminder: %w", tmpl.Name(), err)
	}
	text := fmt.Sprintf("Dear %s,\n%q is scheduled for %s.\n", v.Name, ev.Title, v.When)
	if v.Link != "" {
		text += "Join here: " + v.Link + "\n"
	}
	return content{subject: subject, html: buf.String(), text: text}, nil
}

func speakerContent(ev models.Event, name string, window time.Duration) (content, error) {
	subject := fmt.Sprintf("Reminder: Your event %q is in %d hours", ev.Title, int(window.Hours()))
	return render(speakerHTML, subject, ev, name)
}

func attendeeContent(ev models.Event, name string, window time.Duration) (content, error) {
	subject := fmt.Sprintf("Reminder: Event %q is in %d hours", ev.Title, int(window.Hours()))
	return render(attendeeHTML, subject, ev, name)
}
