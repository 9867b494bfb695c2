package email

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"
)

const siteName = "LabHive"

// TemplateData is passed to every mail template.
type TemplateData struct {
	SiteName string
	Name     string
	Link     string
	// Sender is the organization or lab that triggered the mail.
	Sender string
}

type localized struct {
	subject string
	intro   string
	action  string
	outro   string
}

var texts = map[Kind]map[string]localized{
	KindPasswordReset: {
		"de": {
			subject: "Passwort zurücksetzen",
			intro:   "Hallo {{.Name}},\n\nfür dein Konto bei {{.SiteName}} wurde ein neues Passwort angefordert.",
			action:  "Passwort zurücksetzen",
			outro:   "Der Link ist 48 Stunden gültig. Falls du kein neues Passwort angefordert hast, kannst du diese Nachricht ignorieren.",
		},
		"en": {
			subject: "Reset your password",
			intro:   "Hello {{.Name}},\n\nsomeone requested a new password for your {{.SiteName}} account.",
			action:  "Reset password",
			outro:   "The link is valid for 48 hours. If you did not request a new password, you can ignore this message.",
		},
	},
	KindActivation: {
		"de": {
			subject: "Bitte bestätige deine E-Mail-Adresse",
			intro:   "Hallo {{.Name}},\n\nvielen Dank für deine Registrierung bei {{.SiteName}}.",
			action:  "E-Mail-Adresse bestätigen",
			outro:   "Falls du dich nicht registriert hast, kannst du diese Nachricht ignorieren.",
		},
		"en": {
			subject: "Please confirm your email address",
			intro:   "Hello {{.Name}},\n\nthank you for registering with {{.SiteName}}.",
			action:  "Confirm email address",
			outro:   "If you did not register, you can ignore this message.",
		},
	},
	KindNotAvailableNotice: {
		"de": {
			subject: "Bist du noch verfügbar?",
			intro:   "Hallo {{.Name}},\n\n{{.Sender}} hat versucht dich zu erreichen und dich als nicht verfügbar gemeldet.",
			action:  "Verfügbarkeit aktualisieren",
			outro:   "Wenn du weiterhin helfen möchtest, bestätige bitte deine Verfügbarkeit über den Link.",
		},
		"en": {
			subject: "Are you still available?",
			intro:   "Hello {{.Name}},\n\n{{.Sender}} tried to reach you and reported you as not available.",
			action:  "Update availability",
			outro:   "If you still want to help, please confirm your availability using the link.",
		},
	},
}

const textLayout = `{{.Intro}}

{{.Action}}: {{.Link}}

{{.Outro}}

-- 
{{.SiteName}}
`

const htmlLayout = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.Subject}}</title></head>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  {{range .IntroLines}}<p>{{.}}</p>{{end}}
  <p><a href="{{.Link}}" style="display: inline-block; padding: 10px 20px; background-color: #2563eb; color: #ffffff; text-decoration: none; border-radius: 4px;">{{.Action}}</a></p>
  <p>{{.Outro}}</p>
  <p style="color: #6b7280;">{{.SiteName}}</p>
</body>
</html>`

var (
	textTmpl = template.Must(template.New("text").Parse(textLayout))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(htmlLayout))
)

type layoutData struct {
	SiteName   string
	Subject    string
	Intro      string
	IntroLines []string
	Action     string
	Link       string
	Outro      string
}

// Build renders the mail of the given kind in lang, falling back to German.
func Build(kind Kind, lang string, data TemplateData) (Email, error) {
	byLang, ok := texts[kind]
	if !ok {
		return Email{}, errUnknownKind(kind)
	}
	t, ok := byLang[lang]
	if !ok {
		t = byLang["de"]
	}
	if data.SiteName == "" {
		data.SiteName = siteName
	}

	intro, err := expand(t.intro, data)
	if err != nil {
		return Email{}, err
	}
	layout := layoutData{
		SiteName:   data.SiteName,
		Subject:    t.subject,
		Intro:      intro,
		IntroLines: splitParagraphs(intro),
		Action:     t.action,
		Link:       data.Link,
		Outro:      t.outro,
	}

	var text, html bytes.Buffer
	if err := textTmpl.Execute(&text, layout); err != nil {
		return Email{}, err
	}
	if err := htmlTmpl.Execute(&html, layout); err != nil {
		return Email{}, err
	}
	return Email{
		Kind:     kind,
		Subject:  t.subject,
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}

// expand fills the placeholders of a localized sentence. Names are plain
// text here; the HTML layout escapes them later.
func expand(sentence string, data TemplateData) (string, error) {
	tmpl, err := template.New("sentence").Parse(sentence)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func splitParagraphs(s string) []string {
	var out []string
	for _, p := range bytes.Split([]byte(s), []byte("\n\n")) {
		if len(p) > 0 {
			out = append(out, string(p))
		}
	}
	return out
}

type errUnknownKind Kind

func (e errUnknownKind) Error() string {
	return "unknown mail kind " + string(e)
}
