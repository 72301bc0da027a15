package tasks

import (
	"fmt"
	"strings"
)

// notifyTemplate holds the subject line and body for one notification kind.
// The body is plain text; %s receives the user's name.
type notifyTemplate struct {
	subject string
	body    string
}

var notifyTemplates = map[string]notifyTemplate{
	"verification.identity.approved": {
		subject: "Your identity has been verified",
		body:    "Hi %s,\n\nYour identity document was reviewed and approved. You can now start verifying your skills.",
	},
	"verification.identity.rejected": {
		subject: "Your identity document was not accepted",
		body:    "Hi %s,\n\nYour identity document could not be verified. Please submit a new document from your verification page.",
	},
	"verification.interview.approved": {
		subject: "Interview review complete",
		body:    "Hi %s,\n\nYour interview transcript was reviewed and approved. The next step is reference checks.",
	},
	"verification.interview.rejected": {
		subject: "Interview review outcome",
		body:    "Hi %s,\n\nYour interview transcript was reviewed and not approved. You can submit a new transcript from your verification page.",
	},
	"verification.reference.approved": {
		subject: "Reference check complete",
		body:    "Hi %s,\n\nYour references were checked and confirmed.",
	},
	"verification.reference.rejected": {
		subject: "Reference check outcome",
		body:    "Hi %s,\n\nWe could not confirm your references. Please submit updated reference details.",
	},
	"stage.advanced": {
		subject: "Verification progress",
		body:    "Hi %s,\n\nYour verification has advanced to the next stage. Check your profile for what comes next.",
	},
	"assessment.passed": {
		subject: "Assessment passed",
		body:    "Hi %s,\n\nCongratulations, you passed your skill assessment. The result has been recorded on your profile.",
	},
	"assessment.failed": {
		subject: "Assessment result",
		body:    "Hi %s,\n\nYou did not pass this skill assessment. You can start a new attempt at any time.",
	},
}

// RenderTemplate produces the subject and body for a notification. Payload
// data is appended as a detail block when present.
func RenderTemplate(appName, userName, templateID string, data map[string]interface{}) (string, string, error) {
	tmpl, ok := notifyTemplates[templateID]
	if !ok {
		return "", "", fmt.Errorf("no template registered for %q", templateID)
	}

	subject := fmt.Sprintf("[%s] %s", appName, tmpl.subject)
	body := fmt.Sprintf(tmpl.body, userName)

	if score, ok := data["score"]; ok {
		body += fmt.Sprintf("\n\nScore: %v", score)
	}
	body += fmt.Sprintf("\n\nThe %s team", appName)
	return subject, body, nil
}

// BuildRawEmail assembles a complete plain-text email message.
func BuildRawEmail(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	b.WriteString(fmt.Sprintf("To: %s\r\n", to))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
