package mailer

import "embed"

const (
	FromName              = "Shop CMS"
	maxRetires            = 3
	CollaborationTemplate = "collaboration.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}

// CollaborationData fills CollaborationTemplate.
type CollaborationData struct {
	Username    string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Company     string
	Message     string
}
