package mailer

import "embed"

const (
	FromName                = "Tchat Souvenir"
	maxRetries              = 3
	ResetPasswordTemplate   = "reset_password.tmpl"
	FulfillmentTemplate     = "fulfillment_notice.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
