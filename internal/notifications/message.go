package notifications

import (
	"fmt"

	"github.com/JaimeStill/tickler/internal/files"
	"github.com/JaimeStill/tickler/pkg/mail"
)

// Subject is the subject line of every expiry notification.
const Subject = "File Expiry Notification"

// Compose builds the expiry notification for f addressed to to.
func Compose(to string, f files.File) mail.Message {
	expiry := "an unknown date"
	if f.ExpiryDate != nil {
		expiry = f.ExpiryDate.String()
	}

	return mail.Message{
		To:      to,
		Subject: Subject,
		Body: fmt.Sprintf(
			"Your file %q (%s) will expire on %s.\n",
			f.Name, f.LocationURL, expiry,
		),
	}
}
