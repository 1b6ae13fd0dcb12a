package api

import (
	"github.com/JaimeStill/tickler/internal/files"
	"github.com/JaimeStill/tickler/internal/notifications"
	"github.com/JaimeStill/tickler/internal/users"
)

// Domain holds the owner, file, and notification systems.
type Domain struct {
	Users         users.System
	Files         files.System
	Notifications notifications.System
}

// NewDomain wires the systems together. The file system is the notification
// store and the user system resolves recipients.
func NewDomain(runtime *Runtime) *Domain {
	usersSystem := users.New(
		runtime.Database.Pool(),
		runtime.UserCache.Size,
		runtime.UserCache.TTL,
		runtime.Logger,
	)

	filesSystem := files.New(
		runtime.Database.Pool(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Users: usersSystem,
		Files: filesSystem,
		Notifications: notifications.New(
			filesSystem,
			usersSystem,
			runtime.Mail,
			runtime.Notifications,
			runtime.Logger,
		),
	}
}
