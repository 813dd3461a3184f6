package portal

import (
	"errors"
	"fmt"
)

// Portal bus names and interfaces
const (
	BusName    = "org.freedesktop.portal.Desktop"
	ObjectPath = "/org/freedesktop/portal/desktop"

	DynamicLauncherInterface = "org.freedesktop.portal.DynamicLauncher"
	NotificationInterface    = "org.freedesktop.portal.Notification"
	OpenURIInterface         = "org.freedesktop.portal.OpenURI"
	FileChooserInterface     = "org.freedesktop.portal.FileChooser"
	RequestInterface         = "org.freedesktop.portal.Request"

	requestPathPrefix = "/org/freedesktop/portal/desktop/request/"
)

// Launcher types understood by the DynamicLauncher portal
const (
	LauncherTypeApplication    uint32 = 1
	LauncherTypeWebApplication uint32 = 2
)

// Response codes of org.freedesktop.portal.Request::Response
const (
	ResponseSuccess   uint32 = 0
	ResponseCancelled uint32 = 1
	ResponseOther     uint32 = 2
)

// ErrCancelled is returned when the user dismisses a portal dialog
var ErrCancelled = errors.New("portal request cancelled")

// LauncherDescriptor describes a desktop launcher owned by this process
type LauncherDescriptor struct {
	DesktopID string
	Name      string
	Exec      string
	IconName  string
	IconFile  string
}

// NotificationRequest is a toast for the host notification center
type NotificationRequest struct {
	AppID string
	Title string
	Body  string
	Icon  string
}

// SaveFileRequest asks the user for a destination and writes Content there
type SaveFileRequest struct {
	Title            string
	SuggestedName    string
	DefaultDirectory string
	Content          []byte
}

// DesktopEntry renders the desktop file text for a launcher
func DesktopEntry(d LauncherDescriptor) string {
	return fmt.Sprintf(
		"[Desktop Entry]\nName=%s\nExec=%s\nType=Application\nIcon=%s\nCategories=Network;WebBrowser;\n",
		d.Name, d.Exec, d.IconName,
	)
}
