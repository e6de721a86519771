package ui

import (
	"fmt"
	"os/exec"
	"runtime"
)

// notifyFunc sends one desktop notification
type notifyFunc func(title, message string) error

func notifyLinux(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

func notifyDarwin(title, message string) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

func notifyWindows(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
		$xml = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
"@
		$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
		$doc.LoadXml($xml)
		$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("EODMS DDS").Show($toast)
	`, title, message)
	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// Notifier prints run outcomes to the console and mirrors them as desktop
// notifications where the platform supports it
type Notifier struct {
	send notifyFunc
}

// NewNotifier picks the notification mechanism for the current platform
func NewNotifier() *Notifier {
	n := &Notifier{}
	switch runtime.GOOS {
	case "linux":
		n.send = notifyLinux
	case "darwin":
		n.send = notifyDarwin
	case "windows":
		n.send = notifyWindows
	}
	return n
}

func (n *Notifier) deliver(title, message string) {
	if n.send != nil {
		// Notification failures are not worth surfacing
		_ = n.send(title, message)
	}
}

// SendNotification prints and delivers a neutral notification
func (n *Notifier) SendNotification(title, message string) {
	fmt.Printf("\n%s: %s\n", Cyan(title), Yellow(message))
	n.deliver(title, message)
}

// SendError prints and delivers a failure notification
func (n *Notifier) SendError(title, message string) {
	fmt.Printf("\n%s: %s\n", Red(title), Red(message))
	n.deliver(title, message)
}

// SendSuccess prints and delivers a success notification
func (n *Notifier) SendSuccess(title, message string) {
	fmt.Printf("\n%s: %s\n", Green(title), Green(message))
	n.deliver(title, message)
}
