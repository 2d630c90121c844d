package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// SessionStatus is the locally known state of a sign-in, as shown by
// 'pokemcp auth status'.
type SessionStatus struct {
	IdentityURL string
	TokenFile   string
	UserID      string
	Email       string
	// Stored is false when the credential file holds no session.
	Stored    bool
	ExpiresAt time.Time
	// State is the session manager state after a token check.
	State string
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "expired"
	}
	if d < time.Minute {
		return "< 1 minute"
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// FormatExpiryWithDirection formats expiresAt relative to now as "in X" or
// "expired X ago".
func FormatExpiryWithDirection(expiresAt, now time.Time) string {
	remaining := expiresAt.Sub(now)
	if remaining > 0 {
		return "in " + FormatDuration(remaining)
	}
	return text.FgYellow.Sprintf("expired %s ago", FormatDuration(-remaining))
}

// FormatState colors a session manager state name.
func FormatState(state string) string {
	switch state {
	case "authenticated":
		return text.FgGreen.Sprint("Authenticated")
	case "refreshing":
		return text.FgYellow.Sprint("Refreshing")
	case "unauthenticated":
		return text.FgYellow.Sprint("Not authenticated")
	default:
		return text.FgHiBlack.Sprint(state)
	}
}

// RenderSessionStatus writes the status as a two column table.
func RenderSessionStatus(w io.Writer, st SessionStatus, now time.Time) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("FIELD"),
		text.FgHiCyan.Sprint("VALUE"),
	})

	t.AppendRow(table.Row{"Identity", st.IdentityURL})
	t.AppendRow(table.Row{"Token file", st.TokenFile})

	if !st.Stored {
		t.AppendRow(table.Row{"Status", FormatState("unauthenticated")})
		t.Render()
		return
	}

	t.AppendRow(table.Row{"Status", FormatState(st.State)})
	t.AppendRow(table.Row{"User ID", st.UserID})
	if st.Email != "" {
		t.AppendRow(table.Row{"Email", st.Email})
	}
	if !st.ExpiresAt.IsZero() {
		t.AppendRow(table.Row{"Expires", fmt.Sprintf("%s (%s)",
			st.ExpiresAt.Local().Format(time.RFC3339),
			FormatExpiryWithDirection(st.ExpiresAt, now))})
	}
	t.Render()
}
